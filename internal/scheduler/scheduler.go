package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec fires once a day at 21:00 UTC.
const DefaultSpec = "0 21 * * *"

var ErrNoReportFunc = errors.New("report function not set")

// Scheduler runs the daily activity report on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
	log        *zap.SugaredLogger
}

// New creates a scheduler for the given cron spec. An empty spec means DefaultSpec.
func New(spec string, log *zap.SugaredLogger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		s.log.Warn("report function not set, scheduler will not generate reports")
		return ErrNoReportFunc
	}

	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Infow("scheduler started", "spec", s.spec)
	return nil
}

func (s *Scheduler) run() {
	s.log.Infow("daily report triggered", "spec", s.spec)
	if err := s.reportFunc(s.ctx); err != nil {
		s.log.Errorw("daily report failed", "error", err)
	}
}

// RunNow executes the report job once, outside the schedule.
func (s *Scheduler) RunNow() error {
	if s.reportFunc == nil {
		return ErrNoReportFunc
	}
	return s.reportFunc(s.ctx)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
