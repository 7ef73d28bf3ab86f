package assistant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fairbot/internal/apperrors"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
	"fairbot/internal/metrics"
)

// Recorder persists both halves of an exchange.
type Recorder interface {
	RecordQuestion(ctx context.Context, sessionID, interactionID, text string) (logstore.Entry, error)
	RecordAnswer(ctx context.Context, sessionID, interactionID, text, question string) (logstore.Entry, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Reply is returned to the chat client.
type Reply struct {
	Response      string `json:"response" yaml:"response"`
	SessionID     string `json:"sessionId" yaml:"sessionId"`
	InteractionID string `json:"interactionId" yaml:"interactionId"`
}

// Service runs the chat flow: log the question, answer it, log the answer.
type Service struct {
	recorder Recorder
	agent    Answerer
	newID    func() string
}

type ServiceOption func(*Service)

// WithIDGenerator replaces the UUID generator used for session and interaction ids.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *Service) { s.newID = f }
}

func NewService(rec Recorder, agent Answerer, opts ...ServiceOption) *Service {
	s := &Service{
		recorder: rec,
		agent:    agent,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers question within sessionID. An empty sessionID starts a new
// session. Each call is a new interaction.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (Reply, error) {
	reply, err := s.ask(ctx, sessionID, question)
	metrics.ChatRequests.WithLabelValues(metrics.ResultLabel(err)).Inc()
	return reply, err
}

func (s *Service) ask(ctx context.Context, sessionID, question string) (Reply, error) {
	if question == "" {
		return Reply{}, apperrors.NewMissingFieldError("userQuestion")
	}
	if sessionID == "" {
		sessionID = s.newID()
	}
	interactionID := s.newID()

	log := logger.Get(ctx).With("session_id", sessionID, "interaction_id", interactionID)
	ctx = logger.WithContext(ctx, log)

	if _, err := s.recorder.RecordQuestion(ctx, sessionID, interactionID, question); err != nil {
		return Reply{}, err
	}

	answer, err := s.agent.Answer(ctx, question)
	if err != nil {
		log.Errorw("agent failed", "error", err)
		return Reply{}, fmt.Errorf("answer question: %w", err)
	}

	if _, err := s.recorder.RecordAnswer(ctx, sessionID, interactionID, answer, question); err != nil {
		return Reply{}, err
	}

	log.Infow("answered question", "answer_len", len(answer))
	return Reply{Response: answer, SessionID: sessionID, InteractionID: interactionID}, nil
}
