package logstore

import (
	"context"
	"time"

	"fairbot/internal/apperrors"
	"fairbot/internal/logger"
	"fairbot/internal/metrics"
	"fairbot/internal/storage"
)

// Store is the append-only interaction log. It never updates or deletes;
// corrections are new entries.
type Store struct {
	backend storage.Backend
	now     func() time.Time
}

type Option func(*Store)

// WithClock overrides the write-time clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Append stamps the write time (and the correction time, if the caller gave
// none) and persists the entry. A nil error means the write is durable.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if !e.Kind.Valid() {
		return Entry{}, apperrors.NewMalformedError("unknown event kind %q", e.Kind)
	}
	if e.SessionID == "" {
		return Entry{}, apperrors.NewMissingFieldError("sessionId")
	}
	if e.Timestamp == "" {
		e.Timestamp = FormatTimestamp(s.now())
	}
	if e.Kind == KindCorrection && e.CorrectionTimestamp == "" {
		e.CorrectionTimestamp = e.Timestamp
	}

	err := s.backend.Put(ctx, e.toRecord())
	metrics.LogAppends.WithLabelValues(string(e.Kind), metrics.ResultLabel(err)).Inc()
	if err != nil {
		logger.Get(ctx).Errorw("failed to append log entry",
			"event_type", e.Kind, "session_id", e.SessionID, "interaction_id", e.InteractionID, "error", err)
		return Entry{}, apperrors.NewWriteError(err)
	}
	logger.Get(ctx).Infow("logged entry",
		"event_type", e.Kind, "session_id", e.SessionID, "interaction_id", e.InteractionID)
	return e, nil
}

// QueryByEventKind returns every entry of kind, newest first, following
// continuation tokens until the backend is exhausted. sessionID filters when set.
func (s *Store) QueryByEventKind(ctx context.Context, kind EventKind, sessionID string) ([]Entry, error) {
	return s.collect(ctx, storage.Query{EventType: string(kind), SessionID: sessionID}, 0)
}

// Recent returns up to n of the newest entries of kind.
func (s *Store) Recent(ctx context.Context, kind EventKind, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.collect(ctx, storage.Query{EventType: string(kind), Limit: n}, n)
}

func (s *Store) collect(ctx context.Context, q storage.Query, max int) ([]Entry, error) {
	var out []Entry
	token := ""
	for {
		if max > 0 {
			q.Limit = max - len(out)
		}
		page, err := s.backend.Query(ctx, q, token)
		if err != nil {
			return nil, apperrors.NewReadError(err)
		}
		metrics.LogQueryPages.WithLabelValues(q.EventType).Inc()
		for _, r := range page.Records {
			out = append(out, fromRecord(r))
		}
		if page.NextToken == "" || (max > 0 && len(out) >= max) {
			return out, nil
		}
		token = page.NextToken
	}
}

func (s *Store) RecordQuestion(ctx context.Context, sessionID, interactionID, text string) (Entry, error) {
	e, err := NewQuestion(sessionID, interactionID, text)
	if err != nil {
		return Entry{}, err
	}
	return s.Append(ctx, e)
}

func (s *Store) RecordAnswer(ctx context.Context, sessionID, interactionID, text, question string) (Entry, error) {
	e, err := NewAnswer(sessionID, interactionID, text, question)
	if err != nil {
		return Entry{}, err
	}
	return s.Append(ctx, e)
}

func (s *Store) RecordCorrection(ctx context.Context, in CorrectionInput) (Entry, error) {
	e, err := NewCorrection(in)
	if err != nil {
		return Entry{}, err
	}
	return s.Append(ctx, e)
}
