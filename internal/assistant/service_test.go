package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairbot/internal/apperrors"
	"fairbot/internal/logstore"
	"fairbot/internal/storage"
)

type staticAnswerer struct {
	answer string
	err    error
	asked  []string
}

func (s *staticAnswerer) Answer(_ context.Context, q string) (string, error) {
	s.asked = append(s.asked, q)
	return s.answer, s.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestAskRecordsBothHalves(t *testing.T) {
	store := logstore.New(storage.NewMemoryBackend(10))
	agent := &staticAnswerer{answer: "Yes, mileage is unlimited."}
	svc := NewService(store, agent, WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	reply, err := svc.Ask(ctx, "sess-1", "is mileage unlimited?")
	require.NoError(t, err)
	assert.Equal(t, Reply{Response: "Yes, mileage is unlimited.", SessionID: "sess-1", InteractionID: "id-1"}, reply)
	assert.Equal(t, []string{"is mileage unlimited?"}, agent.asked)

	qs, err := store.QueryByEventKind(ctx, logstore.KindQuestion, "")
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "id-1", qs[0].InteractionID)
	assert.Equal(t, "is mileage unlimited?", qs[0].Content)

	as, err := store.QueryByEventKind(ctx, logstore.KindAnswer, "")
	require.NoError(t, err)
	require.Len(t, as, 1)
	assert.Equal(t, "id-1", as[0].InteractionID)
	assert.Equal(t, "Yes, mileage is unlimited.", as[0].Content)
	assert.Equal(t, "is mileage unlimited?", as[0].UserQuestion)
	assert.LessOrEqual(t, qs[0].Timestamp, as[0].Timestamp)
}

func TestAskStartsSessionWhenMissing(t *testing.T) {
	store := logstore.New(storage.NewMemoryBackend(10))
	svc := NewService(store, &staticAnswerer{answer: "ok"}, WithIDGenerator(sequentialIDs()))

	first, err := svc.Ask(context.Background(), "", "one")
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.SessionID)
	assert.Equal(t, "id-2", first.InteractionID)

	second, err := svc.Ask(context.Background(), first.SessionID, "two")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.InteractionID, second.InteractionID)
}

func TestAskDefaultIDsAreUUIDs(t *testing.T) {
	svc := NewService(logstore.New(storage.NewMemoryBackend(10)), &staticAnswerer{answer: "ok"})
	reply, err := svc.Ask(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Len(t, reply.SessionID, 36)
	assert.Len(t, reply.InteractionID, 36)
}

func TestAskRequiresQuestion(t *testing.T) {
	agent := &staticAnswerer{}
	_, err := NewService(logstore.New(storage.NewMemoryBackend(10)), agent).Ask(context.Background(), "s", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
	assert.Equal(t, []string{"userQuestion"}, apperrors.MissingFields(err))
	assert.Empty(t, agent.asked)
}

func TestAskAgentFailureKeepsQuestion(t *testing.T) {
	store := logstore.New(storage.NewMemoryBackend(10))
	svc := NewService(store, &staticAnswerer{err: errors.New("model down")})

	_, err := svc.Ask(context.Background(), "s", "hello")
	require.Error(t, err)

	qs, err := store.QueryByEventKind(context.Background(), logstore.KindQuestion, "")
	require.NoError(t, err)
	assert.Len(t, qs, 1)
	as, err := store.QueryByEventKind(context.Background(), logstore.KindAnswer, "")
	require.NoError(t, err)
	assert.Empty(t, as)
}

type brokenRecorder struct{}

func (brokenRecorder) RecordQuestion(context.Context, string, string, string) (logstore.Entry, error) {
	return logstore.Entry{}, apperrors.NewWriteError(errors.New("disk full"))
}

func (brokenRecorder) RecordAnswer(context.Context, string, string, string, string) (logstore.Entry, error) {
	return logstore.Entry{}, nil
}

func TestAskWriteFailure(t *testing.T) {
	agent := &staticAnswerer{answer: "x"}
	_, err := NewService(brokenRecorder{}, agent).Ask(context.Background(), "s", "hello")
	assert.True(t, errors.Is(err, apperrors.ErrBackendWrite))
	assert.Empty(t, agent.asked)
}
