package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairbot/internal/apperrors"
	"fairbot/internal/logstore"
	"fairbot/internal/storage"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func tick() func() time.Time {
	t := base.Add(-time.Second)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newStore(pageSize int) (*logstore.Store, storage.Backend) {
	b := storage.NewMemoryBackend(pageSize)
	return logstore.New(b, logstore.WithClock(tick())), b
}

func exchange(t *testing.T, s *logstore.Store, session, interaction string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.RecordQuestion(ctx, session, interaction, "q "+interaction)
	require.NoError(t, err)
	_, err = s.RecordAnswer(ctx, session, interaction, "a "+interaction, "q "+interaction)
	require.NoError(t, err)
}

func interactionOrder(entries []logstore.Entry) []string {
	var out []string
	for _, e := range entries {
		if len(out) == 0 || out[len(out)-1] != e.InteractionID {
			out = append(out, e.InteractionID)
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	s, _ := newStore(10)
	exchange(t, s, "s1", "i1")

	p, err := NewEngine(s).GetHistory(context.Background(), "", 1, 10)
	require.NoError(t, err)
	require.Len(t, p.History, 2)
	assert.Equal(t, logstore.KindQuestion, p.History[0].Kind)
	assert.Equal(t, logstore.KindAnswer, p.History[1].Kind)
	assert.Equal(t, 1, p.Meta.TotalInteractionGroups)
	assert.Equal(t, 1, p.Meta.TotalPages)
	assert.Equal(t, Summary{
		TotalInteractionGroups:    1,
		TotalIndividualLogEntries: 2,
		TotalQuestions:            1,
		TotalAIResponses:          1,
		UniqueSessionCount:        1,
	}, p.Summary)
}

func TestGroupsOrderedByLatestActivity(t *testing.T) {
	s, _ := newStore(3)
	ctx := context.Background()
	exchange(t, s, "s1", "old")
	exchange(t, s, "s2", "mid")
	exchange(t, s, "s1", "new")

	// A late correction makes "old" the most recently active exchange.
	_, err := s.RecordCorrection(ctx, logstore.CorrectionInput{
		SessionID: "s1", InteractionID: "old",
		UserQuestion: "q old", OriginalResponse: "a old", CorrectedText: "fixed",
		CorrectionTimestamp: "2023-12-31T00:00:00.000Z",
	})
	require.NoError(t, err)

	p, err := NewEngine(s).GetHistory(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new", "mid"}, interactionOrder(p.History))

	old := p.History[:3]
	assert.Equal(t, logstore.KindQuestion, old[0].Kind)
	assert.Equal(t, logstore.KindAnswer, old[1].Kind)
	assert.Equal(t, logstore.KindCorrection, old[2].Kind)
	assert.Equal(t, 1, p.Summary.TotalAdminCorrections)
	assert.Equal(t, 2, p.Summary.UniqueSessionCount)
}

func TestEveryInteractionInExactlyOneGroup(t *testing.T) {
	s, _ := newStore(4)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		exchange(t, s, fmt.Sprintf("s%d", i%3), fmt.Sprintf("i%d", i))
	}
	_, err := s.RecordAnswer(ctx, "s0", "i2", "follow-up answer", "q i2")
	require.NoError(t, err)

	p, err := NewEngine(s).GetHistory(ctx, "", 1, 100)
	require.NoError(t, err)
	order := interactionOrder(p.History)
	seen := map[string]bool{}
	for _, id := range order {
		assert.False(t, seen[id], "interaction %s split across groups", id)
		seen[id] = true
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, "i2", order[0])

	for i := 1; i < len(p.History); i++ {
		if p.History[i].InteractionID == p.History[i-1].InteractionID {
			assert.LessOrEqual(t, p.History[i-1].Timestamp, p.History[i].Timestamp)
		}
	}
}

func TestPaginationBoundaries(t *testing.T) {
	s, _ := newStore(7)
	for i := 0; i < 25; i++ {
		exchange(t, s, "s", fmt.Sprintf("i%02d", i))
	}
	e := NewEngine(s)
	ctx := context.Background()

	var all []string
	for page := 1; page <= 3; page++ {
		p, err := e.GetHistory(ctx, "", page, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Meta.TotalPages)
		assert.Equal(t, 25, p.Meta.TotalInteractionGroups)
		assert.Equal(t, page, p.Meta.CurrentPage)
		assert.Equal(t, 10, p.Meta.LimitPerPage)
		all = append(all, interactionOrder(p.History)...)
		if page == 3 {
			assert.Len(t, interactionOrder(p.History), 5)
			assert.Len(t, p.History, 10)
		}
	}
	require.Len(t, all, 25)
	for i := range all {
		assert.Equal(t, fmt.Sprintf("i%02d", 24-i), all[i])
	}

	p, err := e.GetHistory(ctx, "", 4, 10)
	require.NoError(t, err)
	assert.Empty(t, p.History)
	assert.NotNil(t, p.History)
	assert.Equal(t, 3, p.Meta.TotalPages)
	assert.Equal(t, 50, p.Summary.TotalIndividualLogEntries)
}

func TestMissingKeysCountedButNotShown(t *testing.T) {
	s, b := newStore(10)
	ctx := context.Background()
	exchange(t, s, "s1", "i1")

	require.NoError(t, b.Put(ctx, storage.Record{
		SessionID: "s2", Timestamp: "2024-02-01T00:00:00.000Z", EventType: "QUESTION", Content: "orphan",
	}))
	require.NoError(t, b.Put(ctx, storage.Record{
		SessionID: "s3", InteractionID: "i1", EventType: "AI_RESPONSE", Content: "no timestamp",
	}))
	require.NoError(t, b.Put(ctx, storage.Record{
		SessionID: "s4", InteractionID: "ghost", EventType: "QUESTION", Content: "no timestamp either",
	}))

	p, err := NewEngine(s).GetHistory(ctx, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, p.Summary.TotalIndividualLogEntries)
	assert.Equal(t, 3, p.Summary.TotalQuestions)
	assert.Equal(t, 2, p.Summary.TotalAIResponses)
	assert.Equal(t, 4, p.Summary.UniqueSessionCount)

	assert.Equal(t, 1, p.Meta.TotalInteractionGroups, "timestamp-less group is dropped")
	require.Len(t, p.History, 2)
	for _, e := range p.History {
		assert.Equal(t, "i1", e.InteractionID)
		assert.NotEmpty(t, e.Timestamp)
	}
}

func TestSessionFilter(t *testing.T) {
	s, _ := newStore(2)
	exchange(t, s, "s1", "a")
	exchange(t, s, "s2", "b")
	exchange(t, s, "s1", "c")

	p, err := NewEngine(s).GetHistory(context.Background(), "s1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, interactionOrder(p.History))
	assert.Equal(t, 4, p.Summary.TotalIndividualLogEntries)
	assert.Equal(t, 1, p.Summary.UniqueSessionCount)
}

func TestIdempotentReads(t *testing.T) {
	s, _ := newStore(3)
	for i := 0; i < 6; i++ {
		exchange(t, s, "s", fmt.Sprintf("i%d", i))
	}
	e := NewEngine(s)
	first, err := e.GetHistory(context.Background(), "", 2, 4)
	require.NoError(t, err)
	second, err := e.GetHistory(context.Background(), "", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTiesKeepFetchOrder(t *testing.T) {
	b := storage.NewMemoryBackend(10)
	s := logstore.New(b, logstore.WithClock(func() time.Time { return base }))
	ctx := context.Background()
	_, err := s.RecordQuestion(ctx, "s", "q-only", "q")
	require.NoError(t, err)
	_, err = s.RecordAnswer(ctx, "s", "a-only", "a", "q")
	require.NoError(t, err)

	p, err := NewEngine(s).GetHistory(ctx, "", 1, 10)
	require.NoError(t, err)
	// Answers are read before questions.
	assert.Equal(t, []string{"a-only", "q-only"}, interactionOrder(p.History))
}

func TestHugePagingValues(t *testing.T) {
	s, _ := newStore(10)
	exchange(t, s, "s", "i1")
	exchange(t, s, "s", "i2")
	e := NewEngine(s)
	ctx := context.Background()

	p, err := e.GetHistory(ctx, "", math.MaxInt/8, 16)
	require.NoError(t, err)
	assert.Empty(t, p.History)
	assert.NotNil(t, p.History)
	assert.Equal(t, 1, p.Meta.TotalPages)
	assert.Equal(t, 2, p.Meta.TotalInteractionGroups)

	p, err = e.GetHistory(ctx, "", math.MaxInt, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, p.History)
	assert.Equal(t, 1, p.Meta.TotalPages)

	p, err = e.GetHistory(ctx, "", 1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Meta.TotalPages)
	assert.Equal(t, []string{"i2", "i1"}, interactionOrder(p.History))
}

func TestEmptyLogHasNoPages(t *testing.T) {
	s, _ := newStore(10)
	p, err := NewEngine(s).GetHistory(context.Background(), "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Meta.TotalPages)
	assert.Empty(t, p.History)
	assert.NotNil(t, p.History)
}

func TestInvalidPaging(t *testing.T) {
	s, _ := newStore(10)
	e := NewEngine(s)
	_, err := e.GetHistory(context.Background(), "", 0, 10)
	assert.True(t, errors.Is(err, apperrors.ErrMalformed))
	_, err = e.GetHistory(context.Background(), "", 1, 0)
	assert.True(t, errors.Is(err, apperrors.ErrMalformed))
}

type brokenReader struct{}

func (brokenReader) QueryByEventKind(context.Context, logstore.EventKind, string) ([]logstore.Entry, error) {
	return nil, apperrors.NewReadError(errors.New("timeout"))
}

func TestReadFailure(t *testing.T) {
	_, err := NewEngine(brokenReader{}).GetHistory(context.Background(), "", 1, 10)
	assert.True(t, errors.Is(err, apperrors.ErrBackendRead))
}
