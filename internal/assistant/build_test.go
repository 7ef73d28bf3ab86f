package assistant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairbot/internal/config"
	"fairbot/internal/corrections"
	"fairbot/internal/llm"
	"fairbot/internal/logstore"
	"fairbot/internal/storage"
)

func TestFromConfigWithoutLLM(t *testing.T) {
	store := logstore.New(storage.NewMemoryBackend(10))
	cfg := &config.Config{LLMProvider: config.ProviderOpenAI}

	svc, err := FromConfig(context.Background(), cfg, store, corrections.NewMatcher(store, 0))
	assert.Nil(t, svc)
	assert.True(t, errors.Is(err, llm.ErrNotConfigured))
}

func TestFromConfigAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Mileage is unlimited."}}]}`)
	}))
	defer srv.Close()

	store := logstore.New(storage.NewMemoryBackend(10))
	cfg := &config.Config{
		LLMProvider:   config.ProviderOpenAI,
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1",
		OpenAIModel:   "gpt-4o-mini",
		AgentMaxSteps: 2,
	}

	svc, err := FromConfig(context.Background(), cfg, store, corrections.NewMatcher(store, 0))
	require.NoError(t, err)

	reply, err := svc.Ask(context.Background(), "", "Is mileage limited?")
	require.NoError(t, err)
	assert.Equal(t, "Mileage is unlimited.", reply.Response)

	answers, err := store.QueryByEventKind(context.Background(), logstore.KindAnswer, reply.SessionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "Is mileage limited?", answers[0].UserQuestion)
}
