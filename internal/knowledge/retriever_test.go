package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRetriever(t *testing.T) {
	var got retrieveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"retrievalResults":[
			{"content":{"text":"Mileage is unlimited."}},
			{"content":{"text":""}},
			{"content":{"text":"Deposit is $200."}}
		]}`))
	}))
	defer srv.Close()

	passages, err := NewHTTPRetriever(srv.URL, 0).Retrieve(context.Background(), "mileage")
	require.NoError(t, err)
	assert.Equal(t, "mileage", got.Query)
	assert.Equal(t, DefaultResults, got.NumberOfResults)
	assert.Equal(t, []string{"Mileage is unlimited.", "Deposit is $200."}, passages)
}

func TestHTTPRetrieverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPRetriever(srv.URL, 3).Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "throttled")
}

func TestHTTPRetrieverBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPRetriever(srv.URL, 3).Retrieve(context.Background(), "q")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	assert.Equal(t, NoResultsText, Render(nil))
	assert.Equal(t, "Retrieved knowledge base content:\na\n---\nb", Render([]string{"a", "b"}))
	assert.Equal(t, "An error occurred while accessing the knowledge base: down", RenderError(errors.New("down")))
}

func TestStatic(t *testing.T) {
	p, err := Static{"x"}.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, p)
}
