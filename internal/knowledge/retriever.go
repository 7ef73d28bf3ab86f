package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultResults = 5
	NoResultsText  = "No relevant information found in the knowledge base."
)

// Retriever looks up passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// HTTPRetriever queries a retrieval endpoint that accepts
// {"query": ..., "numberOfResults": n} and answers with
// {"retrievalResults": [{"content": {"text": ...}}]}.
type HTTPRetriever struct {
	url        string
	results    int
	httpClient *http.Client
}

func NewHTTPRetriever(url string, results int) *HTTPRetriever {
	if results <= 0 {
		results = DefaultResults
	}
	return &HTTPRetriever{
		url:        url,
		results:    results,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type retrieveRequest struct {
	Query           string `json:"query"`
	NumberOfResults int    `json:"numberOfResults"`
}

type retrieveResponse struct {
	RetrievalResults []struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"retrievalResults"`
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	body, err := json.Marshal(retrieveRequest{Query: query, NumberOfResults: r.results})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("knowledge base error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out retrieveResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var passages []string
	for _, res := range out.RetrievalResults {
		if res.Content.Text != "" {
			passages = append(passages, res.Content.Text)
		}
	}
	return passages, nil
}

// Render formats passages as tool output for the model.
func Render(passages []string) string {
	if len(passages) == 0 {
		return NoResultsText
	}
	return "Retrieved knowledge base content:\n" + strings.Join(passages, "\n---\n")
}

func RenderError(err error) string {
	return fmt.Sprintf("An error occurred while accessing the knowledge base: %v", err)
}

// Static serves a fixed passage list. It backs local runs without a
// retrieval endpoint.
type Static []string

func (s Static) Retrieve(context.Context, string) ([]string, error) {
	return s, nil
}
