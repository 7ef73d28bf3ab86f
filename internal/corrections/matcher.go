package corrections

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"fairbot/internal/logger"
	"fairbot/internal/logstore"
	"fairbot/internal/metrics"
)

const (
	DefaultLimit  = 3
	DefaultWindow = 20

	// minTokenLen: query tokens must be longer than this to count.
	minTokenLen = 2
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Source yields the newest entries of one kind.
type Source interface {
	Recent(ctx context.Context, kind logstore.EventKind, n int) ([]logstore.Entry, error)
}

type Correction struct {
	SessionID           string `json:"sessionId" yaml:"sessionId"`
	InteractionID       string `json:"interactionId" yaml:"interactionId"`
	UserQuestion        string `json:"userQuestion" yaml:"userQuestion"`
	OriginalResponse    string `json:"originalAIResponse" yaml:"originalAIResponse"`
	CorrectedResponse   string `json:"correctedAIResponse" yaml:"correctedAIResponse"`
	CorrectorID         string `json:"adminId,omitempty" yaml:"adminId,omitempty"`
	Timestamp           string `json:"timestamp" yaml:"timestamp"`
	CorrectionTimestamp string `json:"correctionTimestamp,omitempty" yaml:"correctionTimestamp,omitempty"`
}

// Matcher ranks recent admin corrections by keyword overlap with a query.
type Matcher struct {
	src    Source
	window int
}

func NewMatcher(src Source, window int) *Matcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Matcher{src: src, window: window}
}

// Find returns at most limit corrections, newest first, that share a query
// word longer than two characters. No match is an empty result, not an error.
func (m *Matcher) Find(ctx context.Context, query string, limit int) ([]Correction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	candidates, err := m.src.Recent(ctx, logstore.KindCorrection, m.window)
	if err != nil {
		metrics.CorrectionLookups.WithLabelValues("error").Inc()
		logger.Get(ctx).Warnw("correction lookup degraded", "error", err)
		return nil, err
	}

	var keywords []string
	for tok := range tokenSet(query) {
		if utf8.RuneCountInString(tok) > minTokenLen {
			keywords = append(keywords, tok)
		}
	}

	out := []Correction{}
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		words := tokenSet(c.UserQuestion + " " + c.OriginalResponse + " " + c.Content)
		if !anyIn(keywords, words) {
			continue
		}
		out = append(out, Correction{
			SessionID:           c.SessionID,
			InteractionID:       c.InteractionID,
			UserQuestion:        c.UserQuestion,
			OriginalResponse:    c.OriginalResponse,
			CorrectedResponse:   c.Content,
			CorrectorID:         c.CorrectorID,
			Timestamp:           c.Timestamp,
			CorrectionTimestamp: c.CorrectionTimestamp,
		})
	}

	outcome := "miss"
	if len(out) > 0 {
		outcome = "hit"
	}
	metrics.CorrectionLookups.WithLabelValues(outcome).Inc()
	logger.Get(ctx).Infow("correction lookup", "candidates", len(candidates), "matched", len(out))
	return out, nil
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = struct{}{}
	}
	return set
}

func anyIn(keys []string, set map[string]struct{}) bool {
	for _, k := range keys {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}
