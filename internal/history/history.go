package history

import (
	"context"
	"sort"

	"fairbot/internal/apperrors"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
	"fairbot/internal/metrics"
)

// Reader is the read side of the log store.
type Reader interface {
	QueryByEventKind(ctx context.Context, kind logstore.EventKind, sessionID string) ([]logstore.Entry, error)
}

type Summary struct {
	TotalInteractionGroups    int `json:"totalInteractionGroups" yaml:"totalInteractionGroups"`
	TotalIndividualLogEntries int `json:"totalIndividualLogEntries" yaml:"totalIndividualLogEntries"`
	TotalQuestions            int `json:"totalQuestions" yaml:"totalQuestions"`
	TotalAIResponses          int `json:"totalAIResponses" yaml:"totalAIResponses"`
	TotalAdminCorrections     int `json:"totalAdminCorrections" yaml:"totalAdminCorrections"`
	UniqueSessionCount        int `json:"uniqueSessionCount" yaml:"uniqueSessionCount"`
}

type Meta struct {
	CurrentPage            int `json:"current_page" yaml:"currentPage"`
	TotalPages             int `json:"total_pages" yaml:"totalPages"`
	TotalInteractionGroups int `json:"total_interaction_groups" yaml:"totalInteractionGroups"`
	LimitPerPage           int `json:"limit_per_page" yaml:"limitPerPage"`
}

// Page is one page of interaction groups flattened into entries.
type Page struct {
	Summary Summary          `json:"summary" yaml:"summary"`
	History []logstore.Entry `json:"history" yaml:"history"`
	Meta    Meta             `json:"meta" yaml:"meta"`
}

// Engine serves history grouped by interaction. It reads every matching entry
// per request: a group's members and latest timestamp are only known once all
// entries are seen, so cost grows with the log, not with the page size.
type Engine struct {
	reader Reader
}

func NewEngine(r Reader) *Engine {
	return &Engine{reader: r}
}

type group struct {
	id      string
	latest  string
	members []logstore.Entry
}

// GetHistory returns groups [(page-1)*pageSize, page*pageSize) ordered by most
// recent activity. A page past the end is empty, not an error.
func (e *Engine) GetHistory(ctx context.Context, sessionID string, page, pageSize int) (Page, error) {
	if page < 1 {
		return Page{}, apperrors.NewMalformedError("page must be >= 1, got %d", page)
	}
	if pageSize < 1 {
		return Page{}, apperrors.NewMalformedError("limit must be >= 1, got %d", pageSize)
	}

	var all []logstore.Entry
	for _, kind := range logstore.Kinds {
		entries, err := e.reader.QueryByEventKind(ctx, kind, sessionID)
		if err != nil {
			metrics.HistoryRequests.WithLabelValues("error").Inc()
			return Page{}, err
		}
		all = append(all, entries...)
	}
	metrics.HistoryRecordsScanned.Observe(float64(len(all)))

	groups := groupByInteraction(all)
	total := len(groups)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	// page can be any positive int; compare before multiplying.
	start, end := total, total
	if page-1 < totalPages {
		start = (page - 1) * pageSize
		end = start + min(pageSize, total-start)
	}

	out := Page{
		Summary: summarize(all),
		History: []logstore.Entry{},
		Meta: Meta{
			CurrentPage:            page,
			TotalPages:             totalPages,
			TotalInteractionGroups: total,
			LimitPerPage:           pageSize,
		},
	}
	out.Summary.TotalInteractionGroups = total
	for _, g := range groups[start:end] {
		out.History = append(out.History, g.members...)
	}

	metrics.HistoryRequests.WithLabelValues("ok").Inc()
	logger.Get(ctx).Infow("served history page",
		"session_filter", sessionID, "page", page, "limit", pageSize,
		"groups", end-start, "entries", len(out.History))
	return out, nil
}

// groupByInteraction correlates entries by interaction id. Entries without an
// id are dropped; entries without a timestamp are left out of their group, and
// a group left empty is dropped. Groups come back newest activity first; ties
// keep first-seen order.
func groupByInteraction(all []logstore.Entry) []*group {
	byID := make(map[string]*group)
	var order []*group
	for _, en := range all {
		if en.InteractionID == "" {
			continue
		}
		g, ok := byID[en.InteractionID]
		if !ok {
			g = &group{id: en.InteractionID}
			byID[en.InteractionID] = g
			order = append(order, g)
		}
		if en.Timestamp == "" {
			continue
		}
		g.members = append(g.members, en)
		if en.Timestamp > g.latest {
			g.latest = en.Timestamp
		}
	}

	groups := order[:0]
	for _, g := range order {
		if len(g.members) == 0 {
			continue
		}
		sort.SliceStable(g.members, func(i, j int) bool {
			return g.members[i].Timestamp < g.members[j].Timestamp
		})
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].latest > groups[j].latest })
	return groups
}

// summarize counts every fetched entry, including ones excluded from groups.
func summarize(all []logstore.Entry) Summary {
	s := Summary{TotalIndividualLogEntries: len(all)}
	sessions := make(map[string]struct{})
	for _, en := range all {
		switch en.Kind {
		case logstore.KindQuestion:
			s.TotalQuestions++
		case logstore.KindAnswer:
			s.TotalAIResponses++
		case logstore.KindCorrection:
			s.TotalAdminCorrections++
		}
		if en.SessionID != "" {
			sessions[en.SessionID] = struct{}{}
		}
	}
	s.UniqueSessionCount = len(sessions)
	return s
}
