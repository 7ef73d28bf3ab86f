package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"fairbot/internal/logstore"
)

// DailyStats holds activity for one UTC day.
type DailyStats struct {
	Date           string                  `json:"date" yaml:"date"`
	Questions      int                     `json:"questions" yaml:"questions"`
	Answers        int                     `json:"answers" yaml:"answers"`
	Corrections    int                     `json:"corrections" yaml:"corrections"`
	UniqueSessions int                     `json:"unique_sessions" yaml:"unique_sessions"`
	Interactions   int                     `json:"interactions" yaml:"interactions"`
	Unanswered     int                     `json:"unanswered" yaml:"unanswered"`
	SessionStats   map[string]SessionStats `json:"session_stats" yaml:"session_stats"`
}

type SessionStats struct {
	SessionID   string `json:"session_id" yaml:"session_id"`
	Questions   int    `json:"questions" yaml:"questions"`
	Corrections int    `json:"corrections" yaml:"corrections"`
}

// AnalyzeDailyLogs counts entries whose write timestamp falls on targetDate.
// Entries with a missing or unparseable timestamp are skipped.
func AnalyzeDailyLogs(entries []logstore.Entry, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		SessionStats: make(map[string]SessionStats),
	}

	asked := make(map[string]bool)
	answered := make(map[string]bool)

	for _, e := range entries {
		ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(startOfDay) || !ts.Before(endOfDay) {
			continue
		}

		ss, ok := stats.SessionStats[e.SessionID]
		if !ok {
			ss = SessionStats{SessionID: e.SessionID}
		}

		switch e.Kind {
		case logstore.KindQuestion:
			stats.Questions++
			ss.Questions++
			if e.InteractionID != "" {
				asked[e.InteractionID] = true
			}
		case logstore.KindAnswer:
			stats.Answers++
			if e.InteractionID != "" {
				answered[e.InteractionID] = true
			}
		case logstore.KindCorrection:
			stats.Corrections++
			ss.Corrections++
		}
		stats.SessionStats[e.SessionID] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	stats.Interactions = len(asked)
	for id := range asked {
		if !answered[id] {
			stats.Unanswered++
		}
	}
	return stats
}

// GenerateReportSummary renders the stats as plain text for the daily report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assistant activity for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Questions: %d\n", ds.Questions)
	fmt.Fprintf(&b, "- AI responses: %d\n", ds.Answers)
	fmt.Fprintf(&b, "- Admin corrections: %d\n", ds.Corrections)
	fmt.Fprintf(&b, "- Unique sessions: %d\n", ds.UniqueSessions)
	if ds.Unanswered > 0 {
		fmt.Fprintf(&b, "- Questions without a recorded answer: %d\n", ds.Unanswered)
	}

	ids := make([]string, 0, len(ds.SessionStats))
	for id := range ds.SessionStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		fmt.Fprintf(&b, "\nSessions (%d):\n", len(ids))
	}
	for _, id := range ids {
		s := ds.SessionStats[id]
		fmt.Fprintf(&b, "- %s: %d questions", id, s.Questions)
		if s.Corrections > 0 {
			fmt.Fprintf(&b, ", %d corrections", s.Corrections)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
