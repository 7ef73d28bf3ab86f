package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"fairbot/internal/analytics"
	"fairbot/internal/history"
)

func useFileStore(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("STORE_DSN", filepath.Join(t.TempDir(), "log.jsonl"))
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.Execute()
	return out.String(), err
}

func correct(t *testing.T, interaction, question, corrected string) {
	t.Helper()
	_, err := run(t, "correct",
		"--session", "s1", "--interaction", interaction,
		"--question", question, "--original", "old answer",
		"--corrected", corrected, "--admin", "ops")
	require.NoError(t, err)
}

func TestCorrectThenHistoryJSON(t *testing.T) {
	useFileStore(t)
	correct(t, "i1", "is there a deposit", "a $200 refundable deposit applies")
	time.Sleep(2 * time.Millisecond)
	correct(t, "i2", "can I drive for Uber", "yes, rideshare use is allowed")

	out, err := run(t, "history", "-o", "json", "--limit", "1")
	require.NoError(t, err)

	var page history.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.Equal(t, 2, page.Summary.TotalAdminCorrections)
	require.Len(t, page.History, 1)
	assert.Equal(t, "i2", page.History[0].InteractionID)
	assert.Equal(t, "ops", page.History[0].CorrectorID)
}

func TestHistoryText(t *testing.T) {
	useFileStore(t)
	correct(t, "i1", "is there a deposit", "a $200 refundable deposit applies")

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Interactions: 1")
	assert.Contains(t, out, "── i1 (session s1)")
	assert.Contains(t, out, "ADMIN_CORRECTION")
	assert.Contains(t, out, "by ops")
}

func TestCorrectMissingFields(t *testing.T) {
	useFileStore(t)
	_, err := run(t, "correct", "--session", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactionId")
}

func TestCorrectionsLookup(t *testing.T) {
	useFileStore(t)
	correct(t, "i1", "is there a deposit", "a $200 refundable deposit applies")

	out, err := run(t, "corrections", "how", "big", "is", "the", "deposit")
	require.NoError(t, err)
	assert.Contains(t, out, "Relevant past administrative corrections:")
	assert.Contains(t, out, "Corrected AI Response: a $200 refundable deposit applies")

	out, err = run(t, "corrections", "insurance")
	require.NoError(t, err)
	assert.Contains(t, out, "No relevant administrative corrections found.")
}

func TestReportYAML(t *testing.T) {
	useFileStore(t)
	correct(t, "i1", "is there a deposit", "a $200 refundable deposit applies")

	out, err := run(t, "report", "-o", "yaml")
	require.NoError(t, err)

	var stats analytics.DailyStats
	require.NoError(t, yaml.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Corrections)

	out, err = run(t, "report", "--date", "2001-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2001-01-01")
	assert.Contains(t, out, "Admin corrections: 0")

	_, err = run(t, "report", "--date", "yesterday")
	assert.Error(t, err)
}

func TestUnknownOutputFormat(t *testing.T) {
	useFileStore(t)
	_, err := run(t, "history", "-o", "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown output format"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "пр...", truncate("привет", 2))
}
