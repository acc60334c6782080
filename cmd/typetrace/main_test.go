package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typetrace/internal/config"
	"github.com/verte-zerg/typetrace/internal/generator"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/stats"
	"github.com/verte-zerg/typetrace/internal/store"
)

func validConfig() model.Config {
	return model.Config{
		Duration: 30 * time.Second,
		Words:    10,
		PunctSet: ".,",
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	cases := map[string]func(*model.Config){
		"--duration":     func(c *model.Config) { c.Duration = 0 },
		"--words":        func(c *model.Config) { c.Words = 0 },
		"--caps":         func(c *model.Config) { c.CapsPct = 1.5 },
		"--punct must":   func(c *model.Config) { c.PunctPct = -0.1 },
		"--punct-set":    func(c *model.Config) { c.PunctPct = 0.5; c.PunctSet = "" },
		"--focus-factor": func(c *model.Config) { c.FocusFactor = -1 },
	}
	for want, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.ErrorContains(t, validateConfig(cfg), want)
	}
}

func TestReferenceSource(t *testing.T) {
	gen := generator.NewWithSeed(1)

	cfg := validConfig()
	cfg.Text = "  cat dog  "
	text, next := referenceSource(cfg, []string{"ignored"}, gen, nil)
	assert.Equal(t, "cat dog", text)
	assert.Nil(t, next)

	text, next = referenceSource(validConfig(), nil, gen, nil)
	assert.Equal(t, generator.DefaultText, text)
	assert.Nil(t, next)

	cfg = validConfig()
	cfg.Words = 6
	text, next = referenceSource(cfg, []string{"alpha", "beta"}, gen, nil)
	assert.Len(t, strings.Fields(text), 6)
	require.NotNil(t, next)
	assert.Len(t, strings.Fields(next()), 6)
}

func TestReferenceSourceFocusErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Words = 30
	cfg.FocusErrors = true
	cfg.FocusFactor = 1
	calls := 0
	patterns := func() []model.ErrorPattern {
		calls++
		return []model.ErrorPattern{{Word: "beta", TotalErrors: 1000}}
	}
	text, _ := referenceSource(cfg, []string{"alpha", "beta"}, generator.NewWithSeed(2), patterns)
	assert.Equal(t, 1, calls)
	assert.GreaterOrEqual(t, strings.Count(text, "beta"), 25)
}

func TestConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typetrace", "config.toml")
	require.NoError(t, ensureConfigFile(path))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Test.Duration)
	assert.Nil(t, cfg.Log.Level)

	// An existing file is left alone.
	require.NoError(t, ensureConfigFile(path))
}

func seedStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "typetrace.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = st.Close()
	}()
	rec := model.SessionRecord{
		ID:        "session-1",
		UserID:    "alice",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary: model.SessionSummary{
			WPM:        42,
			Accuracy:   95,
			Errors:     3,
			Duration:   30,
			ErrorWords: []model.ErrorWord{{Word: "teh", Count: 3}},
			PsychologicalMetrics: model.PsychologicalMetrics{
				ResilienceScore: 99.5,
			},
		},
	}
	require.NoError(t, st.SaveSession(context.Background(), rec))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestShowCommandPrintsJSON(t *testing.T) {
	db := seedStore(t)
	out, err := runCLI(t, "show", "session-1", "--db", db)
	require.NoError(t, err)

	var rec model.SessionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, 42, rec.Summary.WPM)
	assert.Equal(t, []model.ErrorWord{{Word: "teh", Count: 3}}, rec.Summary.ErrorWords)
	assert.Contains(t, out, `"psychologicalMetrics"`)
	assert.Contains(t, out, `"resilienceScore": 99.5`)
}

func TestShowCommandText(t *testing.T) {
	db := seedStore(t)
	out, err := runCLI(t, "show", "session-1", "--db", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Session session-1")
	assert.Contains(t, out, "WPM: 42")
}

func TestShowCommandNotFound(t *testing.T) {
	db := seedStore(t)
	_, err := runCLI(t, "show", "missing", "--db", db, "--format", "json")
	assert.ErrorContains(t, err, `session "missing" not found`)
}

func TestStatsCommandPlain(t *testing.T) {
	db := seedStore(t)
	out, err := runCLI(t, "stats", "--plain", "--db", db, "--user", "alice", "--curve-window", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions: 1")
	assert.Contains(t, out, "teh")
	assert.Contains(t, out, "Psychology")
}

func TestStatsCommandJSONFiltersUser(t *testing.T) {
	db := seedStore(t)
	out, err := runCLI(t, "stats", "--json", "--plain=false", "--db", db, "--user", "bob")
	require.NoError(t, err)

	var report stats.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Sessions)
	assert.Equal(t, 0, report.Psychology.Sessions)

	out, err = runCLI(t, "stats", "--json", "--db", db, "--all-users")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Sessions, 1)
}

func TestStatsCommandRejectsBadSince(t *testing.T) {
	db := seedStore(t)
	_, err := runCLI(t, "stats", "--plain", "--db", db, "--since", "yesterday")
	assert.ErrorContains(t, err, "invalid --since")
}
