package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typetrace/internal/model"
)

func record(id string, wpm, accuracy, errors, duration int) model.SessionRecord {
	return model.SessionRecord{
		ID:        id,
		UserID:    "alice",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary: model.SessionSummary{
			WPM:      wpm,
			Accuracy: accuracy,
			Errors:   errors,
			Duration: duration,
		},
	}
}

func TestSummaryMetrics(t *testing.T) {
	sum := SummaryMetrics([]model.SessionRecord{
		record("a", 40, 90, 3, 30),
		record("b", 60, 100, 1, 60),
	})
	if sum.Sessions != 2 || sum.BestWPM != 60 || sum.TotalErrors != 4 || sum.TotalSeconds != 90 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.AvgWPM != 50 || sum.AvgAccuracy != 95 {
		t.Fatalf("unexpected averages: %+v", sum)
	}
	if empty := SummaryMetrics(nil); empty != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	same := MovingAverage([]float64{1, 5}, 0)
	if same[0] != 1 || same[1] != 5 {
		t.Fatalf("expected unchanged values, got %v", same)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestCurveLinesTrimToWidth(t *testing.T) {
	var sessions []model.SessionRecord
	for i := 1; i <= 5; i++ {
		sessions = append(sessions, record("s", i*10, 90, 1, 30))
	}
	lines := CurveLines(sessions, PerformanceCurves, 1, 18)
	if len(lines) != 3 {
		t.Fatalf("expected 3 curves, got %d", len(lines))
	}
	if len(lines[0]) != 18 {
		t.Fatalf("expected line trimmed to 18 columns, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[0], "WPM ") || !strings.HasSuffix(lines[0], " 50.00") {
		t.Fatalf("unexpected curve line: %q", lines[0])
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSummary(&buf, []model.SessionRecord{
		record("a", 40, 90, 3, 30),
		record("b", 60, 100, 1, 60),
	})
	if err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg WPM: 50.00", "Best WPM: 60", "Avg Accuracy: 95.00%", "Time Typed: 1m30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderPsychology(t *testing.T) {
	var buf bytes.Buffer
	avg := model.PsychologicalAverages{Sessions: 2, AvgResilience: 90, AvgAnxiety: 12.5}
	if err := RenderPsychology(&buf, avg, []model.SessionRecord{record("a", 40, 90, 3, 30)}, 3, 0); err != nil {
		t.Fatalf("RenderPsychology failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"averaged over 2 sessions", "Resilience", "90.00", "12.50", "Cognitive load"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderPsychology(&buf, model.PsychologicalAverages{}, nil, 3, 0); err != nil {
		t.Fatalf("RenderPsychology failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No psychological metrics") {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestRenderSession(t *testing.T) {
	rec := record("s1", 42, 95, 3, 30)
	rec.Summary.ErrorWords = []model.ErrorWord{{Word: "teh", Count: 2}}
	rec.Summary.TypingPatterns = model.TypingPatterns{
		PausesBefore:    []model.Pause{{Word: "quick", DurationMs: 1500}},
		SpeedVariations: []model.SpeedSample{{Timestamp: 1, WPM: 30}, {Timestamp: 2, WPM: 20, AfterError: true}},
		RecoveryTimes: []model.RecoveryEvent{
			{ErrorTimestamp: 2, RecoveryDurationMs: 500},
			{ErrorTimestamp: 4},
		},
	}
	var buf bytes.Buffer
	if err := RenderSession(&buf, rec); err != nil {
		t.Fatalf("RenderSession failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Session s1",
		"WPM: 42  Accuracy: 95%  Errors: 3  Duration: 30s",
		"teh",
		"2 samples, 1 after error",
		"Recoveries: 1 of 2 errors",
		`Pause 1500ms in "quick"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
