// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typetrace/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates headline numbers over a set of sessions.
type Summary struct {
	Sessions     int
	AvgWPM       float64
	BestWPM      int
	AvgAccuracy  float64
	TotalErrors  int
	TotalSeconds int
}

// SummaryMetrics computes averages and totals for the sessions.
func SummaryMetrics(sessions []model.SessionRecord) Summary {
	out := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return out
	}
	var wpmSum, accSum float64
	for _, s := range sessions {
		wpmSum += float64(s.Summary.WPM)
		accSum += float64(s.Summary.Accuracy)
		if s.Summary.WPM > out.BestWPM {
			out.BestWPM = s.Summary.WPM
		}
		out.TotalErrors += s.Summary.Errors
		out.TotalSeconds += s.Summary.Duration
	}
	count := float64(len(sessions))
	out.AvgWPM = wpmSum / count
	out.AvgAccuracy = accSum / count
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Series extracts one value per session, oldest first.
func Series(sessions []model.SessionRecord, pick func(model.SessionSummary) float64) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = pick(s.Summary)
	}
	return out
}

// Curve is a named per-session series.
type Curve struct {
	Name string
	Pick func(model.SessionSummary) float64
}

// PerformanceCurves are the speed and accuracy learning curves.
var PerformanceCurves = []Curve{
	{Name: "WPM", Pick: func(s model.SessionSummary) float64 { return float64(s.WPM) }},
	{Name: "Accuracy", Pick: func(s model.SessionSummary) float64 { return float64(s.Accuracy) }},
	{Name: "Errors", Pick: func(s model.SessionSummary) float64 { return float64(s.Errors) }},
}

// MetricCurves are the per-session psychological metrics.
var MetricCurves = []Curve{
	{Name: "Impulsivity", Pick: func(s model.SessionSummary) float64 { return s.PsychologicalMetrics.ImpulsivityScore }},
	{Name: "Deliberation", Pick: func(s model.SessionSummary) float64 { return s.PsychologicalMetrics.DeliberationScore }},
	{Name: "Cognitive load", Pick: func(s model.SessionSummary) float64 { return s.PsychologicalMetrics.CognitiveLoadScore }},
	{Name: "Resilience", Pick: func(s model.SessionSummary) float64 { return s.PsychologicalMetrics.ResilienceScore }},
	{Name: "Anxiety", Pick: func(s model.SessionSummary) float64 { return s.PsychologicalMetrics.AnxietyScore }},
}

// CurveLines renders one labelled sparkline per curve. Sparklines longer than
// width keep their most recent points; width <= 0 disables trimming.
func CurveLines(sessions []model.SessionRecord, curves []Curve, window, width int) []string {
	if len(sessions) == 0 {
		return nil
	}
	labelWidth := 0
	for _, c := range curves {
		labelWidth = max(labelWidth, len(c.Name))
	}
	lines := make([]string, 0, len(curves))
	for _, c := range curves {
		values := MovingAverage(Series(sessions, c.Pick), window)
		last := values[len(values)-1]
		label := fmt.Sprintf("%-*s ", labelWidth, c.Name)
		suffix := fmt.Sprintf(" %.2f", last)
		if width > 0 {
			room := width - len(label) - len(suffix)
			if room < 1 {
				room = 1
			}
			if len(values) > room {
				values = values[len(values)-room:]
			}
		}
		lines = append(lines, label+Sparkline(values)+suffix)
	}
	return lines
}

// RenderSummary prints a summary of the sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := SummaryMetrics(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Avg WPM: %.2f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %d", sum.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", sum.AvgAccuracy),
		fmt.Sprintf("Total Errors: %d", sum.TotalErrors),
		fmt.Sprintf("Time Typed: %s", time.Duration(sum.TotalSeconds)*time.Second),
		"",
	}
	return writeLines(w, lines)
}

// RenderCurves prints learning curves for speed, accuracy and errors.
func RenderCurves(w io.Writer, sessions []model.SessionRecord, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	lines := append([]string{fmt.Sprintf("Learning Curves (window %d)", max(window, 1))}, CurveLines(sessions, PerformanceCurves, window, width)...)
	return writeLines(w, append(lines, ""))
}

// RenderErrorPatterns prints the most frequently mistyped words.
func RenderErrorPatterns(w io.Writer, patterns []model.ErrorPattern) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintln(w, "No error words found.")
		return err
	}
	rows := make([][]string, 0, len(patterns))
	for i, p := range patterns {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), WordLabel(p.Word), fmt.Sprintf("%d", p.TotalErrors)})
	}
	lines := append([]string{"Error Words"}, formatTable([]string{"#", "Word", "Errors"}, rows)...)
	return writeLines(w, append(lines, ""))
}

// RenderPsychology prints metric averages and per-session metric curves.
func RenderPsychology(w io.Writer, avg model.PsychologicalAverages, sessions []model.SessionRecord, window, width int) error {
	if avg.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No psychological metrics recorded.")
		return err
	}
	rows := [][]string{
		{"Impulsivity", fmt.Sprintf("%.2f", avg.AvgImpulsivity)},
		{"Deliberation", fmt.Sprintf("%.2f", avg.AvgDeliberation)},
		{"Cognitive load", fmt.Sprintf("%.2f", avg.AvgCognitiveLoad)},
		{"Resilience", fmt.Sprintf("%.2f", avg.AvgResilience)},
		{"Anxiety", fmt.Sprintf("%.2f", avg.AvgAnxiety)},
	}
	lines := []string{fmt.Sprintf("Psychology (averaged over %d sessions)", avg.Sessions)}
	lines = append(lines, formatTable([]string{"Metric", "Average"}, rows)...)
	if curves := CurveLines(sessions, MetricCurves, window, width); len(curves) > 0 {
		lines = append(lines, "")
		lines = append(lines, curves...)
	}
	return writeLines(w, append(lines, ""))
}

// RenderSession prints the details of one stored session.
func RenderSession(w io.Writer, rec model.SessionRecord) error {
	s := rec.Summary
	m := s.PsychologicalMetrics
	lines := []string{
		fmt.Sprintf("Session %s", rec.ID),
		fmt.Sprintf("User: %s", rec.UserID),
		fmt.Sprintf("Date: %s", rec.CreatedAt.Local().Format(time.DateTime)),
		fmt.Sprintf("WPM: %d  Accuracy: %d%%  Errors: %d  Duration: %ds", s.WPM, s.Accuracy, s.Errors, s.Duration),
		"",
	}
	lines = append(lines, formatTable([]string{"Metric", "Score"}, [][]string{
		{"Impulsivity", fmt.Sprintf("%.2f", m.ImpulsivityScore)},
		{"Deliberation", fmt.Sprintf("%.2f", m.DeliberationScore)},
		{"Cognitive load", fmt.Sprintf("%.2f", m.CognitiveLoadScore)},
		{"Resilience", fmt.Sprintf("%.2f", m.ResilienceScore)},
		{"Anxiety", fmt.Sprintf("%.2f", m.AnxietyScore)},
	})...)

	if len(s.ErrorWords) > 0 {
		rows := make([][]string, 0, len(s.ErrorWords))
		for _, ew := range s.ErrorWords {
			rows = append(rows, []string{WordLabel(ew.Word), fmt.Sprintf("%d", ew.Count)})
		}
		lines = append(lines, "")
		lines = append(lines, formatTable([]string{"Typed", "Count"}, rows)...)
	}
	if samples := s.TypingPatterns.SpeedVariations; len(samples) > 0 {
		values := make([]float64, len(samples))
		afterError := 0
		for i, sample := range samples {
			values[i] = float64(sample.WPM)
			if sample.AfterError {
				afterError++
			}
		}
		lines = append(lines, "", fmt.Sprintf("Speed %s (%d samples, %d after error)", Sparkline(values), len(samples), afterError))
	}
	if len(s.TypingPatterns.RecoveryTimes) > 0 {
		resolved := 0
		for _, ev := range s.TypingPatterns.RecoveryTimes {
			if ev.Resolved() {
				resolved++
			}
		}
		lines = append(lines, fmt.Sprintf("Recoveries: %d of %d errors", resolved, len(s.TypingPatterns.RecoveryTimes)))
	}
	for _, p := range s.TypingPatterns.PausesBefore {
		lines = append(lines, fmt.Sprintf("Pause %dms in %q", p.DurationMs, p.Word))
	}
	return writeLines(w, append(lines, ""))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
