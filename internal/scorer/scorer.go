// Package scorer derives the session summary and psychological metrics from a frozen trace.
package scorer

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/trace"
)

const (
	// AnxietyWindow is the number of trailing speed samples used for the anxiety score.
	AnxietyWindow = 5
	// LongWordLen is the length a word must exceed to count toward cognitive load.
	LongWordLen = 5
)

// Score computes the summary of a completed test. duration is the configured test length.
func Score(tr trace.Trace, duration time.Duration) model.SessionSummary {
	errorWords := []model.ErrorWord{}
	if tr.ErrorWords != nil {
		errorWords = tr.ErrorWords.Entries()
	}
	inputLen := utf8.RuneCountInString(tr.Input)
	return model.SessionSummary{
		WPM:        tr.WPM,
		Accuracy:   tr.Accuracy,
		Errors:     tr.Errors,
		Duration:   int(duration / time.Second),
		ErrorWords: errorWords,
		TypingPatterns: model.TypingPatterns{
			PausesBefore:    nonNil(tr.Pauses),
			SpeedVariations: nonNil(tr.SpeedSamples),
			RecoveryTimes:   nonNil(tr.RecoveryEvents),
		},
		PsychologicalMetrics: model.PsychologicalMetrics{
			ImpulsivityScore:   Impulsivity(tr.WPM, tr.Errors, inputLen),
			DeliberationScore:  Deliberation(tr.Accuracy, tr.Errors, inputLen),
			CognitiveLoadScore: CognitiveLoad(errorWords),
			ResilienceScore:    Resilience(tr.RecoveryEvents),
			AnxietyScore:       Anxiety(tr.SpeedSamples),
		},
	}
}

// Impulsivity is speed weighted by error density.
func Impulsivity(wpm, errCount, inputLen int) float64 {
	return float64(wpm) * errorDensity(errCount, inputLen)
}

// Deliberation is accuracy weighted by the share of correct characters.
func Deliberation(accuracy, errCount, inputLen int) float64 {
	return float64(accuracy) * (1 - errorDensity(errCount, inputLen))
}

// AverageRecoveryMs averages recovery durations; unresolved events count as zero.
func AverageRecoveryMs(events []model.RecoveryEvent) float64 {
	var sum int64
	for _, e := range events {
		sum += e.RecoveryDurationMs
	}
	return float64(sum) / float64(max(1, len(events)))
}

// CognitiveLoad sums error counts of words longer than LongWordLen characters.
func CognitiveLoad(words []model.ErrorWord) float64 {
	total := 0
	for _, w := range words {
		if utf8.RuneCountInString(w.Word) > LongWordLen {
			total += w.Count
		}
	}
	return float64(total)
}

// Resilience is 100 minus the average recovery time in seconds. It is not clamped.
func Resilience(events []model.RecoveryEvent) float64 {
	return 100 - AverageRecoveryMs(events)/1000
}

// Anxiety is the mean absolute WPM change across the last AnxietyWindow samples.
func Anxiety(samples []model.SpeedSample) float64 {
	if len(samples) > AnxietyWindow {
		samples = samples[len(samples)-AnxietyWindow:]
	}
	if len(samples) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(samples); i++ {
		sum += math.Abs(float64(samples[i].WPM - samples[i-1].WPM))
	}
	return sum / float64(len(samples)-1)
}

func errorDensity(errCount, inputLen int) float64 {
	return float64(errCount) / float64(max(1, inputLen))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
