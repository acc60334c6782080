// Package model defines shared data structures.
package model

import "time"

// Config defines typing test settings.
type Config struct {
	Text         string
	Duration     time.Duration
	UserID       string
	WordListPath string
	Words        int
	CapsPct      float64
	PunctPct     float64
	PunctSet     string
	FocusErrors  bool
	FocusFactor  float64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      string
	Since       *time.Time
	Last        int
	CurveWindow int
	TopWords    int
}

// SpeedSample is one instantaneous speed reading taken on an input change.
type SpeedSample struct {
	Timestamp  int64 `json:"timestamp"`
	WPM        int   `json:"wpm"`
	AfterError bool  `json:"afterError"`
}

// RecoveryEvent tracks the time from an error until speed picks up again.
// A zero RecoveryDurationMs means the event is unresolved.
type RecoveryEvent struct {
	ErrorTimestamp     int64 `json:"errorTimestamp"`
	RecoveryDurationMs int64 `json:"recoveryDuration"`
}

// Resolved reports whether speed recovered after the error.
func (e RecoveryEvent) Resolved() bool {
	return e.RecoveryDurationMs != 0
}

// Pause is a stretch of no input growth longer than one second.
type Pause struct {
	Word       string `json:"word"`
	DurationMs int64  `json:"duration"`
}

// ErrorWord is a mistyped word and how often it was seen.
type ErrorWord struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TypingPatterns groups the time series captured during a test.
type TypingPatterns struct {
	PausesBefore    []Pause         `json:"pausesBefore"`
	SpeedVariations []SpeedSample   `json:"speedVariations"`
	RecoveryTimes   []RecoveryEvent `json:"recoveryTimes"`
}

// PsychologicalMetrics are derived once from a completed trace.
type PsychologicalMetrics struct {
	ImpulsivityScore   float64 `json:"impulsivityScore"`
	DeliberationScore  float64 `json:"deliberationScore"`
	CognitiveLoadScore float64 `json:"cognitiveLoadScore"`
	ResilienceScore    float64 `json:"resilienceScore"`
	AnxietyScore       float64 `json:"anxietyScore"`
}

// SessionSummary is the immutable result of one completed test.
type SessionSummary struct {
	WPM                  int                  `json:"wpm"`
	Accuracy             int                  `json:"accuracy"`
	Errors               int                  `json:"errors"`
	Duration             int                  `json:"duration"`
	ErrorWords           []ErrorWord          `json:"errorWords"`
	TypingPatterns       TypingPatterns       `json:"typingPatterns"`
	PsychologicalMetrics PsychologicalMetrics `json:"psychologicalMetrics"`
}

// SessionRecord is a summary together with its persistence keys.
type SessionRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	CreatedAt time.Time      `json:"createdAt"`
	Summary   SessionSummary `json:"session"`
}

// ErrorPattern aggregates one word's errors across sessions.
type ErrorPattern struct {
	Word        string `json:"word"`
	TotalErrors int    `json:"totalErrors"`
}

// PsychologicalAverages averages the metrics over a user's sessions.
type PsychologicalAverages struct {
	Sessions         int     `json:"sessions"`
	AvgImpulsivity   float64 `json:"avgImpulsivity"`
	AvgDeliberation  float64 `json:"avgDeliberation"`
	AvgCognitiveLoad float64 `json:"avgCognitiveLoad"`
	AvgResilience    float64 `json:"avgResilience"`
	AvgAnxiety       float64 `json:"avgAnxiety"`
}
