// Package trace records the keystroke-level typing trace of a running test.
package trace

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/typetrace/internal/model"
)

// PauseThreshold is the minimum stall that counts as a pause.
const PauseThreshold = time.Second

var (
	// ErrNotRunning is returned when the trace is mutated outside a running test.
	ErrNotRunning = errors.New("trace: test is not running")
	// ErrAlreadyRunning is returned when a test is started while another one runs.
	ErrAlreadyRunning = errors.New("trace: test is already running")
	// ErrStillRunning is returned when a running trace is read for scoring.
	ErrStillRunning = errors.New("trace: test is still running")
	// ErrNotStarted is returned when no test has been started yet.
	ErrNotStarted = errors.New("trace: no test has been started")
)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateEnded
)

// Trace is the full record of one typing test.
type Trace struct {
	Reference string
	Input     string
	StartTime time.Time

	WPM      int
	Accuracy int
	Errors   int

	ErrorWords     *ErrorTally
	SpeedSamples   []model.SpeedSample
	RecoveryEvents []model.RecoveryEvent

	// PauseStart is zero when no pause is open.
	PauseStart       time.Time
	CurrentWordStart time.Time
	Pauses           []model.Pause
}

// Recorder owns the trace of a single test run.
type Recorder struct {
	trace Trace
	state state
}

// New returns an idle recorder for the given reference text.
func New(reference string) *Recorder {
	r := &Recorder{}
	r.reset(reference, time.Time{})
	return r
}

// Start discards any previous trace and begins a new test at now.
func (r *Recorder) Start(now time.Time) error {
	if r.state == stateRunning {
		return ErrAlreadyRunning
	}
	r.reset(r.trace.Reference, now)
	r.state = stateRunning
	return nil
}

// End freezes the trace at its last computed values.
func (r *Recorder) End() error {
	if r.state != stateRunning {
		return ErrNotRunning
	}
	r.state = stateEnded
	return nil
}

// OnInputChange recomputes the live metrics for the new input.
func (r *Recorder) OnInputChange(input string, now time.Time) error {
	if r.state != stateRunning {
		return ErrNotRunning
	}
	t := &r.trace
	prevInput := t.Input
	prevErrors := t.Errors
	prevWPM := t.WPM

	wpm := wordsPerMinute(input, now.Sub(t.StartTime))
	errCount := countMismatches(input, t.Reference)
	accuracy := accuracyPercent(utf8.RuneCountInString(input), errCount)

	typedWords := strings.Split(input, " ")
	refWords := strings.Split(t.Reference, " ")
	for i := 0; i < len(typedWords) && i < len(refWords); i++ {
		if refWords[i] != "" && typedWords[i] != refWords[i] {
			t.ErrorWords.Add(typedWords[i])
		}
	}

	prevLen := utf8.RuneCountInString(prevInput)
	newLen := utf8.RuneCountInString(input)
	switch {
	case newLen == prevLen && t.PauseStart.IsZero():
		t.PauseStart = now
	case newLen > prevLen && !t.PauseStart.IsZero():
		if d := now.Sub(t.PauseStart); d > PauseThreshold {
			t.Pauses = append(t.Pauses, model.Pause{
				Word:       typedWords[len(typedWords)-1],
				DurationMs: d.Milliseconds(),
			})
			t.CurrentWordStart = now
		}
		t.PauseStart = time.Time{}
	}

	newError := errCount > prevErrors
	t.SpeedSamples = append(t.SpeedSamples, model.SpeedSample{
		Timestamp:  now.UnixMilli(),
		WPM:        wpm,
		AfterError: newError,
	})

	if newError {
		t.RecoveryEvents = append(t.RecoveryEvents, model.RecoveryEvent{ErrorTimestamp: now.UnixMilli()})
	} else if n := len(t.RecoveryEvents); n > 0 && wpm > prevWPM {
		last := &t.RecoveryEvents[n-1]
		if !last.Resolved() {
			last.RecoveryDurationMs = now.UnixMilli() - last.ErrorTimestamp
		}
	}

	t.Input = input
	t.WPM = wpm
	t.Accuracy = accuracy
	t.Errors = errCount
	return nil
}

// Running reports whether a test is in progress.
func (r *Recorder) Running() bool {
	return r.state == stateRunning
}

// Ended reports whether the last test has been ended.
func (r *Recorder) Ended() bool {
	return r.state == stateEnded
}

// Reference returns the text being typed.
func (r *Recorder) Reference() string {
	return r.trace.Reference
}

// Input returns the current input.
func (r *Recorder) Input() string {
	return r.trace.Input
}

// WPM returns the current words per minute.
func (r *Recorder) WPM() int {
	return r.trace.WPM
}

// Accuracy returns the current accuracy percentage.
func (r *Recorder) Accuracy() int {
	return r.trace.Accuracy
}

// Errors returns the current count of mismatched characters.
func (r *Recorder) Errors() int {
	return r.trace.Errors
}

// ErrorWords returns the mistyped words seen so far, in first-seen order.
func (r *Recorder) ErrorWords() []model.ErrorWord {
	return r.trace.ErrorWords.Entries()
}

// StartedAt returns the start time of the current or last test.
func (r *Recorder) StartedAt() time.Time {
	return r.trace.StartTime
}

// Snapshot returns a copy of the frozen trace for scoring.
func (r *Recorder) Snapshot() (Trace, error) {
	switch r.state {
	case stateIdle:
		return Trace{}, ErrNotStarted
	case stateRunning:
		return Trace{}, ErrStillRunning
	}
	t := r.trace
	t.ErrorWords = r.trace.ErrorWords.Clone()
	t.SpeedSamples = append([]model.SpeedSample(nil), r.trace.SpeedSamples...)
	t.RecoveryEvents = append([]model.RecoveryEvent(nil), r.trace.RecoveryEvents...)
	t.Pauses = append([]model.Pause(nil), r.trace.Pauses...)
	return t, nil
}

func (r *Recorder) reset(reference string, now time.Time) {
	r.trace = Trace{
		Reference:  reference,
		StartTime:  now,
		Accuracy:   100,
		ErrorWords: NewErrorTally(),
	}
}

func wordsPerMinute(input string, elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(len(strings.Fields(input))) / minutes))
}

// countMismatches counts rune positions where input differs from reference.
// Positions past the end of the reference are errors.
func countMismatches(input, reference string) int {
	ref := []rune(reference)
	count := 0
	i := 0
	for _, r := range input {
		if i >= len(ref) || r != ref[i] {
			count++
		}
		i++
	}
	return count
}

func accuracyPercent(length, errCount int) int {
	if length == 0 {
		return 100
	}
	return int(math.Round(float64(length-errCount) / float64(length) * 100))
}
