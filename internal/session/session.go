// Package session runs one timed typing test at a time and hands its scored summary to storage.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typetrace/internal/logging"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/scorer"
	"github.com/verte-zerg/typetrace/internal/trace"
)

// Saver persists completed sessions. Implementations must tolerate replays of the same record.
type Saver interface {
	SaveSession(ctx context.Context, rec model.SessionRecord) error
}

// Options configures a Session.
type Options struct {
	Reference string
	Duration  time.Duration
	UserID    string
	Saver     Saver
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Session owns the recorder of the active test. It is not safe for concurrent use;
// callers feed it events one at a time.
type Session struct {
	opts     Options
	recorder *trace.Recorder
	result   *model.SessionRecord
}

// New returns an idle session.
func New(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Session{
		opts:     opts,
		recorder: trace.New(opts.Reference),
	}
}

// SetReference replaces the reference text for the next test.
func (s *Session) SetReference(reference string) error {
	if s.recorder.Running() {
		return trace.ErrAlreadyRunning
	}
	s.opts.Reference = reference
	s.recorder = trace.New(reference)
	s.result = nil
	return nil
}

// Start begins a new test, discarding the previous trace and result.
func (s *Session) Start() error {
	if err := s.recorder.Start(s.opts.Now()); err != nil {
		return err
	}
	s.result = nil
	s.opts.Logger.Debug("test started", "user", s.opts.UserID, "duration", s.opts.Duration)
	return nil
}

// Input records a change of the typed text.
func (s *Session) Input(text string) error {
	return s.recorder.OnInputChange(text, s.opts.Now())
}

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration {
	switch {
	case s.recorder.Running():
		left := s.opts.Duration - s.opts.Now().Sub(s.recorder.StartedAt())
		if left < 0 {
			return 0
		}
		return left
	case s.recorder.Ended():
		return 0
	default:
		return s.opts.Duration
	}
}

// Tick advances the countdown. When it runs out the test ends and the record is returned.
func (s *Session) Tick(ctx context.Context) (time.Duration, *model.SessionRecord, error) {
	left := s.Remaining()
	if !s.recorder.Running() || left > 0 {
		return left, nil, nil
	}
	rec, err := s.End(ctx)
	return 0, &rec, err
}

// End freezes the trace, scores it once and hands the record to the saver.
// The returned record is complete even when saving fails. Ending an already
// ended test returns the existing record.
func (s *Session) End(ctx context.Context) (model.SessionRecord, error) {
	if !s.recorder.Running() {
		if s.result != nil {
			return *s.result, nil
		}
		return model.SessionRecord{}, trace.ErrNotRunning
	}
	if err := s.recorder.End(); err != nil {
		return model.SessionRecord{}, err
	}
	snap, err := s.recorder.Snapshot()
	if err != nil {
		return model.SessionRecord{}, err
	}
	rec := model.SessionRecord{
		ID:        s.opts.NewID(),
		UserID:    s.opts.UserID,
		CreatedAt: s.opts.Now(),
		Summary:   scorer.Score(snap, s.opts.Duration),
	}
	s.result = &rec
	s.opts.Logger.Info("test ended", "session", rec.ID, "wpm", rec.Summary.WPM, "accuracy", rec.Summary.Accuracy)
	return rec, s.Persist(ctx)
}

// Persist hands the last completed record to the saver again.
func (s *Session) Persist(ctx context.Context) error {
	if s.result == nil || s.opts.Saver == nil {
		return nil
	}
	if err := s.opts.Saver.SaveSession(ctx, *s.result); err != nil {
		s.opts.Logger.Error("failed to save session", "session", s.result.ID, "err", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Result returns the record of the last completed test.
func (s *Session) Result() (model.SessionRecord, bool) {
	if s.result == nil {
		return model.SessionRecord{}, false
	}
	return *s.result, true
}

// Running reports whether a test is in progress.
func (s *Session) Running() bool {
	return s.recorder.Running()
}

// Reference returns the text being typed.
func (s *Session) Reference() string {
	return s.recorder.Reference()
}

// Typed returns the text typed so far.
func (s *Session) Typed() string {
	return s.recorder.Input()
}

// WPM returns the live words per minute.
func (s *Session) WPM() int {
	return s.recorder.WPM()
}

// Accuracy returns the live accuracy percentage.
func (s *Session) Accuracy() int {
	return s.recorder.Accuracy()
}

// Errors returns the live error count.
func (s *Session) Errors() int {
	return s.recorder.Errors()
}

// Duration returns the configured test length.
func (s *Session) Duration() time.Duration {
	return s.opts.Duration
}
