package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typetrace/internal/logging"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/store"
	"github.com/verte-zerg/typetrace/internal/trace"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingSaver struct {
	saved []model.SessionRecord
	err   error
}

func (s *recordingSaver) SaveSession(_ context.Context, rec model.SessionRecord) error {
	s.saved = append(s.saved, rec)
	return s.err
}

func newTestSession(saver Saver) (*Session, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := New(Options{
		Reference: "cat dog",
		Duration:  30 * time.Second,
		UserID:    "alice",
		Saver:     saver,
		Now:       clock.Now,
		NewID:     func() string { return "session-1" },
	})
	return s, clock
}

func TestTickEndsTestWhenCountdownExpires(t *testing.T) {
	saver := &recordingSaver{}
	s, clock := newTestSession(saver)
	ctx := context.Background()

	assert.Equal(t, 30*time.Second, s.Remaining())
	require.NoError(t, s.Start())

	clock.Advance(10 * time.Second)
	require.NoError(t, s.Input("cat dig"))

	left, rec, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 20*time.Second, left)

	clock.Advance(25 * time.Second)
	left, rec, err = s.Tick(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, time.Duration(0), left)
	assert.False(t, s.Running())

	assert.Equal(t, "session-1", rec.ID)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, 30, rec.Summary.Duration)
	assert.Equal(t, 12, rec.Summary.WPM)
	assert.Equal(t, 1, rec.Summary.Errors)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, *rec, saver.saved[0])

	// Further ticks after the test ended do nothing.
	_, again, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, saver.saved, 1)
}

func TestEndEarlyScoresOnce(t *testing.T) {
	saver := &recordingSaver{}
	s, clock := newTestSession(saver)
	ctx := context.Background()

	require.NoError(t, s.Start())
	clock.Advance(5 * time.Second)
	require.NoError(t, s.Input("c"))

	first, err := s.End(ctx)
	require.NoError(t, err)
	second, err := s.End(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, saver.saved, 1)
	assert.ErrorIs(t, s.Input("ca"), trace.ErrNotRunning)

	got, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestEndBeforeStart(t *testing.T) {
	s, _ := newTestSession(nil)
	_, err := s.End(context.Background())
	assert.ErrorIs(t, err, trace.ErrNotRunning)
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestSaveFailureKeepsRecord(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	s, clock := newTestSession(saver)
	ctx := context.Background()

	require.NoError(t, s.Start())
	clock.Advance(time.Second)
	require.NoError(t, s.Input("cat"))

	rec, err := s.End(ctx)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, "session-1", rec.ID)
	assert.Equal(t, 100, rec.Summary.Accuracy)

	saver.err = nil
	require.NoError(t, s.Persist(ctx))
	require.Len(t, saver.saved, 2)
	assert.Equal(t, saver.saved[0], saver.saved[1])
}

func TestSaveFailureLoggedThroughHeldLogger(t *testing.T) {
	logger, held := logging.NewHeld("warn")
	s := New(Options{
		Reference: "cat dog",
		Duration:  30 * time.Second,
		UserID:    "alice",
		Saver:     &recordingSaver{err: errors.New("disk full")},
		Logger:    logger,
		NewID:     func() string { return "session-1" },
	})
	require.NoError(t, s.Start())
	_, err := s.End(context.Background())
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, held.Flush(&out))
	assert.Contains(t, out.String(), "failed to save session")
	assert.Contains(t, out.String(), "session=session-1")
	assert.NotContains(t, out.String(), "test ended")
}

func TestStartRejectedWhileRunning(t *testing.T) {
	s, _ := newTestSession(nil)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), trace.ErrAlreadyRunning)
	assert.ErrorIs(t, s.SetReference("other"), trace.ErrAlreadyRunning)
}

func TestRestartDiscardsPreviousTrace(t *testing.T) {
	s, clock := newTestSession(nil)
	ctx := context.Background()

	require.NoError(t, s.Start())
	clock.Advance(time.Second)
	require.NoError(t, s.Input("cxt"))
	_, err := s.End(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SetReference("new text"))
	require.NoError(t, s.Start())
	assert.Equal(t, "new text", s.Reference())
	assert.Equal(t, "", s.Typed())
	assert.Equal(t, 0, s.Errors())
	assert.Equal(t, 100, s.Accuracy())
	assert.Equal(t, 0, s.WPM())
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestEndPersistsToStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "typetrace.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()

	s, clock := newTestSession(st)
	require.NoError(t, s.Start())
	for i, text := range []string{"c", "ca", "cat", "cat ", "cat d", "cat di", "cat dig"} {
		clock.Advance(time.Duration(i+1) * 200 * time.Millisecond)
		require.NoError(t, s.Input(text))
	}
	rec, err := s.End(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx))

	got, err := st.GetSession(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Summary, got.Summary)

	sessions, err := st.ListSessions(ctx, model.StatsConfig{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
