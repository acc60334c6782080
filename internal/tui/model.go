// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typetrace/internal/logging"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/session"
	"github.com/verte-zerg/typetrace/internal/stats"
)

const (
	tickInterval   = time.Second
	contentRatio   = 0.70
	resultTopWords = 5
)

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseFinished
)

// tickMsg drives the countdown. Ticks from an earlier run carry a stale
// generation and are dropped.
type tickMsg struct {
	gen int
}

// Options configures the typing screen.
type Options struct {
	Session *session.Session
	// NextText supplies a fresh reference text on restart; nil keeps the current one.
	NextText func() string
	// History seeds the footer with previously stored sessions, oldest first.
	History []model.SessionRecord
	Logger  *slog.Logger
	Context context.Context
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	ctx      context.Context
	sess     *session.Session
	nextText func() string
	logger   *slog.Logger

	width  int
	height int

	phase   phase
	gen     int
	typed   []rune
	result  model.SessionRecord
	saveErr error

	history []model.SessionRecord
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle       = incorrectStyle
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Model{
		ctx:      opts.Context,
		sess:     opts.Session,
		nextText: opts.NextText,
		logger:   opts.Logger,
		history:  opts.History,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseRunning:
			return m, m.handleRunningKey(msg)
		default:
			if msg.Type == tea.KeyEnter {
				return m, m.start()
			}
		}
	}
	return m, nil
}

func (m *Model) handleRunningKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.finish()
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.typed) > 0 {
			m.typed = m.typed[:len(m.typed)-1]
			m.input()
		}
	case tea.KeySpace:
		m.appendRunes([]rune{' '})
	case tea.KeyRunes:
		m.appendRunes(msg.Runes)
	}
	return nil
}

func (m *Model) appendRunes(runes []rune) {
	limit := len([]rune(m.sess.Reference()))
	for _, r := range runes {
		if len(m.typed) >= limit {
			break
		}
		m.typed = append(m.typed, r)
	}
	m.input()
	if len(m.typed) >= limit && m.phase == phaseRunning {
		m.finish()
	}
}

func (m *Model) input() {
	if err := m.sess.Input(string(m.typed)); err != nil {
		m.logger.Warn("input rejected", "err", err)
	}
}

func (m *Model) start() tea.Cmd {
	if m.phase == phaseFinished && m.nextText != nil {
		if text := m.nextText(); text != "" {
			if err := m.sess.SetReference(text); err != nil {
				m.logger.Warn("failed to replace text", "err", err)
			}
		}
	}
	if err := m.sess.Start(); err != nil {
		m.logger.Warn("failed to start test", "err", err)
		return nil
	}
	m.phase = phaseRunning
	m.typed = nil
	m.saveErr = nil
	m.gen++
	return tick(m.gen)
}

func tick(gen int) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != m.gen || m.phase != phaseRunning {
		return nil
	}
	_, rec, err := m.sess.Tick(m.ctx)
	if rec != nil {
		m.done(*rec, err)
		return nil
	}
	return tick(m.gen)
}

func (m *Model) finish() {
	rec, err := m.sess.End(m.ctx)
	if err != nil && rec.ID == "" {
		m.logger.Warn("failed to end test", "err", err)
		return
	}
	m.done(rec, err)
}

func (m *Model) done(rec model.SessionRecord, saveErr error) {
	m.phase = phaseFinished
	m.result = rec
	m.saveErr = saveErr
	m.history = append(m.history, rec)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.sess == nil {
		return ""
	}
	var body string
	switch m.phase {
	case phaseFinished:
		body = m.renderResult()
	default:
		body = m.renderTest()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return main + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(1, int(float64(m.width)*contentRatio))
}

func (m *Model) renderHeader() string {
	left := m.sess.Remaining()
	secs := int((left + time.Second - 1) / time.Second)
	return headerStyle.Render(fmt.Sprintf("Time %d:%02d   WPM %d   Accuracy %d%%   Errors %d",
		secs/60, secs%60, m.sess.WPM(), m.sess.Accuracy(), m.sess.Errors()))
}

func (m *Model) renderTest() string {
	reference := []rune(m.sess.Reference())
	cursor := -1
	if len(m.typed) < len(reference) {
		cursor = len(m.typed)
	}
	text := wrapCells(styleCells(reference, m.typed, cursor), m.contentWidth())
	if w := m.contentWidth(); w > 0 {
		text = lipgloss.NewStyle().Width(w).Render(text)
	}
	hint := "esc to finish early"
	if m.phase == phaseIdle {
		hint = "press enter to start"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), "", text, "", footerStyle.Render(hint))
}

func (m *Model) renderResult() string {
	s := m.result.Summary
	p := s.PsychologicalMetrics
	lines := []string{
		headerStyle.Render("Test complete"),
		"",
		fmt.Sprintf("%s %d   %s %d%%   %s %d   %s %ds",
			labelStyle.Render("WPM"), s.WPM,
			labelStyle.Render("Accuracy"), s.Accuracy,
			labelStyle.Render("Errors"), s.Errors,
			labelStyle.Render("Duration"), s.Duration),
		"",
		metricLine("Impulsivity", p.ImpulsivityScore),
		metricLine("Deliberation", p.DeliberationScore),
		metricLine("Cognitive load", p.CognitiveLoadScore),
		metricLine("Resilience", p.ResilienceScore),
		metricLine("Anxiety", p.AnxietyScore),
	}
	if len(s.ErrorWords) > 0 {
		words := make([]string, 0, resultTopWords)
		for i, ew := range s.ErrorWords {
			if i == resultTopWords {
				break
			}
			words = append(words, fmt.Sprintf("%s×%d", stats.WordLabel(ew.Word), ew.Count))
		}
		lines = append(lines, "", labelStyle.Render("Mistyped ")+strings.Join(words, "  "))
	}
	if m.saveErr != nil {
		lines = append(lines, "", errorStyle.Render("Not saved: "+m.saveErr.Error()))
	}
	lines = append(lines, "", footerStyle.Render("enter to restart · ctrl+c to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func metricLine(name string, value float64) string {
	return fmt.Sprintf("%s %8.2f", labelStyle.Render(fmt.Sprintf("%-15s", name)), value)
}

func (m *Model) renderFooter() string {
	reference := []rune(m.sess.Reference())
	progress := 0
	if len(reference) > 0 {
		progress = len(m.typed) * 100 / len(reference)
	}
	segments := []string{fmt.Sprintf("Progress %d%%", min(progress, 100))}
	if len(m.history) > 0 {
		last := m.history[len(m.history)-1].Summary
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", last.WPM, last.Accuracy))
		all := stats.SummaryMetrics(m.history)
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", all.AvgWPM, all.AvgAccuracy))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
