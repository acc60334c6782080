// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/store"
)

// DefaultTopWords is the number of error words reported when unset.
const DefaultTopWords = 10

const terminalWidthBackup = 80

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions      []model.SessionRecord       `json:"sessions"`
	ErrorPatterns []model.ErrorPattern        `json:"errorPatterns"`
	Psychology    model.PsychologicalAverages `json:"psychology"`
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	top := cfg.TopWords
	if top <= 0 {
		top = DefaultTopWords
	}
	patterns, err := st.ErrorPatterns(ctx, cfg.UserID, top)
	if err != nil {
		return Report{}, err
	}
	psych, err := st.PsychologicalAverages(ctx, cfg.UserID)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:      sessions,
		ErrorPatterns: patterns,
		Psychology:    psych,
	}, nil
}

// Render prints the full plain-text report.
func (r Report) Render(w io.Writer, window, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderCurves(w, r.Sessions, window, width); err != nil {
		return err
	}
	if err := RenderErrorPatterns(w, r.ErrorPatterns); err != nil {
		return err
	}
	return RenderPsychology(w, r.Psychology, r.Sessions, window, width)
}

// TerminalWidth returns the width of w when it is a terminal, or a fallback.
func TerminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
