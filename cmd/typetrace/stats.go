package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typetrace/internal/config"
	"github.com/verte-zerg/typetrace/internal/identity"
	"github.com/verte-zerg/typetrace/internal/logging"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/stats"
	"github.com/verte-zerg/typetrace/internal/statsui"
	"github.com/verte-zerg/typetrace/internal/store"
)

var (
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsTop         int
	statsPlain       bool
	statsJSON        bool
	statsAllUsers    bool

	showFormat string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", defaultStatsTopWord, "number of error words to list")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	cmd.Flags().BoolVar(&statsJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&statsAllUsers, "all-users", false, "include sessions of every user")
	return cmd
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	logger := logging.New(os.Stderr, globalLogLevel)
	cfg := model.StatsConfig{
		Since:       since,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		TopWords:    statsTop,
	}
	if !statsAllUsers {
		userID, err := identity.Resolve(globalUser, config.DefaultIdentityPath())
		if err != nil {
			return fmt.Errorf("failed to resolve identity: %w", err)
		}
		cfg.UserID = userID
	}

	st, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	if statsPlain || statsJSON {
		report, err := stats.BuildReport(context.Background(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if statsJSON {
			return writeJSON(out, report)
		}
		return report.Render(out, cfg.CurveWindow, stats.TerminalWidth(out))
	}

	ui := statsui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one stored session",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
	cmd.Flags().StringVar(&showFormat, "format", "json", "output format: json or text")
	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	if showFormat != "json" && showFormat != "text" {
		return fmt.Errorf("--format must be json or text")
	}
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	logger := logging.New(os.Stderr, globalLogLevel)
	st, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := st.GetSession(context.Background(), args[0])
	if errors.Is(err, store.ErrSessionNotFound) {
		return fmt.Errorf("session %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if showFormat == "text" {
		return stats.RenderSession(cmd.OutOrStdout(), rec)
	}
	return writeJSON(cmd.OutOrStdout(), rec)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
