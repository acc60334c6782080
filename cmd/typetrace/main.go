// Package main provides the CLI entrypoint for typetrace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typetrace/internal/config"
	"github.com/verte-zerg/typetrace/internal/generator"
	"github.com/verte-zerg/typetrace/internal/identity"
	"github.com/verte-zerg/typetrace/internal/logging"
	"github.com/verte-zerg/typetrace/internal/model"
	"github.com/verte-zerg/typetrace/internal/session"
	"github.com/verte-zerg/typetrace/internal/store"
	"github.com/verte-zerg/typetrace/internal/tui"
	"github.com/verte-zerg/typetrace/internal/wordlist"
)

const (
	defaultDuration     = 30
	defaultWords        = 25
	defaultCaps         = 0.0
	defaultPunct        = 0.0
	defaultFocusFactor  = 0.5
	defaultLogLevel     = "warn"
	focusPatternLimit   = 50
	defaultCurveWindow  = 10
	defaultStatsTopWord = 10
)

const defaultPunctSet = ".,!?;:"

var (
	globalUser     string
	globalDB       string
	globalLogLevel string

	testText        string
	testDuration    int
	testWordList    string
	testWords       int
	testCaps        float64
	testPunct       float64
	testPunctSet    string
	testFocusErrors bool
	testFocusFactor float64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typetrace",
		Short:         "Timed typing test with behavioral metrics",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTestCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalUser, "user", "", "user id sessions are stored under (default: anonymous id)")
	rootCmd.PersistentFlags().StringVar(&globalDB, "db", "", "database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", defaultLogLevel, "log level: debug, info, warn, error")

	rootCmd.Flags().StringVar(&testText, "text", "", "reference text to type")
	rootCmd.Flags().IntVar(&testDuration, "duration", defaultDuration, "test length in seconds")
	rootCmd.Flags().StringVar(&testWordList, "wordlist", "", "generate text from this word list (one word per line)")
	rootCmd.Flags().IntVar(&testWords, "words", defaultWords, "words per generated text")
	rootCmd.Flags().Float64Var(&testCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	rootCmd.Flags().Float64Var(&testPunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	rootCmd.Flags().StringVar(&testPunctSet, "punct-set", defaultPunctSet, "punctuation set")
	rootCmd.Flags().BoolVar(&testFocusErrors, "focus-errors", false, "bias generated text toward words you mistyped before")
	rootCmd.Flags().Float64Var(&testFocusFactor, "focus-factor", defaultFocusFactor, "extra weight per past error of a word")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newShowCmd())

	return rootCmd
}

// loadFileConfig reads .env, the TOML file and TYPETRACE_* variables, and
// applies the shared persistent flags that were not set explicitly.
func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg, err = config.ApplyEnv(fileCfg)
	if err != nil {
		return config.FileConfig{}, err
	}
	applyStringConfig(cmd, "user", &globalUser, fileCfg.Test.User)
	applyStringConfig(cmd, "db", &globalDB, fileCfg.Test.DBPath)
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	return fileCfg, nil
}

func openStore(logger *slog.Logger) (*store.Store, func(), error) {
	path := globalDB
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("opened database", "path", path)
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "err", cerr)
		}
	}, nil
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "text", &testText, fileCfg.Test.Text)
	applyIntConfig(cmd, "duration", &testDuration, fileCfg.Test.Duration)
	applyStringConfig(cmd, "wordlist", &testWordList, fileCfg.Test.WordList)
	applyIntConfig(cmd, "words", &testWords, fileCfg.Test.Words)
	applyFloatConfig(cmd, "caps", &testCaps, fileCfg.Test.CapsPct)
	applyFloatConfig(cmd, "punct", &testPunct, fileCfg.Test.PunctPct)
	applyStringConfig(cmd, "punct-set", &testPunctSet, fileCfg.Test.PunctSet)
	applyBoolConfig(cmd, "focus-errors", &testFocusErrors, fileCfg.Test.FocusErrors)
	applyFloatConfig(cmd, "focus-factor", &testFocusFactor, fileCfg.Test.FocusFactor)

	cfg := model.Config{
		Text:         testText,
		Duration:     time.Duration(testDuration) * time.Second,
		UserID:       globalUser,
		WordListPath: testWordList,
		Words:        testWords,
		CapsPct:      testCaps,
		PunctPct:     testPunct,
		PunctSet:     testPunctSet,
		FocusErrors:  testFocusErrors,
		FocusFactor:  testFocusFactor,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, globalLogLevel)
	ctx := context.Background()

	userID, err := identity.Resolve(cfg.UserID, config.DefaultIdentityPath())
	if err != nil {
		return fmt.Errorf("failed to resolve identity: %w", err)
	}
	cfg.UserID = userID

	st, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var words []string
	if cfg.Text == "" && cfg.WordListPath != "" {
		words, err = wordlist.LoadWords(cfg.WordListPath)
		if err != nil {
			return fmt.Errorf("failed to load word list %s: %w", cfg.WordListPath, err)
		}
	}
	patterns := func() []model.ErrorPattern {
		found, err := st.ErrorPatterns(ctx, userID, focusPatternLimit)
		if err != nil {
			logger.Warn("failed to load error patterns", "err", err)
		}
		return found
	}
	reference, next := referenceSource(cfg, words, generator.New(), patterns)

	history, err := st.ListSessions(ctx, model.StatsConfig{UserID: userID})
	if err != nil {
		logger.Warn("failed to load session history", "err", err)
	}

	uiLogger, held := logging.NewHeld(globalLogLevel)
	defer func() {
		if err := held.Flush(os.Stderr); err != nil {
			logger.Warn("failed to flush log", "err", err)
		}
	}()
	sess := session.New(session.Options{
		Reference: reference,
		Duration:  cfg.Duration,
		UserID:    userID,
		Saver:     st,
		Logger:    uiLogger,
	})
	ui := tui.NewModel(tui.Options{
		Session:  sess,
		NextText: next,
		History:  history,
		Logger:   uiLogger,
		Context:  ctx,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// referenceSource picks the first reference text and, for generated texts, a
// generator for the texts of later runs. An explicit text wins over a word
// list; without either the built-in prompt is used.
func referenceSource(cfg model.Config, words []string, gen *generator.Generator, patterns func() []model.ErrorPattern) (string, func() string) {
	if text := strings.TrimSpace(cfg.Text); text != "" {
		return text, nil
	}
	if len(words) == 0 {
		return generator.DefaultText, nil
	}
	opts := generator.Options{
		Count:    cfg.Words,
		CapsPct:  cfg.CapsPct,
		PunctPct: cfg.PunctPct,
		PunctSet: []rune(cfg.PunctSet),
	}
	next := func() string {
		if cfg.FocusErrors && patterns != nil {
			if found := patterns(); len(found) > 0 {
				return gen.FocusText(words, found, cfg.FocusFactor, opts)
			}
		}
		return gen.Text(words, opts)
	}
	return next(), next
}

func validateConfig(cfg model.Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctPct > 0 && cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if cfg.FocusFactor < 0 {
		return fmt.Errorf("--focus-factor must be >= 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
