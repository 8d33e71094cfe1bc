package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/habitgrid/internal/api"
	"github.com/existflow/habitgrid/internal/config"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/tracker"
	"github.com/existflow/habitgrid/internal/tui"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	apiURL     string
	userID     int64

	// cfg is loaded once per invocation by the root pre-run hook
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "habitgrid",
	Short: "HabitGrid - Track daily habits in your terminal",
	Long: `HabitGrid shows your habits against the days of a month and lets you
mark each day done, with streaks shading in as they grow.

Run 'habitgrid' without arguments to launch the interactive grid.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
			loaded = config.FromEnv()
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("api-url") {
			cfg.APIURL = apiURL
			configChanged = true
		}
		if cmd.Flags().Changed("user") {
			cfg.UserID = userID
			configChanged = true
		}

		if configChanged {
			if err := cfg.Validate(); err != nil {
				return err
			}
			// Save config if changed via CLI flags
			if err := cfg.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("HabitGrid started", logger.F("command", cmd.Name()), logger.F("api", cfg.APIURL))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("the grid needs a terminal, try 'habitgrid list'")
		}

		t := newTracker()
		// An unreachable API shows up in the status bar; the grid still opens
		if err := t.Refresh(cmd.Context()); err != nil {
			logger.Warn("Initial refresh failed", logger.F("error", err))
		}

		logger.Info("Launching TUI")
		m := tui.NewModel(t, tui.Options{
			Timeout:         cfg.Timeout,
			RefreshInterval: cfg.RefreshInterval,
			ConfirmRemove:   cfg.ConfirmRemove,
		})
		defer m.Stop()

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("HabitGrid exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func newClient() *api.Client {
	return api.NewClient(cfg.APIURL, cfg.Timeout)
}

func newTracker() *tracker.Tracker {
	return tracker.New(newClient(), cfg.UserID)
}

// interactive reports whether prompts can be shown
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// API flags
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the habits API (saved to config)")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "User id to act for (saved to config)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(configCmd)
}
