// Package command wires the tot command line.
package command

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/token-overlay-tui/internal/app"
	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/logger"
	"github.com/j-veylop/token-overlay-tui/internal/services"
	"github.com/j-veylop/token-overlay-tui/internal/tokenizer"
	"github.com/j-veylop/token-overlay-tui/internal/version"
)

// AppName is the binary name.
const AppName = "tot"

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command. Without a subcommand it runs the
// overlay UI against the capture directory.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Token overlay for a captured chat page",
		Long: `tot watches a capture directory holding a chat page snapshot (page.html)
and its input events (events.jsonl), and overlays the prompt and output
token counts of the conversation on the terminal.

Configuration is read from .env files and environment variables
(CAPTURE_DIR, SELECTORS_PATH, LOG_PATH, LOG_LEVEL, TOKENIZER_ENCODING,
REFRESH_INTERVAL, FRAME_INTERVAL, TOKEN_ALERT_THRESHOLD); flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOverlay,
	}

	cmd.Version = version.GetVersion()
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.Flags().String("dir", "", "capture directory (overrides CAPTURE_DIR)")
	cmd.Flags().String("selectors", "", "selector profile YAML (overrides SELECTORS_PATH)")
	cmd.Flags().String("encoding", "", "tokenizer encoding (overrides TOKENIZER_ENCODING)")
	cmd.Flags().Int("threshold", -1, "desktop alert threshold in tokens, 0 disables (overrides TOKEN_ALERT_THRESHOLD)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	cmd.AddCommand(
		NewCountCmd(),
		NewInspectCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// loadConfig reads the environment configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.CaptureDir = dir
	}
	if path, _ := cmd.Flags().GetString("selectors"); path != "" {
		cfg.SelectorsPath = path
	}
	if enc, _ := cmd.Flags().GetString("encoding"); enc != "" {
		cfg.TokenizerEncoding = enc
	}
	if threshold, _ := cmd.Flags().GetInt("threshold"); threshold >= 0 {
		cfg.AlertThreshold = threshold
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOverlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closeLog, err := logger.SetupFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	counter, err := tokenizer.New(cfg.TokenizerEncoding)
	if err != nil {
		return err
	}

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	logger.Info("starting overlay",
		"page", cfg.PagePath(),
		"events", cfg.EventsPath(),
		"encoding", counter.Encoding(),
		"threshold", cfg.AlertThreshold,
		"version", version.Info())

	model := app.NewModel(cfg, svcManager, counter)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return err
		},
	}
}
