package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"TrackBets/internal/di"
	"TrackBets/internal/handler/tui"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/config"
	"TrackBets/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "trackbets",
	Short: "TrackBets - should you buy, sell or hold?",
	Long: `TrackBets walks you from a ticker symbol to an AI verdict.

Run without arguments to start the interactive terminal app.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(analyzeCmd, searchCmd, healthCmd, logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config and wires the client. The returned cleanup must
// always be called.
func setup() (*di.Client, func(), error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	c, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("client initialization failed: %w", err)
	}
	return c, cleanup, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	c, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := commandContext(cmd)
	defer stop()

	user, err := c.Auth.Current(ctx)
	if err != nil {
		c.Log.Warn("could not load saved account", logger.Error(err))
	}

	nav := usecase.NewNavigator(
		usecase.WithObserver(c.Tracker),
		usecase.WithRunner(c.Analyzer),
		usecase.WithUser(user),
	)

	opts := []tui.Option{
		tui.WithAuth(c.Auth),
		tui.WithTracker(c.Tracker),
		tui.WithLogger(c.Log),
		tui.WithContext(ctx),
	}
	if c.Watchers != nil {
		opts = append(opts, tui.WithWatcher(c.Watchers))
	}

	model := tui.New(nav, c.Analyzer, tui.Config{
		Theme:           c.Config.UI.Theme,
		LoadingDuration: c.Config.LoadingDuration(),
		ShakeFrames:     c.Config.UI.ShakeFrames,
	}, opts...)

	c.Log.Info("tui started", logger.String("api", c.Remote.BaseURL()))
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
