// Command tutor runs the lab tutor in the terminal against a remote
// execution service.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/domain/content"
	"github.com/GriffinCanCode/labmat/internal/domain/session"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/config"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/logging"
	"github.com/GriffinCanCode/labmat/internal/providers/executor"
	"github.com/GriffinCanCode/labmat/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flag.StringVar(&cfg.Executor.URL, "executor", cfg.Executor.URL, "Execution service URL")
	flag.StringVar(&cfg.Content.Dir, "content", cfg.Content.Dir, "Catalog directory (empty for the built-in catalog)")
	logPath := flag.String("log", filepath.Join(os.TempDir(), "labmat-tutor.log"), "Log file")
	flag.Parse()

	logger, err := logging.New(logging.FileConfig(*logPath, cfg.Logging.Level))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := content.Open(cfg.Content.Dir, logger.Component("content"))
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	client := executor.New(cfg.Executor, logger.Component("executor"))
	coordinator := session.New(store, client,
		session.WithLogger(logger.Logger),
		session.WithKeys(tui.Bindings()),
		session.WithSidebarOpen(cfg.UI.SidebarOpen),
		session.WithServiceHint(client.URL()),
	)

	model := tui.New(coordinator)
	defer model.Close()

	logger.Info("Starting tutor", zap.String("executor", client.URL()))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tutor: %w", err)
	}
	return nil
}
