package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/wikirag/wikirag/internal/app"
	"github.com/wikirag/wikirag/internal/config"
	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/session"
	"github.com/wikirag/wikirag/internal/tui"
)

// runCLI initializes and starts the interactive CLI with Bubble Tea TUI.
func runCLI(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	model, err := tui.New(ctx, a.Flow, a.Sessions, startupStyle(cfg, logger), logger)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

// startupStyle returns the persisted style from the last session,
// falling back to the configured default.
func startupStyle(cfg *config.Config, logger log.Logger) string {
	style, err := session.LoadStyle()
	if err != nil {
		logger.Warn("failed to load persisted style", "error", err)
		return cfg.Style
	}
	if style == "" {
		return cfg.Style
	}
	return style
}
