// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/config"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/ui/term"
)

// runTUI starts the full-screen terminal. Config file changes are applied
// while it runs when configPath is set.
func runTUI(ctx context.Context, cfg *config.Config, configPath string, log *logging.Logger, opts ...AppOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := term.NewDisplay(cfg.UI.Theme)

	var program *tea.Program
	notify := func(msg tea.Msg) {
		if program != nil {
			// Effects fire inside Update; Send would block the event loop.
			go program.Send(msg)
		}
	}

	opts = append(opts,
		WithThemeHandler(display.SetTheme),
		WithAchievementHandler(func(name string) {
			notify(term.StatusMsg("achievement unlocked: " + name))
		}),
		WithMarkdown(markdownStyle(os.Stdout, cfg.UI.Theme)),
	)
	app, err := NewApp(cfg, log, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	s := app.NewSession(ctx, display)
	if err := s.Restore(ctx); err != nil {
		log.Warn("starting with empty history", zap.Error(err))
	}
	s.Welcome()

	program = tea.NewProgram(term.New(s, display), tea.WithAltScreen(), tea.WithContext(ctx))

	if configPath != "" {
		go watchConfig(ctx, app, configPath, log, notify)
	}

	_, runErr := program.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}

	if err := s.Close(context.WithoutCancel(ctx)); err != nil {
		log.Warn("failed to save session", zap.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return nil
}

// watchConfig reloads the app on config changes until ctx ends.
func watchConfig(ctx context.Context, app *App, path string, log *logging.Logger, notify func(tea.Msg)) {
	err := config.Watch(ctx, path, func(next *config.Config, err error) {
		if err != nil {
			log.Warn("ignoring invalid config change", zap.String("path", path), zap.Error(err))
			notify(term.StatusMsg("config error: " + err.Error()))
			return
		}
		app.Reload(next)
		notify(term.StatusMsg("config reloaded"))
	})
	if err != nil && ctx.Err() == nil {
		log.Warn("config watch stopped", zap.String("path", path), zap.Error(err))
	}
}
