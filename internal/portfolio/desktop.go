// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/logging"
)

// Desktop is the simulated window manager. It applies the side effects
// commands request: opening apps, switching themes and unlocking
// achievements.
type Desktop struct {
	mu           sync.Mutex
	theme        string
	open         []string
	achievements []string

	onTheme       func(name string)
	onAchievement func(name string)
	log           *logging.Logger
}

// DesktopOption customizes a Desktop.
type DesktopOption func(*Desktop)

// OnTheme registers a callback run after the theme changes.
func OnTheme(fn func(name string)) DesktopOption {
	return func(d *Desktop) { d.onTheme = fn }
}

// OnAchievement registers a callback run when an achievement unlocks for
// the first time.
func OnAchievement(fn func(name string)) DesktopOption {
	return func(d *Desktop) { d.onAchievement = fn }
}

// WithDesktopLogger sets the desktop's logger.
func WithDesktopLogger(log *logging.Logger) DesktopOption {
	return func(d *Desktop) { d.log = log }
}

// NewDesktop creates a desktop showing theme.
func NewDesktop(theme string, opts ...DesktopOption) *Desktop {
	d := &Desktop{theme: theme}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logging.OrNop(d.log).Component("desktop")
	return d
}

// Apply implements session.EffectSink.
func (d *Desktop) Apply(effect commands.Effect) {
	d.log.Debug("effect", zap.Stringer("kind", effect.Kind), zap.String("value", effect.Value))

	switch effect.Kind {
	case commands.EffectOpenApp:
		d.mu.Lock()
		d.open = append(slices.DeleteFunc(d.open, func(a string) bool { return a == effect.Value }), effect.Value)
		d.mu.Unlock()

	case commands.EffectSetTheme:
		d.mu.Lock()
		d.theme = effect.Value
		fn := d.onTheme
		d.mu.Unlock()
		if fn != nil {
			fn(effect.Value)
		}

	case commands.EffectAchievement:
		d.mu.Lock()
		first := !slices.Contains(d.achievements, effect.Value)
		if first {
			d.achievements = append(d.achievements, effect.Value)
		}
		fn := d.onAchievement
		d.mu.Unlock()
		if first {
			d.log.Info("achievement unlocked", zap.String("achievement", effect.Value))
			if fn != nil {
				fn(effect.Value)
			}
		}
	}
}

// Theme returns the current theme.
func (d *Desktop) Theme() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.theme
}

// OpenApps returns open apps, most recently focused last.
func (d *Desktop) OpenApps() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.open)
}

// Achievements returns unlocked achievements in unlock order.
func (d *Desktop) Achievements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.achievements)
}
