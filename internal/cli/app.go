// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/config"
	"github.com/jeranaias/deskshell/internal/i18n"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/portfolio"
	"github.com/jeranaias/deskshell/internal/session"
	"github.com/jeranaias/deskshell/internal/storage"
)

// =============================================================================
// APP
// =============================================================================

// App holds the process-wide pieces every session shares: the command
// registry, the alias table, the message catalog, the store and the
// desktop that receives command effects.
type App struct {
	log      *logging.Logger
	catalog  *i18n.Catalog
	store    storage.Store
	registry *commands.Registry
	aliases  *commands.AliasTable
	desktop  *portfolio.Desktop
	host     *portfolio.Host
	user     string

	mu            sync.Mutex
	cfg           *config.Config
	configAliases map[string]string
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	user          string
	store         storage.Store
	markdownStyle string
	weather       *portfolio.WeatherClient
	onTheme       func(name string)
	onAchievement func(name string)
}

// WithUser selects the persistence key. It defaults to the configured
// storage key.
func WithUser(user string) AppOption {
	return func(o *appOptions) { o.user = user }
}

// WithStore uses store instead of opening the configured backend.
func WithStore(store storage.Store) AppOption {
	return func(o *appOptions) { o.store = store }
}

// WithMarkdown sets the glamour style used by `about`.
func WithMarkdown(style string) AppOption {
	return func(o *appOptions) { o.markdownStyle = style }
}

// WithWeatherClient overrides the `weather` backend.
func WithWeatherClient(c *portfolio.WeatherClient) AppOption {
	return func(o *appOptions) { o.weather = c }
}

// WithThemeHandler is called whenever the desktop theme changes.
func WithThemeHandler(fn func(name string)) AppOption {
	return func(o *appOptions) { o.onTheme = fn }
}

// WithAchievementHandler is called when an achievement first unlocks.
func WithAchievementHandler(fn func(name string)) AppOption {
	return func(o *appOptions) { o.onAchievement = fn }
}

// NewApp builds the command set from cfg. A store that fails to open is
// logged and replaced by an in-memory one; duplicate command names are
// fatal.
func NewApp(cfg *config.Config, log *logging.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{markdownStyle: "dark"}
	for _, opt := range opts {
		opt(&o)
	}
	log = logging.OrNop(log)

	a := &App{
		log:      log.Component("app"),
		catalog:  newCatalog(cfg.Shell, log),
		registry: commands.NewRegistry(),
		aliases:  commands.NewAliasTable(),
		user:     o.user,
		cfg:      cfg,
	}
	if a.user == "" {
		a.user = cfg.Storage.Key
	}

	a.store = o.store
	if a.store == nil {
		a.store = openStore(cfg.Storage, log)
	}

	if err := commands.RegisterBuiltins(a.registry, a.aliases, a.catalog); err != nil {
		a.log.Error("failed to register built-in commands", zap.Error(err))
		return nil, withCode(ExitStartupError, err)
	}

	a.desktop = portfolio.NewDesktop(cfg.UI.Theme,
		portfolio.OnTheme(o.onTheme),
		portfolio.OnAchievement(o.onAchievement),
		portfolio.WithDesktopLogger(log),
	)

	hostOpts := []portfolio.Option{
		portfolio.WithDesktop(a.desktop),
		portfolio.WithMarkdownStyle(o.markdownStyle),
		portfolio.WithLogger(log),
	}
	if o.weather != nil {
		hostOpts = append(hostOpts, portfolio.WithWeather(o.weather))
	}
	host, err := portfolio.Register(a.registry, hostOpts...)
	if err != nil {
		a.log.Error("failed to register portfolio commands", zap.Error(err))
		return nil, withCode(ExitStartupError, err)
	}
	a.host = host

	a.applyAliases(cfg.Aliases)

	a.log.Debug("app ready",
		zap.Int("commands", a.registry.Len()),
		zap.Int("aliases", a.aliases.Len()),
		zap.String("user", a.user))
	return a, nil
}

func newCatalog(shell config.ShellConfig, log *logging.Logger) *i18n.Catalog {
	catalog := i18n.New(shell.Locale)
	if shell.LocaleDir == "" {
		return catalog
	}
	if err := catalog.LoadDir(shell.LocaleDir); err != nil {
		log.Warn("failed to load locale files",
			zap.String("dir", shell.LocaleDir),
			zap.Error(err))
	}
	// Files may add a closer match for the requested locale.
	catalog.SetLocale(shell.Locale)
	return catalog
}

func openStore(sc config.StorageConfig, log *logging.Logger) storage.Store {
	storeCfg, err := sc.StoreConfig()
	if err == nil {
		var store storage.Store
		if store, err = storage.Open(storeCfg, log); err == nil {
			return store
		}
	}
	log.Warn("storage unavailable, history and aliases will not persist",
		zap.String("backend", sc.Backend),
		zap.Error(err))
	return storage.NewMemoryStore()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Registry returns the shared command registry.
func (a *App) Registry() *commands.Registry { return a.registry }

// Aliases returns the shared alias table.
func (a *App) Aliases() *commands.AliasTable { return a.aliases }

// Desktop returns the effect sink.
func (a *App) Desktop() *portfolio.Desktop { return a.desktop }

// Catalog returns the message catalog.
func (a *App) Catalog() *i18n.Catalog { return a.catalog }

// User returns the persistence key.
func (a *App) User() string { return a.user }

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// =============================================================================
// SESSIONS
// =============================================================================

// SessionConfig derives a session configuration from the active config.
func (a *App) SessionConfig() session.Config {
	cfg := a.Config()

	sc := session.DefaultConfig()
	sc.Prompt = cfg.Shell.Prompt
	sc.HistoryCap = cfg.Shell.HistoryCap
	sc.Scrollback = cfg.Shell.Scrollback
	sc.Echo = cfg.Shell.Echo
	sc.UserKey = a.user
	return sc
}

// NewSession creates a session writing to surface, wired to the shared
// registry, aliases, store and desktop. Restore it before use.
func (a *App) NewSession(ctx context.Context, surface session.Surface) *session.Session {
	return session.New(a.SessionConfig(), a.registry, a.aliases,
		session.WithSurface(surface),
		session.WithEffects(a.desktop),
		session.WithStore(a.store),
		session.WithTranslator(a.catalog),
		session.WithLogger(a.log),
		session.WithContext(ctx),
		session.WithAliasFilter(a.isUserAlias),
	)
}

// Inspect runs a read-only command such as `history` or `alias` against s
// without recording it in the session.
func (a *App) Inspect(ctx context.Context, s *session.Session, line string) (commands.Result, error) {
	parsed, err := commands.Parse(a.aliases.Resolve(line))
	if err != nil {
		return commands.Result{}, err
	}
	return a.registry.Dispatch(ctx, commands.Invocation{
		ParsedCommand: parsed,
		Raw:           line,
		SessionID:     s.ID(),
		History:       s.History(),
	})
}

// =============================================================================
// RELOAD
// =============================================================================

// Reload applies a changed configuration: config aliases are redefined,
// and the locale and theme switch. Shell sizes and the storage backend
// only apply to new sessions.
func (a *App) Reload(next *config.Config) {
	a.mu.Lock()
	prevTheme := a.cfg.UI.Theme
	a.cfg = next
	a.mu.Unlock()

	a.applyAliases(next.Aliases)
	tag := a.catalog.SetLocale(next.Shell.Locale)

	if next.UI.Theme != prevTheme && next.UI.Theme != a.desktop.Theme() {
		a.desktop.Apply(commands.Effect{Kind: commands.EffectSetTheme, Value: next.UI.Theme})
	}

	a.log.Info("config reloaded",
		zap.Int("aliases", len(next.Aliases)),
		zap.String("locale", tag.String()),
		zap.String("theme", next.UI.Theme))
}

// applyAliases replaces the aliases that came from the config file.
// Aliases the user redefined since are left alone, as are user aliases
// whose token the config now claims.
func (a *App) applyAliases(defs map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for token, expansion := range a.configAliases {
		if _, keep := defs[token]; keep {
			continue
		}
		if current, ok := a.aliases.Lookup(token); ok && current == expansion {
			a.aliases.Remove(token)
		}
	}

	applied := make(map[string]string, len(defs))
	for token, expansion := range defs {
		if current, ok := a.aliases.Lookup(token); ok {
			prev, fromConfig := a.configAliases[token]
			if !fromConfig || current != prev {
				continue
			}
		}
		if err := a.aliases.Define(token, expansion); err != nil {
			a.log.Warn("skipping config alias", zap.String("token", token), zap.Error(err))
			continue
		}
		applied[token] = expansion
	}
	a.configAliases = applied
}

// isUserAlias reports whether token is not a config alias the user left
// as configured. Only user aliases are persisted.
func (a *App) isUserAlias(token, expansion string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	configured, ok := a.configAliases[token]
	return !ok || configured != expansion
}

// Close releases the store and flushes the log.
func (a *App) Close() error {
	err := a.store.Close()
	if err != nil {
		err = fmt.Errorf("close store: %w", err)
	}
	_ = a.log.Sync()
	return err
}
