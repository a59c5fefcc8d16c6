// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/util"
)

// CategoryPortfolio groups the portfolio verbs in help.
const CategoryPortfolio = "Portfolio"

const (
	maxSleep      = 60 * time.Second
	markdownWidth = 72
)

// Themes are the accepted `theme` arguments.
var Themes = []string{"dark", "light", "retro"}

// =============================================================================
// HOST
// =============================================================================

// Host provides the portfolio verbs.
type Host struct {
	profile       *Profile
	weather       *WeatherClient
	desktop       *Desktop
	markdownStyle string
	log           *logging.Logger
}

// Option customizes a Host.
type Option func(*Host)

// WithProfile replaces the bundled profile.
func WithProfile(p *Profile) Option {
	return func(h *Host) { h.profile = p }
}

// WithWeather sets the weather client. Without one, weather uses
// DefaultWeatherURL at one request per second.
func WithWeather(c *WeatherClient) Option {
	return func(h *Host) { h.weather = c }
}

// WithDesktop lets `theme` report the current theme.
func WithDesktop(d *Desktop) Option {
	return func(h *Host) { h.desktop = d }
}

// WithMarkdownStyle selects the glamour style used by `about`, such as
// "dark", "light" or "notty".
func WithMarkdownStyle(style string) Option {
	return func(h *Host) { h.markdownStyle = style }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(h *Host) { h.log = log }
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{markdownStyle: "dark"}
	for _, opt := range opts {
		opt(h)
	}
	if h.profile == nil {
		h.profile = DefaultProfile()
	}
	if h.weather == nil {
		h.weather = NewWeatherClient(DefaultWeatherURL, 1)
	}
	h.log = logging.OrNop(h.log).Component("portfolio")
	return h
}

// Profile returns the profile being presented.
func (h *Host) Profile() *Profile { return h.profile }

// Register creates a Host and registers its verbs.
func Register(reg *commands.Registry, opts ...Option) (*Host, error) {
	h := New(opts...)
	if err := h.Register(reg); err != nil {
		return nil, err
	}
	return h, nil
}

// Register registers about, projects, open, theme, contact, whoami, sudo,
// weather and sleep.
func (h *Host) Register(reg *commands.Registry) error {
	return reg.RegisterAll(
		commands.CommandSpec{
			Name:     "about",
			Summary:  "Who is behind this desktop",
			Usage:    "about",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.about),
		},
		commands.CommandSpec{
			Name:       "projects",
			Aliases:    []string{"ls"},
			Summary:    "List projects, or show one",
			Usage:      "projects [name]",
			Category:   CategoryPortfolio,
			Handler:    commands.HandlerFunc(h.projects),
			MaxArgs:    1,
			Completion: commands.CompletionFunc(func(commands.CompletionContext) []string { return h.profile.Slugs() }),
		},
		commands.CommandSpec{
			Name:       "open",
			Summary:    "Open a desktop app",
			Usage:      "open <app>",
			Category:   CategoryPortfolio,
			Handler:    commands.HandlerFunc(h.open),
			MinArgs:    1,
			MaxArgs:    1,
			Completion: commands.CompletionFunc(func(commands.CompletionContext) []string { return h.profile.Apps }),
		},
		commands.CommandSpec{
			Name:       "theme",
			Summary:    "Switch the desktop theme",
			Usage:      "theme [dark|light|retro]",
			Category:   CategoryPortfolio,
			Handler:    commands.HandlerFunc(h.theme),
			MaxArgs:    1,
			Completion: commands.PositionalCompletion{Themes},
		},
		commands.CommandSpec{
			Name:     "contact",
			Summary:  "How to get in touch",
			Usage:    "contact",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.contact),
		},
		commands.CommandSpec{
			Name:     "whoami",
			Summary:  "Print the current user",
			Usage:    "whoami",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.whoami),
		},
		commands.CommandSpec{
			Name:     "sudo",
			Summary:  "Nice try",
			Usage:    "sudo <command>",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.sudo),
			MaxArgs:  commands.Unbounded,
			Hidden:   true,
		},
		commands.CommandSpec{
			Name:     "weather",
			Summary:  "Current weather for a city",
			Usage:    "weather <city>",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.weatherCmd),
			MinArgs:  1,
			MaxArgs:  commands.Unbounded,
			Async:    true,
		},
		commands.CommandSpec{
			Name:     "sleep",
			Summary:  "Wait for a number of seconds (Ctrl+C to stop)",
			Usage:    "sleep <seconds>",
			Category: CategoryPortfolio,
			Handler:  commands.HandlerFunc(h.sleep),
			MinArgs:  1,
			MaxArgs:  1,
			Async:    true,
		},
	)
}

// =============================================================================
// VERBS
// =============================================================================

func (h *Host) about(context.Context, commands.Invocation) (commands.Result, error) {
	var res commands.Result

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(h.markdownStyle),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return res, fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(h.profile.About)
	if err != nil {
		return res, fmt.Errorf("render about: %w", err)
	}

	for _, line := range strings.Split(strings.Trim(out, "\n"), "\n") {
		res.Print(commands.StyleNormal, strings.TrimRight(line, " "))
	}
	return res, nil
}

func (h *Host) projects(_ context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result

	if len(inv.Args) == 1 {
		p, ok := h.profile.Project(inv.Args[0])
		if !ok {
			res.Printf(commands.StyleError, "projects: no project named '%s'", inv.Args[0])
			return res, nil
		}
		res.Print(commands.StyleInfo, p.Name)
		res.Print(commands.StyleNormal, p.Summary)
		if len(p.Tags) > 0 {
			res.Print(commands.StyleMuted, "tags: "+strings.Join(p.Tags, ", "))
		}
		if p.URL != "" {
			res.Print(commands.StyleNormal, p.URL)
		}
		return res, nil
	}

	width := 0
	for _, p := range h.profile.Projects {
		width = max(width, util.StringWidth(p.Slug))
	}
	for _, p := range h.profile.Projects {
		res.Printf(commands.StyleNormal, "  %s  %s", util.PadWidth(p.Slug, width), p.Summary)
	}
	res.Print(commands.StyleMuted, "Type 'projects <name>' for details.")
	return res, nil
}

func (h *Host) open(_ context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result

	app := inv.Args[0]
	if !h.profile.HasApp(app) {
		res.Printf(commands.StyleError, "open: no app named '%s' (try: %s)", app, strings.Join(h.profile.Apps, ", "))
		return res, nil
	}
	res.Printf(commands.StyleSuccess, "opening %s...", app)
	res.Emit(commands.EffectOpenApp, app)
	return res, nil
}

func (h *Host) theme(_ context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result

	if len(inv.Args) == 0 {
		if h.desktop != nil {
			res.Printf(commands.StyleNormal, "current theme: %s", h.desktop.Theme())
		}
		res.Printf(commands.StyleMuted, "available: %s", strings.Join(Themes, ", "))
		return res, nil
	}

	name := strings.ToLower(inv.Args[0])
	valid := false
	for _, t := range Themes {
		valid = valid || t == name
	}
	if !valid {
		res.Printf(commands.StyleError, "theme: unknown theme '%s' (available: %s)", inv.Args[0], strings.Join(Themes, ", "))
		return res, nil
	}

	res.Printf(commands.StyleSuccess, "theme set to %s", name)
	res.Emit(commands.EffectSetTheme, name)
	return res, nil
}

func (h *Host) contact(context.Context, commands.Invocation) (commands.Result, error) {
	var res commands.Result
	c := h.profile.Contact
	if c.Email != "" {
		res.Print(commands.StyleNormal, "email   "+c.Email)
	}
	if c.GitHub != "" {
		res.Print(commands.StyleNormal, "github  "+c.GitHub)
	}
	if c.Site != "" {
		res.Print(commands.StyleNormal, "site    "+c.Site)
	}
	return res, nil
}

func (h *Host) whoami(context.Context, commands.Invocation) (commands.Result, error) {
	var res commands.Result
	res.Print(commands.StyleNormal, h.profile.User)
	return res, nil
}

func (h *Host) sudo(_ context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result
	user := h.profile.User

	if strings.Join(inv.Args, " ") == "rm -rf /" {
		res.Print(commands.StyleWarning, "Absolutely not. This desktop is load-bearing.")
		res.Emit(commands.EffectAchievement, "chaos-agent")
		return res, nil
	}

	res.Printf(commands.StyleMuted, "[sudo] password for %s:", user)
	res.Printf(commands.StyleError, "%s is not in the sudoers file. This incident will be reported.", user)
	res.Emit(commands.EffectAchievement, "nice-try")
	return res, nil
}

func (h *Host) weatherCmd(ctx context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result
	city := strings.Join(inv.Args, " ")

	report, err := h.weather.Current(ctx, city)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		h.log.Warn("weather lookup failed", zap.String("city", city), zap.Error(err))
		return res, err
	}
	res.Print(commands.StyleInfo, report)
	return res, nil
}

func (h *Host) sleep(ctx context.Context, inv commands.Invocation) (commands.Result, error) {
	var res commands.Result

	secs, err := strconv.ParseFloat(inv.Args[0], 64)
	d := time.Duration(secs * float64(time.Second))
	if err != nil || secs < 0 || d > maxSleep {
		res.Printf(commands.StyleError, "sleep: invalid duration '%s' (0 to %d seconds)", inv.Args[0], int(maxSleep.Seconds()))
		return res, nil
	}

	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		res.Printf(commands.StyleMuted, "slept %s", d)
		return res, nil
	case <-ctx.Done():
		res.Printf(commands.StyleMuted, "woke after %s", time.Since(start).Round(time.Millisecond))
		return res, ctx.Err()
	}
}
