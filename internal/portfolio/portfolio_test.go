// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/deskshell/internal/commands"
)

// =============================================================================
// FIXTURES
// =============================================================================

func newWeatherServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newHost(t *testing.T, opts ...Option) (*commands.Registry, *Host) {
	t.Helper()

	srv := newWeatherServer(t, func(w http.ResponseWriter, r *http.Request) {
		city := strings.TrimPrefix(r.URL.Path, "/")
		_, _ = w.Write([]byte(city + ": Sunny +21°C\n"))
	})

	reg := commands.NewRegistry()
	opts = append([]Option{
		WithWeather(NewWeatherClient(srv.URL, 0)),
		WithMarkdownStyle("notty"),
	}, opts...)
	h, err := Register(reg, opts...)
	require.NoError(t, err)
	return reg, h
}

func run(t *testing.T, reg *commands.Registry, line string) (commands.Result, error) {
	t.Helper()
	return runCtx(t, context.Background(), reg, line)
}

func runCtx(t *testing.T, ctx context.Context, reg *commands.Registry, line string) (commands.Result, error) {
	t.Helper()
	parsed, err := commands.Parse(line)
	require.NoError(t, err)
	return reg.Dispatch(ctx, commands.Invocation{ParsedCommand: parsed, Raw: line})
}

func texts(res commands.Result) []string {
	out := make([]string, len(res.Lines))
	for i, l := range res.Lines {
		out[i] = l.Text
	}
	return out
}

// =============================================================================
// PROFILE
// =============================================================================

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	assert.Equal(t, "Sam Carter", p.Name)
	assert.Equal(t, "guest", p.User)
	assert.Equal(t, []string{"deskshell", "tidepool", "lantern", "relay"}, p.Slugs())
	assert.True(t, p.HasApp("projects"))
	assert.False(t, p.HasApp("minesweeper"))

	pr, ok := p.Project("relay")
	require.True(t, ok)
	assert.Equal(t, "Relay", pr.Name)
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Ada\napps: [terminal]\n"), 0600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "guest", p.User, "user defaults to guest")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("title: nobody\n"), 0600))
	_, err = LoadProfile(bad)
	assert.Error(t, err)

	_, err = LoadProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// =============================================================================
// VERBS
// =============================================================================

func TestRegister_Specs(t *testing.T) {
	reg, _ := newHost(t)

	assert.Equal(t,
		[]string{"about", "projects", "open", "theme", "contact", "whoami", "sudo", "weather", "sleep"},
		reg.Names())
	assert.NotContains(t, reg.VisibleNames(), "sudo")

	spec, err := reg.Lookup("ls")
	require.NoError(t, err)
	assert.Equal(t, "projects", spec.Name)

	for _, name := range []string{"weather", "sleep"} {
		spec, err := reg.Lookup(name)
		require.NoError(t, err)
		assert.True(t, spec.Async, name)
	}
}

func TestAbout_RendersMarkdown(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "about")
	require.NoError(t, err)

	out := strings.Join(texts(res), "\n")
	assert.Contains(t, out, "Sam Carter")
	assert.Contains(t, out, "small tools")
}

func TestProjects(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "projects")
	require.NoError(t, err)
	lines := texts(res)
	require.Len(t, lines, 5)
	assert.Equal(t, "  deskshell  The terminal you are typing into", lines[0])
	assert.Equal(t, "  relay      Webhook fan-out service with retries and replay", lines[3])

	res, err = run(t, reg, "projects tidepool")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Tidepool",
		"Embedded time-series store with tiered compaction",
		"tags: go, storage",
		"https://example.com/tidepool",
	}, texts(res))

	res, err = run(t, reg, "projects nope")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, commands.StyleError, res.Lines[0].Style)
}

func TestOpen(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "open projects")
	require.NoError(t, err)
	assert.Equal(t, []commands.Effect{{Kind: commands.EffectOpenApp, Value: "projects"}}, res.Effects)

	res, err = run(t, reg, "open minesweeper")
	require.NoError(t, err)
	assert.Empty(t, res.Effects)
	assert.Equal(t, commands.StyleError, res.Lines[0].Style)
}

func TestTheme(t *testing.T) {
	desktop := NewDesktop("dark")
	reg, _ := newHost(t, WithDesktop(desktop))

	res, err := run(t, reg, "theme")
	require.NoError(t, err)
	assert.Equal(t, []string{"current theme: dark", "available: dark, light, retro"}, texts(res))

	res, err = run(t, reg, "theme RETRO")
	require.NoError(t, err)
	assert.Equal(t, []commands.Effect{{Kind: commands.EffectSetTheme, Value: "retro"}}, res.Effects)

	res, err = run(t, reg, "theme neon")
	require.NoError(t, err)
	assert.Empty(t, res.Effects)
}

func TestCompletionSources(t *testing.T) {
	reg, _ := newHost(t)
	completer := commands.NewCompleter(reg, nil)

	out := completer.Complete("theme re", 8)
	assert.Equal(t, "theme retro", out.Line)

	completer.Reset()
	out = completer.Complete("open term", 9)
	assert.Equal(t, "open terminal", out.Line)

	completer.Reset()
	out = completer.Complete("ls tide", 7)
	assert.Equal(t, "ls tidepool", out.Line)
}

func TestContactAndWhoami(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "contact")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"email   sam@example.com",
		"github  https://github.com/example",
		"site    https://example.com",
	}, texts(res))

	res, err = run(t, reg, "whoami")
	require.NoError(t, err)
	assert.Equal(t, []string{"guest"}, texts(res))
}

func TestSudo(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "sudo make me a sandwich")
	require.NoError(t, err)
	assert.Equal(t, "guest is not in the sudoers file. This incident will be reported.", res.Lines[1].Text)
	assert.Equal(t, []commands.Effect{{Kind: commands.EffectAchievement, Value: "nice-try"}}, res.Effects)

	res, err = run(t, reg, "sudo rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, []commands.Effect{{Kind: commands.EffectAchievement, Value: "chaos-agent"}}, res.Effects)
}

func TestSleep(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, "sleep 0.01")
	require.NoError(t, err)
	assert.Equal(t, []string{"slept 10ms"}, texts(res))

	for _, arg := range []string{"soon", "-1", "3600"} {
		res, err := run(t, reg, "sleep "+arg)
		require.NoError(t, err)
		require.Len(t, res.Lines, 1, arg)
		assert.Equal(t, commands.StyleError, res.Lines[0].Style, arg)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	reg, _ := newHost(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := runCtx(t, ctx, reg, "sleep 30")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Len(t, res.Lines, 1)
	assert.True(t, strings.HasPrefix(res.Lines[0].Text, "woke after"), "partial output kept")
}

func TestWeatherCommand(t *testing.T) {
	reg, _ := newHost(t)

	res, err := run(t, reg, `weather "New York"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"New York: Sunny +21°C"}, texts(res))
}

// =============================================================================
// DESKTOP
// =============================================================================

func TestDesktop_Apply(t *testing.T) {
	var themes, unlocked []string
	d := NewDesktop("dark",
		OnTheme(func(name string) { themes = append(themes, name) }),
		OnAchievement(func(name string) { unlocked = append(unlocked, name) }),
	)

	d.Apply(commands.Effect{Kind: commands.EffectOpenApp, Value: "about"})
	d.Apply(commands.Effect{Kind: commands.EffectOpenApp, Value: "projects"})
	d.Apply(commands.Effect{Kind: commands.EffectOpenApp, Value: "about"})
	assert.Equal(t, []string{"projects", "about"}, d.OpenApps())

	d.Apply(commands.Effect{Kind: commands.EffectSetTheme, Value: "light"})
	assert.Equal(t, "light", d.Theme())
	assert.Equal(t, []string{"light"}, themes)

	d.Apply(commands.Effect{Kind: commands.EffectAchievement, Value: "nice-try"})
	d.Apply(commands.Effect{Kind: commands.EffectAchievement, Value: "nice-try"})
	assert.Equal(t, []string{"nice-try"}, d.Achievements())
	assert.Equal(t, []string{"nice-try"}, unlocked, "callback fires once per achievement")
}
