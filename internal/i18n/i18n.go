// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n translates the shell's system messages ("command not found",
// usage hints, help headers). Command output written by host handlers is
// never passed through here.
//
// The default Catalog bundles English, Spanish and French and can be
// extended with YAML locale files:
//
//	locale: de
//	messages:
//	  cmd.not_found: "Befehl nicht gefunden: %s"
package i18n

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Fallback is used when no requested locale is available.
var Fallback = language.English

// Translator looks up a system message by key and formats it with args.
type Translator interface {
	T(key string, args ...any) string
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is a Translator backed by golang.org/x/text message catalogs.
type Catalog struct {
	mu       sync.RWMutex
	builder  *catalog.Builder
	messages map[string]map[string]string
	tag      language.Tag
	printer  *message.Printer
}

// New creates a catalog with the bundled translations, set to the locale
// closest to locale (e.g., "es-MX" selects Spanish).
func New(locale string) *Catalog {
	c := &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(Fallback)),
		messages: make(map[string]map[string]string),
	}
	for tag, messages := range builtin {
		// Bundled tags and keys are constants; SetString cannot fail on them.
		_ = c.set(language.MustParse(tag), messages)
	}
	c.SetLocale(locale)
	return c
}

// T implements Translator. Unknown keys are formatted as-is.
func (c *Catalog) T(key string, args ...any) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.printer.Sprintf(key, args...)
}

// Locale returns the active language.
func (c *Catalog) Locale() language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tag
}

// Languages returns the languages with at least one message, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	tags := c.builder.Languages()
	c.mu.RUnlock()

	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	sort.Strings(out)
	return out
}

// SetLocale switches to the available language closest to locale and
// returns it. Empty or unparsable locales select Fallback.
func (c *Catalog) SetLocale(locale string) language.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := Fallback
	if requested, err := language.Parse(locale); err == nil && locale != "" {
		available := c.builder.Languages()
		matcher := language.NewMatcher(available)
		_, idx, conf := matcher.Match(requested)
		if conf != language.No {
			tag = available[idx]
		}
	}

	c.tag = tag
	c.printer = message.NewPrinter(tag, message.Catalog(c.builder))
	return tag
}

// Load adds or replaces messages for tag.
func (c *Catalog) Load(tag language.Tag, messages map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.set(tag, messages); err != nil {
		return err
	}
	c.printer = message.NewPrinter(c.tag, message.Catalog(c.builder))
	return nil
}

// set stores messages for tag. Keys the language lacks are filled from the
// bundled Fallback messages so a partial locale file never shows raw keys.
func (c *Catalog) set(tag language.Tag, messages map[string]string) error {
	name := tag.String()
	merged, ok := c.messages[name]
	if !ok {
		merged = make(map[string]string, len(messages))
		c.messages[name] = merged
	}
	for key, msg := range messages {
		merged[key] = msg
	}
	for key, msg := range builtin[Fallback.String()] {
		if _, ok := merged[key]; !ok {
			merged[key] = msg
		}
	}

	for key, msg := range merged {
		if err := c.builder.SetString(tag, key, msg); err != nil {
			return fmt.Errorf("set %s/%s: %w", tag, key, err)
		}
	}
	return nil
}

// =============================================================================
// LOCALE FILES
// =============================================================================

// LocaleFile is the YAML layout of a locale file.
type LocaleFile struct {
	// Locale is the BCP 47 tag; defaults to the file name without extension
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// LoadFile reads one YAML locale file into the catalog.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read locale file: %w", err)
	}

	var lf LocaleFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("failed to parse locale file %s: %w", path, err)
	}

	name := lf.Locale
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	tag, err := language.Parse(name)
	if err != nil {
		return fmt.Errorf("locale file %s: bad locale %q: %w", path, name, err)
	}
	return c.Load(tag, lf.Messages)
}

// LoadDir loads every *.yaml and *.yml file in dir. A bad file does not stop
// the others from loading; all failures are returned joined. A missing
// directory is not an error. Call SetLocale afterwards to pick up a newly
// added language.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read locale dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if err := c.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
