// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCatalog_BundledLocales(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "command not found: frob"},
		{"es", "comando no encontrado: frob"},
		{"es-MX", "comando no encontrado: frob"},
		{"fr-CA", "commande introuvable : frob"},
		{"", "command not found: frob"},
		{"not a locale!", "command not found: frob"},
	}

	for _, tc := range tests {
		t.Run(tc.locale, func(t *testing.T) {
			c := New(tc.locale)
			assert.Equal(t, tc.want, c.T(MsgNotFound, "frob"))
		})
	}
}

func TestCatalog_UnsupportedLocaleFallsBack(t *testing.T) {
	c := New("ja")
	assert.Equal(t, Fallback, c.Locale())
	assert.Equal(t, "history is empty", c.T(MsgHistoryEmpty))
}

func TestCatalog_UnknownKeyFormatsKey(t *testing.T) {
	c := New("en")
	assert.Equal(t, "plain text 3", c.T("plain text %d", 3))
}

func TestCatalog_BundledKeysComplete(t *testing.T) {
	for tag, messages := range builtin {
		assert.Len(t, messages, len(builtin["en"]), "locale %s is missing keys", tag)
	}
}

func TestCatalog_LoadDir(t *testing.T) {
	dir := t.TempDir()

	de := "messages:\n  cmd.not_found: \"Befehl nicht gefunden: %s\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte(de), 0600))

	named := "locale: es\nmessages:\n  history.empty: \"nada por aquí\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yml"), []byte(named), 0600))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0600))

	c := New("de")
	assert.Equal(t, Fallback, c.Locale(), "German is not bundled")

	require.NoError(t, c.LoadDir(dir))
	assert.Equal(t, language.German, c.SetLocale("de-AT"))
	assert.Equal(t, "Befehl nicht gefunden: frob", c.T(MsgNotFound, "frob"))
	assert.Equal(t, "usage: x", c.T(MsgUsage, "x"), "missing keys fall back to English")

	c.SetLocale("es")
	assert.Equal(t, "nada por aquí", c.T(MsgHistoryEmpty))
	assert.Contains(t, c.Languages(), "de")
}

func TestCatalog_LoadDirReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("messages: [unclosed"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "it.yaml"), []byte("messages:\n  help.header: \"Comandi disponibili:\"\n"), 0600))

	c := New("en")
	err := c.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	c.SetLocale("it")
	assert.Equal(t, "Comandi disponibili:", c.T(MsgHelpHeader), "good files still load")
}

func TestCatalog_LoadDirMissing(t *testing.T) {
	c := New("en")
	assert.NoError(t, c.LoadDir(filepath.Join(t.TempDir(), "nope")))
}
