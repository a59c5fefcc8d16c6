// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across deskshell.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync, used by the file
//     storage backend and config saving
//   - TruncateWidth, PadWidth: display-width aware column helpers used by the
//     help table and the TUI candidate strip
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	cell := util.PadWidth(util.TruncateWidth(summary, 40), 40)
package util
