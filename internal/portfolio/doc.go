// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package portfolio is the reference host application: the verbs a visitor
// types into the desktop's terminal, and the Desktop that applies the side
// effects they request.
//
// Content comes from a Profile (bundled YAML, or LoadProfile). The weather
// verb calls a wttr.in compatible service and, like sleep, runs
// asynchronously so Ctrl+C can stop it.
package portfolio
