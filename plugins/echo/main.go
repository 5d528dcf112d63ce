// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package main implements an echo plugin for Parley. It prefixes every
// incoming chat message so you can see the transform pipeline at work.
//
// Build and install:
//
//	go build -o echo.plugin ./plugins/echo
//	parley plugins install echo.plugin
//
// The binary engine launches the plugin as a subprocess and dispatches
// hooks over RPC; the counter below lives for the whole session.
package main

import (
	"fmt"

	"github.com/parley-chat/parley/pkg/sdk"
)

func main() {
	seen := 0

	sdk.Serve(&sdk.Hooks{
		OnMessageReceived: func(_, message string) *string {
			seen++
			out := fmt.Sprintf("Echo #%d: %s", seen, message)
			return &out
		},
	})
}
