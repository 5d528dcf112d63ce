// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package lua

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// stateFactory builds sandboxed Lua states. Loaded libraries: base,
// table, string, math. Blocked: os, io, debug, package, plus the base
// functions that reach the filesystem.
type stateFactory struct {
	libraries []lua.LGFunction
	names     []string
}

func newStateFactory() *stateFactory {
	return &stateFactory{
		libraries: []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath},
		names:     []string{lua.BaseLibName, lua.TabLibName, lua.StringLibName, lua.MathLibName},
	}
}

// blockedBaseFunctions reach the filesystem and break the sandbox.
var blockedBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

func (f *stateFactory) newState() (*lua.LState, error) {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})

	for n, open := range f.libraries {
		err := state.CallByParam(lua.P{
			Fn:      state.NewFunction(open),
			NRet:    0,
			Protect: true,
		}, lua.LString(f.names[n]))
		if err != nil {
			state.Close()
			return nil, fmt.Errorf("open library %s: %w", f.names[n], err)
		}
	}

	for _, fn := range blockedBaseFunctions {
		state.SetGlobal(fn, lua.LNil)
	}

	installHostTable(state)
	return state, nil
}

// installHostTable exposes the parley.* API to plugin code. The only
// surface is structured logging.
func installHostTable(state *lua.LState) {
	t := state.NewTable()
	state.SetField(t, "log", state.NewFunction(hostLog))
	state.SetGlobal("parley", t)
}

// hostLog implements parley.log(level, message).
func hostLog(state *lua.LState) int {
	level := state.CheckString(1)
	msg := state.CheckString(2)

	lv := slog.LevelInfo
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	}
	slog.Log(state.Context(), lv, msg, "source", "plugin", "engine", "lua")
	return 0
}
