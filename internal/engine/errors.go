// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package engine

import "errors"

// Sentinel errors shared by engine implementations. Engines wrap
// these with runtime-specific context; callers match with errors.Is.
var (
	// ErrClosed is returned by operations on an engine or instance
	// that has been shut down.
	ErrClosed = errors.New("engine closed")

	// ErrNotInitialized is returned by Create when Init has not run
	// or did not succeed.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrUnsupported is returned by a Set lookup for an extension no
	// enabled engine claims.
	ErrUnsupported = errors.New("unsupported plugin extension")
)
