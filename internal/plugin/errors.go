// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import "errors"

// Sentinel errors for programmatic error checking.
var (
	// ErrAlreadyStarted is returned by Start when the host has moved
	// past Uninitialized. A host runs one session; there is no reset.
	ErrAlreadyStarted = errors.New("host already started")
)
