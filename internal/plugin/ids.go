// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// newID generates a plugin instance id. Ids are unique per process
// and sort by load time, so duplicate paths stay distinguishable.
func newID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}
