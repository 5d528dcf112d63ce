// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package hook

import "github.com/Masterminds/semver/v3"

// Host status values passed to the init hook.
const (
	StatusRelease     = "release"
	StatusDevelopment = "development"
)

// HostInfo is handed to every plugin's init hook so extensions can
// adapt to the client they run inside.
type HostInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// NewHostInfo derives the status field from the version string. A
// clean semantic version ("1.4.0", with or without a leading "v") is a
// release; anything with a prerelease tag, or that does not parse at
// all, counts as a development build.
func NewHostInfo(name, version string) HostInfo {
	return HostInfo{Name: name, Version: version, Status: versionStatus(version)}
}

func versionStatus(version string) string {
	v, err := semver.NewVersion(version)
	if err != nil || v.Prerelease() != "" {
		return StatusDevelopment
	}
	return StatusRelease
}
