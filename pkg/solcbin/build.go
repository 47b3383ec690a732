package solcbin

import (
	"fmt"
	"strings"
)

// Build describes a single compiler binary published on the binaries server.
type Build struct {
	// Path of the binary, relative to the platform directory.
	Path string `json:"path"`
	// Version is the release number, for example 0.8.20.
	Version string `json:"version"`
	// Prerelease is set for nightly builds.
	Prerelease string `json:"prerelease,omitempty"`
	// Build is the build metadata, for example commit.a1b79de6.
	Build string `json:"build"`
	// LongVersion is the version including prerelease and build metadata.
	LongVersion string `json:"longVersion"`
	// Keccak256 of the binary, hex encoded with a 0x prefix.
	Keccak256 string `json:"keccak256"`
	// SHA256 of the binary, hex encoded with a 0x prefix.
	SHA256 string `json:"sha256"`
	// URLs holds mirrors of the binary.
	URLs []string `json:"urls"`
}

// List is the index of the binaries available for a platform.
type List struct {
	Builds []Build `json:"builds"`
	// Releases maps release numbers to the path of their build.
	Releases map[string]string `json:"releases"`
	// LatestRelease is the most recent release number.
	LatestRelease string `json:"latestRelease"`
}

// Find returns the build for the given version. The version may be a release
// number, a long version, or "latest".
func (l *List) Find(version string) (*Build, error) {
	if version == "latest" {
		version = l.LatestRelease
	}

	if path, ok := l.Releases[version]; ok {
		for i := range l.Builds {
			if l.Builds[i].Path == path {
				return &l.Builds[i], nil
			}
		}
	}

	for i := range l.Builds {
		if l.Builds[i].LongVersion == version {
			return &l.Builds[i], nil
		}
	}

	return nil, fmt.Errorf("solcbin: version %q not found", version)
}

// Platforms the binaries server publishes builds for.
const (
	PlatformLinux      = "linux-amd64"
	PlatformMacOS      = "macosx-amd64"
	PlatformWindows    = "windows-amd64"
	PlatformEmscripten = "emscripten-wasm32"
)

// IsJS reports whether the builds of the platform are soljson.js files
// meant to be used through solc-js.
func IsJS(platform string) bool {
	return strings.HasPrefix(platform, "emscripten")
}
