package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmaxmax/solext/pkg/command"
)

var shortVersionRegexp = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)[^+]*\+commit\.[0-9a-f]+`)

// ParseVersion extracts the full compiler version from the output of --version.
// The native compiler prints a banner followed by a "Version: ..." line,
// while solc-js prints the bare version.
func ParseVersion(output []byte) (string, error) {
	var last string
	for _, line := range bytes.Split(output, []byte{'\n'}) {
		if l := strings.TrimSpace(string(line)); l != "" {
			last = l
		}
	}

	version := strings.TrimSpace(strings.TrimPrefix(last, "Version:"))
	if _, err := ShortVersion(version); err != nil {
		return "", err
	}

	return version, nil
}

// ShortVersion returns the release number of a full compiler version.
// The full version must contain the commit hash the compiler was built from.
func ShortVersion(full string) (string, error) {
	m := shortVersionRegexp.FindStringSubmatch(full)
	if m == nil {
		return "", fmt.Errorf("toolchain: unrecognized compiler version %q", full)
	}
	return m[1], nil
}

// DetectVersion runs the compiler at path with --version and fills in the
// version fields of info.
func DetectVersion(ctx context.Context, exec command.Executor, dir string, info *CompilerInfo, name string, args ...string) error {
	out, err := exec.Execute(ctx, dir, name, append(args, "--version")...)
	if err != nil {
		return fmt.Errorf("failed to detect compiler version: %w", err)
	}

	version, err := ParseVersion(out)
	if err != nil {
		return err
	}

	info.Version = version
	info.ShortVersion, _ = ShortVersion(version)
	return nil
}
