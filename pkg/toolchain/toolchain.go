/*
Package toolchain installs Solidity compilers for external test runs and
detects their versions. Each binary type (a native executable, or the
JavaScript build wrapped by solc-js) is provided by an implementation
registered under its name, so the rest of the runner can treat them
interchangeably.
*/
package toolchain

import (
	"os"
	"strings"
)

func isValidImplementationName(name string) bool {
	return name != "" && !strings.ContainsAny(name, string([]rune{os.PathSeparator, os.PathListSeparator}))
}
