package toolchain

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/tmaxmax/solext/pkg/command"
	"go.uber.org/zap"
)

// A Compiler is an installed compiler, ready to be used by external projects.
type Compiler interface {
	// Info returns some information about the compiler.
	Info() CompilerInfo
	// Env returns the environment entries child processes need
	// in order to pick up this compiler instead of any other installed one.
	Env() []string
}

// CompilerInfo holds some information about an installed compiler.
type CompilerInfo struct {
	// BinaryType is the name of the implementation that installed the compiler.
	BinaryType string
	// Path of the compiler's executable. For solc-js this is the
	// compiled command-line wrapper script.
	Path string
	// ModuleDir is the directory of the compiler's npm package.
	// It is empty if the compiler is not distributed as an npm package.
	ModuleDir string
	// Version is the full version string reported by the compiler,
	// for example 0.8.20+commit.a1b79de6.Linux.g++.
	Version string
	// ShortVersion is the release number, for example 0.8.20.
	ShortVersion string
	// IsJS reports whether the compiler is the emscripten build run through Node.js.
	IsJS bool
}

// SetupOptions configures the installation of a compiler.
type SetupOptions struct {
	// BinaryPath is the compiler artifact produced by the build:
	// the solc executable, or soljson.js for solc-js.
	BinaryPath string
	// InstallDir is where the compiler is installed. It is created if missing.
	InstallDir string
	// SolcJSRepository is the git repository solc-js is cloned from.
	// Only used by the solc-js implementation.
	SolcJSRepository string
	// SolcJSBranch is the solc-js branch to build. Only used by the solc-js implementation.
	SolcJSBranch string
	// Executor runs external programs. Required.
	Executor command.Executor
	// Logger is optional.
	Logger *zap.Logger
}

// LoggerOrNop returns the configured logger, or a no-op logger if none is set.
func (o *SetupOptions) LoggerOrNop() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// CompilerConstructor installs a compiler according to the given options.
type CompilerConstructor func(ctx context.Context, opts *SetupOptions) (Compiler, error)

var (
	compilers      = map[string]CompilerConstructor{}
	compilersMutex sync.RWMutex
)

// NewCompiler installs the compiler of the given binary type.
// It returns an error if no implementation is registered under that name.
func NewCompiler(ctx context.Context, binaryType string, opts *SetupOptions) (Compiler, error) {
	compilersMutex.RLock()
	constructor := compilers[binaryType]
	compilersMutex.RUnlock()

	if constructor == nil {
		return nil, fmt.Errorf("toolchain: invalid binary type %q (valid: %v), forgotten import?", binaryType, BinaryTypes())
	}
	if opts == nil || opts.Executor == nil {
		return nil, fmt.Errorf("toolchain: no executor given for %q compiler", binaryType)
	}

	compiler, err := constructor(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("toolchain: failed to set up %s compiler: %w", binaryType, err)
	}

	return compiler, nil
}

// BinaryTypes returns the names of the registered compiler implementations, sorted.
func BinaryTypes() []string {
	compilersMutex.RLock()
	defer compilersMutex.RUnlock()

	names := make([]string, 0, len(compilers))
	for name := range compilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBinaryType reports whether an implementation is registered under name.
func IsBinaryType(name string) bool {
	return slices.Contains(BinaryTypes(), name)
}

// RegisterCompiler adds a Compiler implementation for the given binary type.
// If an implementation with the same name already exists or the provided
// constructor is nil, this function panics. If the name is empty or has path
// separators or path list separators, this function panics.
func RegisterCompiler(binaryType string, constructor CompilerConstructor) {
	compilersMutex.Lock()
	defer compilersMutex.Unlock()

	if !isValidImplementationName(binaryType) {
		panic(fmt.Sprintf("toolchain: binary type %q has invalid characters", binaryType))
	}

	if compilers[binaryType] != nil {
		panic(fmt.Sprintf("toolchain: binary type %q is already registered", binaryType))
	}

	if constructor == nil {
		panic(fmt.Sprintf("toolchain: constructor provided for binary type %q is nil", binaryType))
	}

	compilers[binaryType] = constructor
}
