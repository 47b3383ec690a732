/*
Package framework drives the build frameworks external projects use,
Truffle and Hardhat. For each framework it knows how to point the project
at a specific compiler with specific settings, how to compile and test
the project, and how to check that the generated artifacts were really
produced by the expected compiler.
*/
package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tmaxmax/solext/pkg/command"
	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

// A Framework builds and tests a single project.
type Framework interface {
	// Name of the framework.
	Name() string
	// ConfigFile returns the path of the configuration file the overrides are written to.
	ConfigFile() string
	// ForceCompiler rewrites the project configuration so that the given compiler
	// is used with the given settings. Calling it again replaces the previous override.
	ForceCompiler(compiler toolchain.CompilerInfo, settings preset.Settings) error
	// Clean removes the artifacts of previous builds.
	Clean() error
	// Compile builds the project.
	Compile(ctx context.Context) error
	// Test runs the project's test suite.
	Test(ctx context.Context) error
	// VerifyCompilerVersion checks that every generated artifact was produced
	// by the given compiler.
	VerifyCompilerVersion(ctx context.Context, compiler toolchain.CompilerInfo) error
}

// Options configures a Framework.
type Options struct {
	// Dir is the project root. Required.
	Dir string
	// ConfigFile is the configuration file, relative to Dir.
	// Defaults to the first of the framework's conventional file names present in Dir.
	ConfigFile string
	// CompileCommand overrides the default compile command.
	CompileCommand []string
	// TestCommand overrides the default test command.
	TestCommand []string
	// ConfigVariable is the name of the configuration object in TypeScript
	// configuration files. Defaults to "config".
	ConfigVariable string
	// Executor runs the framework. Required.
	Executor command.Executor
	// Logger is optional.
	Logger *zap.Logger
}

// Constructor creates a Framework from options.
type Constructor func(opts *Options) (Framework, error)

var (
	frameworks      = map[string]Constructor{}
	frameworksMutex sync.RWMutex
)

// New creates the framework registered under name for the project in opts.Dir.
func New(name string, opts *Options) (Framework, error) {
	frameworksMutex.RLock()
	constructor := frameworks[name]
	frameworksMutex.RUnlock()

	if constructor == nil {
		return nil, fmt.Errorf("framework: unknown framework %q (valid: %v)", name, Names())
	}
	if opts == nil || opts.Executor == nil || opts.Dir == "" {
		return nil, fmt.Errorf("framework: %s: project directory and executor are required", name)
	}

	f, err := constructor(opts)
	if err != nil {
		return nil, fmt.Errorf("framework: %s: %w", name, err)
	}
	return f, nil
}

// Names returns the names of the registered frameworks, sorted.
func Names() []string {
	frameworksMutex.RLock()
	defer frameworksMutex.RUnlock()

	names := make([]string, 0, len(frameworks))
	for name := range frameworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a Framework implementation. It panics if the name is already
// registered or the constructor is nil.
func Register(name string, constructor Constructor) {
	frameworksMutex.Lock()
	defer frameworksMutex.Unlock()

	if frameworks[name] != nil {
		panic(fmt.Sprintf("framework: %q is already registered", name))
	}
	if constructor == nil {
		panic(fmt.Sprintf("framework: constructor provided for %q is nil", name))
	}

	frameworks[name] = constructor
}

// project holds what every framework implementation needs.
type project struct {
	dir            string
	configFile     string
	compileCommand []string
	testCommand    []string
	exec           command.Executor
	lg             *zap.Logger
}

func newProject(opts *Options, configCandidates []string, compile, test []string) (project, error) {
	p := project{
		dir:            opts.Dir,
		configFile:     opts.ConfigFile,
		compileCommand: compile,
		testCommand:    test,
		exec:           opts.Executor,
		lg:             opts.Logger,
	}
	if p.lg == nil {
		p.lg = zap.NewNop()
	}
	if len(opts.CompileCommand) > 0 {
		p.compileCommand = opts.CompileCommand
	}
	if len(opts.TestCommand) > 0 {
		p.testCommand = opts.TestCommand
	}

	if p.configFile == "" {
		for _, name := range configCandidates {
			if _, err := os.Stat(filepath.Join(p.dir, name)); err == nil {
				p.configFile = name
				break
			}
		}
	}
	if p.configFile == "" {
		return p, fmt.Errorf("no configuration file found in %s (tried %v)", p.dir, configCandidates)
	}

	return p, nil
}

func (p *project) ConfigFile() string {
	return p.configFile
}

func (p *project) run(ctx context.Context, step string, cmdline []string) error {
	p.lg.Info("running "+step, zap.Strings("cmd", cmdline))

	if _, err := p.exec.Execute(ctx, p.dir, cmdline[0], cmdline[1:]...); err != nil {
		return fmt.Errorf("%s failed: %w", step, err)
	}
	return nil
}

func (p *project) Compile(ctx context.Context) error {
	return p.run(ctx, "compile", p.compileCommand)
}

func (p *project) Test(ctx context.Context) error {
	return p.run(ctx, "test", p.testCommand)
}

func (p *project) removeAll(dirs ...string) error {
	for _, d := range dirs {
		if err := os.RemoveAll(filepath.Join(p.dir, d)); err != nil {
			return err
		}
	}
	return nil
}
