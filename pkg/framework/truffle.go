package framework

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

// TruffleName is the name Truffle is registered under.
const TruffleName = "truffle"

func init() {
	Register(TruffleName, func(opts *Options) (Framework, error) {
		return NewTruffle(opts)
	})
}

var truffleOverride = mustTemplate("truffle", `
module.exports['compilers'] = {solc: {version: {{js .Version}}, settings: {{.Settings}}}};
`)

// Truffle is a project built with Truffle.
type Truffle struct {
	project
}

var _ Framework = (*Truffle)(nil)

// NewTruffle creates a Truffle framework for the project in opts.Dir.
func NewTruffle(opts *Options) (*Truffle, error) {
	p, err := newProject(opts,
		[]string{"truffle-config.js", "truffle.js"},
		[]string{"npx", "truffle", "compile"},
		[]string{"npx", "truffle", "test"},
	)
	if err != nil {
		return nil, err
	}
	return &Truffle{p}, nil
}

func (t *Truffle) Name() string {
	return TruffleName
}

// ForceCompiler points Truffle at the compiler. Native compilers are picked up
// from PATH; solc-js is loaded from its package directory.
func (t *Truffle) ForceCompiler(compiler toolchain.CompilerInfo, settings preset.Settings) error {
	version := "native"
	if compiler.IsJS {
		version = compiler.ModuleDir
	}

	t.lg.Debug("forcing truffle compiler", zap.String("version", version), zap.Stringer("settings", settings))

	err := writeOverride(t.dir, t.configFile, truffleOverride, struct {
		Version  string
		Settings preset.Settings
	}{version, settings})
	if err != nil {
		return fmt.Errorf("truffle: %w", err)
	}
	return nil
}

func (t *Truffle) Clean() error {
	return t.removeAll("build")
}

// VerifyCompilerVersion checks the contract artifacts in build/contracts.
func (t *Truffle) VerifyCompilerVersion(ctx context.Context, compiler toolchain.CompilerInfo) error {
	return verifyArtifacts(ctx, t.dir, "build/contracts/*.json", compiler.Version,
		regexp.MustCompile(`"version":\s*"`+regexp.QuoteMeta(compiler.Version)+`"`),
	)
}
