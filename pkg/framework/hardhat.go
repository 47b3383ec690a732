package framework

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

// HardhatName is the name Hardhat is registered under.
const HardhatName = "hardhat"

func init() {
	Register(HardhatName, func(opts *Options) (Framework, error) {
		return NewHardhat(opts)
	})
}

const hardhatSolcBuildTask = `
    solextSubtask(solextGetSolcBuild, async (args, hre, runSuper) => {
        if (args.solcVersion != {{js .ShortVersion}}) {
            throw new Error("Unexpected solc version: " + args.solcVersion);
        }
        return {
            compilerPath: {{js .CompilerPath}},
            isSolcJs: {{.IsJS}},
            version: args.solcVersion,
            longVersion: {{js .LongVersion}}
        };
    });
`

var hardhatJSOverride = mustTemplate("hardhat.js", `
{
    const {TASK_COMPILE_SOLIDITY_GET_SOLC_BUILD: solextGetSolcBuild} = require("hardhat/builtin-tasks/task-names");
    const {subtask: solextSubtask} = require("hardhat/config");
`+hardhatSolcBuildTask+`}
module.exports.solidity = {compilers: [{version: {{js .ShortVersion}}, settings: {{.Settings}}}]};
`)

var hardhatTSOverride = mustTemplate("hardhat.ts", `
import {TASK_COMPILE_SOLIDITY_GET_SOLC_BUILD as solextGetSolcBuild} from "hardhat/builtin-tasks/task-names";
import {subtask as solextSubtask} from "hardhat/config";
{
`+hardhatSolcBuildTask+`}
{{.ConfigVariable}}.solidity = {compilers: [{version: {{js .ShortVersion}}, settings: {{.Settings}}}]};
`)

// Hardhat is a project built with Hardhat, configured either in JavaScript or in TypeScript.
type Hardhat struct {
	project
	configVariable string
}

var _ Framework = (*Hardhat)(nil)

// NewHardhat creates a Hardhat framework for the project in opts.Dir.
func NewHardhat(opts *Options) (*Hardhat, error) {
	p, err := newProject(opts,
		[]string{"hardhat.config.js", "hardhat.config.ts"},
		[]string{"npx", "hardhat", "compile"},
		[]string{"npx", "hardhat", "test"},
	)
	if err != nil {
		return nil, err
	}

	configVariable := opts.ConfigVariable
	if configVariable == "" {
		configVariable = "config"
	}

	return &Hardhat{project: p, configVariable: configVariable}, nil
}

func (h *Hardhat) Name() string {
	return HardhatName
}

func (h *Hardhat) typeScript() bool {
	return strings.HasSuffix(h.configFile, ".ts")
}

// ForceCompiler overrides the subtask Hardhat uses to obtain a compiler build,
// so that it returns the local compiler instead of downloading one, and sets
// the compiler settings.
func (h *Hardhat) ForceCompiler(compiler toolchain.CompilerInfo, settings preset.Settings) error {
	compilerPath := compiler.Path
	if compiler.IsJS {
		compilerPath = filepath.Join(compiler.ModuleDir, "soljson.js")
	}

	tmpl := hardhatJSOverride
	if h.typeScript() {
		tmpl = hardhatTSOverride
	}

	h.lg.Debug("forcing hardhat compiler", zap.String("path", compilerPath), zap.Stringer("settings", settings))

	err := writeOverride(h.dir, h.configFile, tmpl, struct {
		ShortVersion   string
		LongVersion    string
		CompilerPath   string
		IsJS           bool
		Settings       preset.Settings
		ConfigVariable string
	}{compiler.ShortVersion, compiler.Version, compilerPath, compiler.IsJS, settings, h.configVariable})
	if err != nil {
		return fmt.Errorf("hardhat: %w", err)
	}
	return nil
}

func (h *Hardhat) Clean() error {
	return h.removeAll("artifacts", "cache")
}

// VerifyCompilerVersion checks the build info files in artifacts/build-info.
func (h *Hardhat) VerifyCompilerVersion(ctx context.Context, compiler toolchain.CompilerInfo) error {
	return verifyArtifacts(ctx, h.dir, "artifacts/build-info/*.json", compiler.Version,
		regexp.MustCompile(`"solcVersion":\s*"`+regexp.QuoteMeta(compiler.ShortVersion)+`"`),
		regexp.MustCompile(`"solcLongVersion":\s*"`+regexp.QuoteMeta(compiler.Version)+`"`),
	)
}
