/*
Package extest runs the external tests of the compiler: it installs the
compiler under test, prepares a third-party project to use it, and then,
for every selected preset, builds the project, verifies the compiler
version recorded in the artifacts and runs the project's test suite.

Every failure aborts the run.
*/
package extest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/tmaxmax/solext/pkg/command"
	"github.com/tmaxmax/solext/pkg/framework"
	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/project"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"

	_ "github.com/tmaxmax/solext/pkg/toolchain/native"
	_ "github.com/tmaxmax/solext/pkg/toolchain/solcjs"
)

// Runner executes a test run.
type Runner struct {
	Config *Config
	// Logger is optional.
	Logger *zap.Logger
	// Output, if set, receives the output of the external programs.
	Output io.Writer
	// NewExecutor creates the executor for external programs. env holds
	// additional environment entries. Defaults to a command.Local.
	NewExecutor func(env []string) command.Executor
}

// Report summarizes a successful run.
type Report struct {
	// RunID identifies the run in logs.
	RunID string
	// Compiler is the compiler under test.
	Compiler toolchain.CompilerInfo
	// Presets holds the outcome of every preset that was run, in order.
	Presets []PresetReport
}

// PresetReport is the outcome of a single preset.
type PresetReport struct {
	Preset preset.Preset
	// Tested is false for compile-only presets.
	Tested   bool
	Duration time.Duration
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) executor(env []string) command.Executor {
	if r.NewExecutor != nil {
		return r.NewExecutor(env)
	}
	return &command.Local{Logger: r.logger(), Env: env, Output: r.Output}
}

// Run performs the run. It returns an empty report, and no error, if none of the
// selected presets is supported by the project.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cfg := r.Config
	if cfg == nil {
		return nil, fmt.Errorf("extest: no config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	lg := r.logger().With(zap.String("run", report.RunID), zap.String("project", cfg.Project.Name))

	presets := cfg.SelectedPresets()
	if len(presets) == 0 {
		lg.Warn("no presets to run")
		return report, nil
	}
	lg.Info("selected presets", zap.Stringers("presets", presets))

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "solext-"+report.RunID[:8]+"-")
		if err != nil {
			return nil, fmt.Errorf("extest: %w", err)
		}
		workDir = dir
		if !cfg.Keep {
			defer os.RemoveAll(dir)
		}
	}
	lg.Info("using work directory", zap.String("dir", workDir))

	compiler, err := toolchain.NewCompiler(ctx, cfg.BinaryType, &toolchain.SetupOptions{
		BinaryPath:       cfg.BinaryPath,
		InstallDir:       filepath.Join(workDir, "solc"),
		SolcJSRepository: cfg.SolcJSRepository,
		SolcJSBranch:     cfg.SolcJSBranch,
		Executor:         r.executor(nil),
		Logger:           lg,
	})
	if err != nil {
		return nil, err
	}
	report.Compiler = compiler.Info()

	exec := r.executor(compiler.Env())

	fw, err := r.prepareProject(ctx, lg, exec, filepath.Join(workDir, "ext"), compiler.Info())
	if err != nil {
		return nil, err
	}

	for _, p := range presets {
		pr, err := r.runPreset(ctx, lg.With(zap.Stringer("preset", p)), fw, compiler.Info(), p)
		if err != nil {
			return nil, fmt.Errorf("extest: preset %s: %w", p, err)
		}
		report.Presets = append(report.Presets, pr)
	}

	lg.Info("external tests passed", zap.Int("presets", len(report.Presets)))
	return report, nil
}

func (r *Runner) prepareProject(ctx context.Context, lg *zap.Logger, exec command.Executor, dir string, compiler toolchain.CompilerInfo) (framework.Framework, error) {
	pc := r.Config.Project
	p := &project.Project{Dir: dir, Executor: exec, Logger: lg}

	if err := p.Download(ctx, pc.Repo, pc.Ref, pc.RefType); err != nil {
		return nil, err
	}

	if err := p.NeutralizePackageLock(); err != nil {
		return nil, err
	}
	if err := p.NeutralizePackageJSONHooks(); err != nil {
		return nil, err
	}
	if pc.Framework == framework.TruffleName && pc.TruffleVersion != "" {
		if err := p.ForceTruffleVersion(pc.TruffleVersion); err != nil {
			return nil, err
		}
	}

	if err := p.Install(ctx); err != nil {
		return nil, err
	}
	if err := p.NeutralizePackagedContracts(); err != nil {
		return nil, err
	}
	if err := p.ReplaceVersionPragmas(pc.PragmaDirs...); err != nil {
		return nil, err
	}
	if compiler.IsJS {
		if err := p.ForceSolcModules(compiler.ModuleDir); err != nil {
			return nil, err
		}
	}

	compileCommand, err := splitCommand(pc.CompileCommand)
	if err != nil {
		return nil, err
	}
	testCommand, err := splitCommand(pc.TestCommand)
	if err != nil {
		return nil, err
	}

	return framework.New(pc.Framework, &framework.Options{
		Dir:            dir,
		ConfigFile:     pc.ConfigFile,
		CompileCommand: compileCommand,
		TestCommand:    testCommand,
		ConfigVariable: pc.ConfigVariable,
		Executor:       exec,
		Logger:         lg,
	})
}

func (r *Runner) runPreset(ctx context.Context, lg *zap.Logger, fw framework.Framework, compiler toolchain.CompilerInfo, p preset.Preset) (PresetReport, error) {
	start := time.Now()
	pr := PresetReport{Preset: p}

	lg.Info("running preset")

	if err := fw.Clean(); err != nil {
		return pr, err
	}
	if err := fw.ForceCompiler(compiler, p.Settings(r.Config.Project.EVMVersion)); err != nil {
		return pr, err
	}
	if err := fw.Compile(ctx); err != nil {
		return pr, err
	}
	if err := fw.VerifyCompilerVersion(ctx, compiler); err != nil {
		return pr, err
	}

	if r.Config.Project.CompileOnly(p) {
		lg.Info("skipping tests for compile-only preset")
	} else {
		if err := fw.Test(ctx); err != nil {
			return pr, err
		}
		pr.Tested = true
	}

	pr.Duration = time.Since(start)
	lg.Info("preset passed", zap.Bool("tested", pr.Tested), zap.String("took", units.HumanDuration(pr.Duration)))

	return pr, nil
}
