package extest

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/tmaxmax/solext/pkg/framework"
	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/project"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"
)

// ProjectConfig describes an external project and how to test it.
type ProjectConfig struct {
	// Name identifies the project in logs.
	Name string `yaml:"name"`
	// Repo is the git URL of the project.
	Repo string `yaml:"repo"`
	// Ref is the branch, tag or commit to test.
	Ref string `yaml:"ref"`
	// RefType tells how Ref is interpreted. Defaults to branch.
	RefType project.RefType `yaml:"ref_type"`
	// Framework is the build framework of the project, truffle or hardhat.
	Framework string `yaml:"framework"`
	// ConfigFile is the framework configuration file, relative to the project root.
	// Detected if empty.
	ConfigFile string `yaml:"config_file"`
	// ConfigVariable is the name of the configuration object of TypeScript configurations.
	ConfigVariable string `yaml:"config_variable"`
	// EVMVersion is passed to the compiler. Empty means the compiler default.
	EVMVersion string `yaml:"evm_version"`
	// Presets lists the presets the project is known to work with.
	Presets []preset.Preset `yaml:"presets"`
	// CompileOnlyPresets lists presets for which the test suite is not run,
	// only compilation and version verification.
	CompileOnlyPresets []preset.Preset `yaml:"compile_only_presets"`
	// CompileCommand overrides the framework's compile command. It is split
	// into words like a shell would, and may reference environment variables.
	CompileCommand string `yaml:"compile_command"`
	// TestCommand overrides the framework's test command, see CompileCommand.
	TestCommand string `yaml:"test_command"`
	// TruffleVersion, if set, pins the truffle dependency of the project.
	TruffleVersion string `yaml:"truffle_version"`
	// PragmaDirs lists the directories whose sources get their version pragmas
	// relaxed. Empty means the whole project.
	PragmaDirs []string `yaml:"pragma_dirs"`
}

// LoadProjectConfig reads a project configuration from a YAML file.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extest: failed to read project config: %w", err)
	}

	cfg := &ProjectConfig{RefType: project.RefBranch}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("extest: failed to parse project config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration describes a testable project.
func (c *ProjectConfig) Validate() error {
	switch {
	case c.Repo == "":
		return errors.New("extest: project repo is required")
	case c.Ref == "":
		return errors.New("extest: project ref is required")
	case !slices.Contains(framework.Names(), c.Framework):
		return fmt.Errorf("extest: invalid framework %q (valid: %v)", c.Framework, framework.Names())
	case len(c.Presets) == 0:
		return errors.New("extest: project supports no presets")
	}

	if _, err := project.ParseRefType(string(c.RefType)); err != nil {
		return fmt.Errorf("extest: %w", err)
	}

	for _, p := range append(slices.Clone(c.Presets), c.CompileOnlyPresets...) {
		if !p.Valid() {
			return fmt.Errorf("extest: invalid preset %q", p)
		}
	}

	for _, cmd := range []string{c.CompileCommand, c.TestCommand} {
		if _, err := splitCommand(cmd); err != nil {
			return err
		}
	}

	return nil
}

// CompileOnly reports whether the test suite is skipped for the preset.
func (c *ProjectConfig) CompileOnly(p preset.Preset) bool {
	return slices.Contains(c.CompileOnlyPresets, p)
}

func splitCommand(cmd string) ([]string, error) {
	if cmd == "" {
		return nil, nil
	}

	fields, err := shell.Fields(cmd, nil)
	if err != nil {
		return nil, fmt.Errorf("extest: invalid command %q: %w", cmd, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("extest: empty command %q", cmd)
	}
	return fields, nil
}

// Config holds the inputs of a test run.
type Config struct {
	// BinaryType is the kind of compiler artifact under test, native or solcjs.
	BinaryType string
	// BinaryPath is the compiler artifact: a solc executable or a soljson.js file.
	BinaryPath string
	// Presets are the presets selected for the run. Empty selects all presets.
	// Presets the project does not support are skipped.
	Presets []preset.Preset
	// Project is the project under test.
	Project *ProjectConfig
	// WorkDir is where the compiler and the project are installed.
	// A temporary directory is used if empty.
	WorkDir string
	// Keep preserves the temporary work directory after the run.
	Keep bool
	// SolcJSRepository and SolcJSBranch select the solc-js sources for solcjs runs.
	SolcJSRepository string
	SolcJSBranch     string
}

// Validate checks the inputs of the run. It fails on the first invalid value.
func (c *Config) Validate() error {
	if !toolchain.IsBinaryType(c.BinaryType) {
		return fmt.Errorf("extest: invalid binary type %q (valid: %v)", c.BinaryType, toolchain.BinaryTypes())
	}

	if c.BinaryPath == "" {
		return errors.New("extest: binary path is required")
	}
	stat, err := os.Stat(c.BinaryPath)
	if err != nil {
		return fmt.Errorf("extest: invalid binary path: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return fmt.Errorf("extest: binary path %s is not a regular file", c.BinaryPath)
	}

	for _, p := range c.Presets {
		if !p.Valid() {
			return fmt.Errorf("extest: invalid preset %q", p)
		}
	}

	if c.Project == nil {
		return errors.New("extest: project config is required")
	}
	return c.Project.Validate()
}

// SelectedPresets returns the presets to run: the selected ones,
// or all of them if none were selected, restricted to those the project supports.
func (c *Config) SelectedPresets() []preset.Preset {
	selected := c.Presets
	if len(selected) == 0 {
		selected = preset.All()
	}
	return preset.Filter(selected, c.Project.Presets)
}
