package extest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/solext/pkg/extest"
	"github.com/tmaxmax/solext/pkg/preset"
	"github.com/tmaxmax/solext/pkg/project"
)

func TestLoadProjectConfig(t *testing.T) {
	cfg, err := extest.LoadProjectConfig("testdata/zeppelin.yaml")
	require.NoError(t, err)

	require.Equal(t, &extest.ProjectConfig{
		Name:       "zeppelin",
		Repo:       "https://github.com/OpenZeppelin/openzeppelin-contracts.git",
		Ref:        "v4.9.0",
		RefType:    project.RefTag,
		Framework:  "hardhat",
		EVMVersion: "london",
		Presets: []preset.Preset{
			preset.IROptimizeEVMYul,
			preset.LegacyNoOptimize,
			preset.LegacyOptimizeEVMOnly,
			preset.LegacyOptimizeEVMYul,
		},
		CompileOnlyPresets: []preset.Preset{preset.IROptimizeEVMYul},
		TestCommand:        `npx hardhat test --grep "ERC20 $SOLEXT_TEST_FILTER"`,
		PragmaDirs:         []string{"contracts", "test"},
	}, cfg)

	require.True(t, cfg.CompileOnly(preset.IROptimizeEVMYul))
	require.False(t, cfg.CompileOnly(preset.LegacyNoOptimize))
}

func TestLoadProjectConfig_Errors(t *testing.T) {
	_, err := extest.LoadProjectConfig("testdata/invalid-preset.yaml")
	require.ErrorContains(t, err, `invalid preset "turbo"`)

	_, err = extest.LoadProjectConfig("testdata/missing.yaml")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repo: [unterminated"), 0o644))
	_, err = extest.LoadProjectConfig(path)
	require.Error(t, err)
}

func validProject() *extest.ProjectConfig {
	return &extest.ProjectConfig{
		Repo:      "https://github.com/example/project.git",
		Ref:       "main",
		RefType:   project.RefBranch,
		Framework: "truffle",
		Presets:   []preset.Preset{preset.LegacyNoOptimize},
	}
}

func TestProjectConfig_Validate(t *testing.T) {
	type test struct {
		name      string
		modify    func(*extest.ProjectConfig)
		expectErr string
	}

	tests := []test{
		{
			name:   "Valid",
			modify: func(*extest.ProjectConfig) {},
		},
		{
			name:      "NoRepo",
			modify:    func(c *extest.ProjectConfig) { c.Repo = "" },
			expectErr: "repo is required",
		},
		{
			name:      "NoRef",
			modify:    func(c *extest.ProjectConfig) { c.Ref = "" },
			expectErr: "ref is required",
		},
		{
			name:      "UnknownFramework",
			modify:    func(c *extest.ProjectConfig) { c.Framework = "brownie" },
			expectErr: `invalid framework "brownie"`,
		},
		{
			name:      "NoPresets",
			modify:    func(c *extest.ProjectConfig) { c.Presets = nil },
			expectErr: "no presets",
		},
		{
			name:      "BadRefType",
			modify:    func(c *extest.ProjectConfig) { c.RefType = "release" },
			expectErr: `invalid ref type "release"`,
		},
		{
			name:      "BadCompileOnlyPreset",
			modify:    func(c *extest.ProjectConfig) { c.CompileOnlyPresets = []preset.Preset{"fast"} },
			expectErr: `invalid preset "fast"`,
		},
		{
			name:      "UnterminatedQuote",
			modify:    func(c *extest.ProjectConfig) { c.TestCommand = `npm test -- --grep "ERC20` },
			expectErr: "invalid command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProject()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.expectErr)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	binary := filepath.Join(t.TempDir(), "solc")
	require.NoError(t, os.WriteFile(binary, nil, 0o755))

	type test struct {
		name      string
		config    extest.Config
		expectErr string
	}

	tests := []test{
		{
			name:   "Valid",
			config: extest.Config{BinaryType: "native", BinaryPath: binary, Project: validProject()},
		},
		{
			name:      "BadBinaryType",
			config:    extest.Config{BinaryType: "wasm", BinaryPath: binary, Project: validProject()},
			expectErr: `invalid binary type "wasm"`,
		},
		{
			name:      "NoBinaryPath",
			config:    extest.Config{BinaryType: "solcjs", Project: validProject()},
			expectErr: "binary path is required",
		},
		{
			name:      "MissingBinary",
			config:    extest.Config{BinaryType: "native", BinaryPath: binary + ".missing", Project: validProject()},
			expectErr: "invalid binary path",
		},
		{
			name:      "BinaryIsDirectory",
			config:    extest.Config{BinaryType: "native", BinaryPath: filepath.Dir(binary), Project: validProject()},
			expectErr: "not a regular file",
		},
		{
			name:      "BadPreset",
			config:    extest.Config{BinaryType: "native", BinaryPath: binary, Presets: []preset.Preset{"x"}, Project: validProject()},
			expectErr: `invalid preset "x"`,
		},
		{
			name:      "NoProject",
			config:    extest.Config{BinaryType: "native", BinaryPath: binary},
			expectErr: "project config is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.expectErr)
			}
		})
	}
}

func TestConfig_SelectedPresets(t *testing.T) {
	pc := validProject()
	pc.Presets = []preset.Preset{preset.LegacyOptimizeEVMYul, preset.IRNoOptimize}

	cfg := extest.Config{Project: pc}
	require.Equal(t, []preset.Preset{preset.IRNoOptimize, preset.LegacyOptimizeEVMYul}, cfg.SelectedPresets(), "All presets in canonical order")

	cfg.Presets = []preset.Preset{preset.LegacyOptimizeEVMYul, preset.LegacyNoOptimize}
	require.Equal(t, []preset.Preset{preset.LegacyOptimizeEVMYul}, cfg.SelectedPresets())

	cfg.Presets = []preset.Preset{preset.IROptimizeEVMOnly}
	require.Empty(t, cfg.SelectedPresets())
}
