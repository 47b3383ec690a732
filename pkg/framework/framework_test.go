package framework_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/solext/pkg/command/commandtest"
	"github.com/tmaxmax/solext/pkg/framework"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	nativeCompiler = toolchain.CompilerInfo{
		BinaryType:   "native",
		Path:         "/opt/solc/solc",
		Version:      "0.8.20+commit.a1b79de6.Linux.g++",
		ShortVersion: "0.8.20",
	}
	solcjsCompiler = toolchain.CompilerInfo{
		BinaryType:   "solcjs",
		Path:         "/opt/solc-js/dist/solc.js",
		ModuleDir:    "/opt/solc-js",
		Version:      "0.8.20+commit.a1b79de6.Emscripten.clang",
		ShortVersion: "0.8.20",
		IsJS:         true,
	}
)

func writeFiles(tb testing.TB, root string, files map[string]string) {
	tb.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(tb, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readFile(tb testing.TB, path string) string {
	tb.Helper()

	content, err := os.ReadFile(path)
	require.NoError(tb, err)
	return string(content)
}

func newFramework(tb testing.TB, name string, files map[string]string, exec *commandtest.Stub) (framework.Framework, string) {
	tb.Helper()

	dir := tb.TempDir()
	writeFiles(tb, dir, files)

	f, err := framework.New(name, &framework.Options{
		Dir:      dir,
		Executor: exec,
		Logger:   zaptest.NewLogger(tb),
	})
	require.NoError(tb, err)
	return f, dir
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"hardhat", "truffle"}, framework.Names())
}

func TestNew_Errors(t *testing.T) {
	_, err := framework.New("foundry", &framework.Options{Dir: t.TempDir(), Executor: &commandtest.Stub{}})
	require.ErrorContains(t, err, `unknown framework "foundry"`)

	_, err = framework.New("truffle", &framework.Options{Dir: t.TempDir()})
	require.Error(t, err, "Expected error without executor")

	_, err = framework.New("hardhat", &framework.Options{Dir: t.TempDir(), Executor: &commandtest.Stub{}})
	require.ErrorContains(t, err, "no configuration file found")
}

func TestFramework_ConfigFileDetection(t *testing.T) {
	type test struct {
		name      string
		framework string
		files     map[string]string
		expect    string
	}

	tests := []test{
		{name: "TruffleConfig", framework: "truffle", files: map[string]string{"truffle-config.js": "", "truffle.js": ""}, expect: "truffle-config.js"},
		{name: "TruffleLegacy", framework: "truffle", files: map[string]string{"truffle.js": ""}, expect: "truffle.js"},
		{name: "HardhatJS", framework: "hardhat", files: map[string]string{"hardhat.config.js": ""}, expect: "hardhat.config.js"},
		{name: "HardhatTS", framework: "hardhat", files: map[string]string{"hardhat.config.ts": ""}, expect: "hardhat.config.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newFramework(t, tt.framework, tt.files, &commandtest.Stub{})
			require.Equal(t, tt.expect, f.ConfigFile())
			require.Equal(t, tt.framework, f.Name())
		})
	}
}

func TestFramework_CompileAndTest(t *testing.T) {
	type test struct {
		name          string
		framework     string
		config        string
		opts          framework.Options
		expectCompile string
		expectTest    string
	}

	tests := []test{
		{
			name:          "TruffleDefaults",
			framework:     "truffle",
			config:        "truffle-config.js",
			expectCompile: "npx truffle compile",
			expectTest:    "npx truffle test",
		},
		{
			name:          "HardhatDefaults",
			framework:     "hardhat",
			config:        "hardhat.config.js",
			expectCompile: "npx hardhat compile",
			expectTest:    "npx hardhat test",
		},
		{
			name:      "Overrides",
			framework: "hardhat",
			config:    "hardhat.config.ts",
			opts: framework.Options{
				CompileCommand: []string{"yarn", "build"},
				TestCommand:    []string{"yarn", "test", "--grep", "ERC20"},
			},
			expectCompile: "yarn build",
			expectTest:    "yarn test --grep ERC20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &commandtest.Stub{
				Fallback: func(string, string, []string) ([]byte, error) { return nil, nil },
			}

			dir := t.TempDir()
			writeFiles(t, dir, map[string]string{tt.config: ""})

			opts := tt.opts
			opts.Dir = dir
			opts.Executor = exec

			f, err := framework.New(tt.framework, &opts)
			require.NoError(t, err)

			require.NoError(t, f.Compile(context.Background()))
			require.NoError(t, f.Test(context.Background()))
			require.Equal(t, []string{tt.expectCompile, tt.expectTest}, exec.CommandLines())

			for _, c := range exec.Calls() {
				require.Equal(t, dir, c.Dir)
			}
		})
	}
}

func TestFramework_CompileFails(t *testing.T) {
	f, _ := newFramework(t, "truffle", map[string]string{"truffle.js": ""}, &commandtest.Stub{})

	err := f.Compile(context.Background())
	require.ErrorContains(t, err, "compile failed")
}

func TestFramework_Clean(t *testing.T) {
	type test struct {
		name      string
		framework string
		files     map[string]string
		removed   []string
		kept      []string
	}

	tests := []test{
		{
			name:      "Truffle",
			framework: "truffle",
			files: map[string]string{
				"truffle.js":               "",
				"build/contracts/A.json":   "{}",
				"contracts/A.sol":          "",
				"artifacts/unrelated.json": "",
			},
			removed: []string{"build"},
			kept:    []string{"contracts/A.sol", "artifacts/unrelated.json"},
		},
		{
			name:      "Hardhat",
			framework: "hardhat",
			files: map[string]string{
				"hardhat.config.js":           "",
				"artifacts/build-info/x.json": "{}",
				"cache/solidity-files.json":   "{}",
				"contracts/A.sol":             "",
			},
			removed: []string{"artifacts", "cache"},
			kept:    []string{"contracts/A.sol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, dir := newFramework(t, tt.framework, tt.files, &commandtest.Stub{})

			require.NoError(t, f.Clean())
			for _, r := range tt.removed {
				require.NoDirExists(t, filepath.Join(dir, r))
			}
			for _, k := range tt.kept {
				require.FileExists(t, filepath.Join(dir, k))
			}

			require.NoError(t, f.Clean(), "Cleaning twice must succeed")
		})
	}
}
