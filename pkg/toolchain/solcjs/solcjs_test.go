package solcjs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/solext/pkg/command/commandtest"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"github.com/tmaxmax/solext/pkg/toolchain/solcjs"
)

func TestInstall(t *testing.T) {
	soljson := filepath.Join(t.TempDir(), "soljson.js")
	require.NoError(t, os.WriteFile(soljson, []byte("var Module;"), 0o644))

	root := t.TempDir()
	installDir := filepath.Join(root, "solc-js")
	wrapper := filepath.Join(installDir, "dist", "solc.js")

	var exec commandtest.Stub
	exec.Add("git", []string{"clone", "--depth", "1", "--branch", "v0.8.20", "https://example.com/solc-js.git", installDir}, func(string) ([]byte, error) {
		return nil, os.MkdirAll(installDir, 0o755)
	})
	exec.AddOutput("npm", []string{"install"}, "")
	exec.AddOutput("npm", []string{"run", "build"}, "")
	exec.AddOutput("node", []string{wrapper, "--version"}, "0.8.20+commit.a1b79de6.Emscripten.clang\n")

	c, err := toolchain.NewCompiler(context.Background(), solcjs.BinaryType, &toolchain.SetupOptions{
		BinaryPath:       soljson,
		InstallDir:       installDir,
		SolcJSRepository: "https://example.com/solc-js.git",
		SolcJSBranch:     "v0.8.20",
		Executor:         &exec,
	})
	require.NoError(t, err)

	require.Equal(t, toolchain.CompilerInfo{
		BinaryType:   "solcjs",
		Path:         wrapper,
		ModuleDir:    installDir,
		Version:      "0.8.20+commit.a1b79de6.Emscripten.clang",
		ShortVersion: "0.8.20",
		IsJS:         true,
	}, c.Info())
	require.Empty(t, c.Env())

	content, err := os.ReadFile(filepath.Join(installDir, "soljson.js"))
	require.NoError(t, err)
	require.Equal(t, "var Module;", string(content))

	calls := exec.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, root, calls[0].Dir)
	require.Equal(t, installDir, calls[1].Dir)
	require.Equal(t, "npm run build", calls[2].String())
}

func TestInstall_BuildFails(t *testing.T) {
	installDir := filepath.Join(t.TempDir(), "solc-js")
	soljson := filepath.Join(t.TempDir(), "soljson.js")
	require.NoError(t, os.WriteFile(soljson, nil, 0o644))

	var exec commandtest.Stub
	exec.Add("git", []string{"clone", "--depth", "1", "--branch", solcjs.DefaultBranch, solcjs.DefaultRepository, installDir}, func(string) ([]byte, error) {
		return nil, os.MkdirAll(installDir, 0o755)
	})

	_, err := solcjs.Install(context.Background(), &toolchain.SetupOptions{
		BinaryPath: soljson,
		InstallDir: installDir,
		Executor:   &exec,
	})
	require.ErrorContains(t, err, "failed to build")
	require.Equal(t, []string{
		"git clone --depth 1 --branch master https://github.com/ethereum/solc-js.git " + installDir,
		"npm install",
	}, exec.CommandLines())
}
