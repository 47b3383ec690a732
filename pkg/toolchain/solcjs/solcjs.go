/*
Package solcjs provides the compiler implementation for the emscripten
build of the compiler, wrapped by the solc-js npm package.

It registers the "solcjs" binary type.
*/
package solcjs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

const (
	// BinaryType is the name the implementation is registered under.
	BinaryType = "solcjs"

	// DefaultRepository is where solc-js is cloned from if no repository is configured.
	DefaultRepository = "https://github.com/ethereum/solc-js.git"
	// DefaultBranch is the solc-js branch built if no branch is configured.
	DefaultBranch = "master"

	soljsonName = "soljson.js"
	wrapperPath = "dist/solc.js"
)

func init() {
	toolchain.RegisterCompiler(BinaryType, func(ctx context.Context, opts *toolchain.SetupOptions) (toolchain.Compiler, error) {
		return Install(ctx, opts)
	})
}

// Compiler is a locally built solc-js package.
type Compiler struct {
	info toolchain.CompilerInfo
}

var _ toolchain.Compiler = (*Compiler)(nil)

// Install clones solc-js into opts.InstallDir, replaces its soljson.js with
// the one at opts.BinaryPath, builds the package and detects the compiler version.
// opts.InstallDir must not exist or be empty.
func Install(ctx context.Context, opts *toolchain.SetupOptions) (*Compiler, error) {
	lg := opts.LoggerOrNop()
	exec := opts.Executor

	repo := opts.SolcJSRepository
	if repo == "" {
		repo = DefaultRepository
	}
	branch := opts.SolcJSBranch
	if branch == "" {
		branch = DefaultBranch
	}

	dir, err := filepath.Abs(opts.InstallDir)
	if err != nil {
		return nil, fmt.Errorf("solcjs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("solcjs: %w", err)
	}

	lg.Info("cloning solc-js", zap.String("repo", repo), zap.String("branch", branch), zap.String("dir", dir))

	if _, err := exec.Execute(ctx, filepath.Dir(dir), "git", "clone", "--depth", "1", "--branch", branch, repo, dir); err != nil {
		return nil, fmt.Errorf("solcjs: failed to clone %s: %w", repo, err)
	}

	if err := copyFile(opts.BinaryPath, filepath.Join(dir, soljsonName)); err != nil {
		return nil, fmt.Errorf("solcjs: failed to copy %s: %w", soljsonName, err)
	}

	for _, args := range [][]string{{"install"}, {"run", "build"}} {
		if _, err := exec.Execute(ctx, dir, "npm", args...); err != nil {
			return nil, fmt.Errorf("solcjs: failed to build: %w", err)
		}
	}

	info := toolchain.CompilerInfo{
		BinaryType: BinaryType,
		Path:       filepath.Join(dir, wrapperPath),
		ModuleDir:  dir,
		IsJS:       true,
	}
	if err := toolchain.DetectVersion(ctx, exec, dir, &info, "node", info.Path); err != nil {
		return nil, fmt.Errorf("solcjs: %w", err)
	}

	lg.Info("compiler version detected", zap.String("version", info.Version), zap.String("short", info.ShortVersion))

	return &Compiler{info: info}, nil
}

func (c *Compiler) Info() toolchain.CompilerInfo {
	return c.info
}

// Env returns nothing: projects are pointed at solc-js through their
// node_modules and configuration instead.
func (c *Compiler) Env() []string {
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
