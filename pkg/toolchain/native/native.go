/*
Package native provides the compiler implementation for natively built
solc executables.

It registers the "native" binary type.
*/
package native

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tmaxmax/solext/pkg/command"
	"github.com/tmaxmax/solext/pkg/toolchain"
	"go.uber.org/zap"
)

// BinaryType is the name the implementation is registered under.
const BinaryType = "native"

const executableName = "solc"

func init() {
	toolchain.RegisterCompiler(BinaryType, func(ctx context.Context, opts *toolchain.SetupOptions) (toolchain.Compiler, error) {
		return Install(ctx, opts)
	})
}

// Compiler is a native solc executable installed in a directory of its own.
type Compiler struct {
	info toolchain.CompilerInfo
}

var _ toolchain.Compiler = (*Compiler)(nil)

// Install copies the executable at opts.BinaryPath into opts.InstallDir
// under the name solc and detects its version.
func Install(ctx context.Context, opts *toolchain.SetupOptions) (*Compiler, error) {
	lg := opts.LoggerOrNop()

	if err := os.MkdirAll(opts.InstallDir, 0o755); err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}

	dest, err := filepath.Abs(filepath.Join(opts.InstallDir, executableName))
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}

	lg.Info("installing native compiler", zap.String("from", opts.BinaryPath), zap.String("to", dest))

	if err := copyExecutable(opts.BinaryPath, dest); err != nil {
		return nil, fmt.Errorf("native: failed to install compiler: %w", err)
	}

	info := toolchain.CompilerInfo{
		BinaryType: BinaryType,
		Path:       dest,
	}
	if err := toolchain.DetectVersion(ctx, opts.Executor, opts.InstallDir, &info, dest); err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}

	lg.Info("compiler version detected", zap.String("version", info.Version), zap.String("short", info.ShortVersion))

	return &Compiler{info: info}, nil
}

// Version detects the version of the executable at path without installing it.
func Version(ctx context.Context, exec command.Executor, path string) (toolchain.CompilerInfo, error) {
	info := toolchain.CompilerInfo{BinaryType: BinaryType, Path: path}
	if err := toolchain.DetectVersion(ctx, exec, "", &info, path); err != nil {
		return info, fmt.Errorf("native: %w", err)
	}
	return info, nil
}

func (c *Compiler) Info() toolchain.CompilerInfo {
	return c.info
}

// Env puts the install directory first in PATH, so tools asking
// for the "native" compiler run this one.
func (c *Compiler) Env() []string {
	return []string{command.PrependPath(filepath.Dir(c.info.Path))}
}

func copyExecutable(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// OpenFile does not change the mode of an existing file.
	return os.Chmod(dest, 0o755)
}
