/*
Package command runs the external programs the test runner delegates to:
git, npm, npx and the compiler itself. It abstracts process execution behind
the Executor interface so the packages driving those programs can be tested
without spawning anything.
*/
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/go-units"
	"go.uber.org/zap"
)

// An Executor is used to execute a command.
type Executor interface {
	// Execute runs name with args in dir.
	// It returns the standard output of the command and an error
	// that may wrap an *exec.ExitError.
	Execute(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Local is an Executor that runs programs on the host system.
type Local struct {
	// Logger receives a record for every executed command. Defaults to a no-op logger.
	Logger *zap.Logger
	// Env holds additional "key=value" entries appended to the current environment.
	Env []string
	// Output, if set, additionally receives the standard output and standard error
	// of every command as it runs.
	Output io.Writer
}

var _ Executor = (*Local)(nil)

var execCommandContext = exec.CommandContext

// Execute implements Executor.
func (l *Local) Execute(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	lg := l.logger()

	cmd := execCommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(l.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), l.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if l.Output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, l.Output)
		cmd.Stderr = io.MultiWriter(&stderr, l.Output)
	}

	lg.Debug("running command", zap.Stringer("cmd", cmd), zap.String("dir", dir))

	start := time.Now()
	err := cmd.Run()
	elapsed := units.HumanDuration(time.Since(start))

	if err != nil {
		lg.Error("command failed",
			zap.Stringer("cmd", cmd),
			zap.String("dir", dir),
			zap.Error(err),
			zap.ByteString("stdout", stdout.Bytes()),
			zap.ByteString("stderr", stderr.Bytes()),
		)
		return stdout.Bytes(), &Error{Command: cmd.String(), Dir: dir, Stderr: stderr.Bytes(), Err: err}
	}

	lg.Debug("command succeeded", zap.Stringer("cmd", cmd), zap.String("took", elapsed))
	return stdout.Bytes(), nil
}

func (l *Local) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Error is returned by Local.Execute when a command could not be started
// or exited unsuccessfully.
type Error struct {
	Command string
	Dir     string
	Stderr  []byte
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("command: %s failed: %v", e.Command, e.Err)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the failed command, or -1 if the command
// did not exit normally.
func (e *Error) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i != -1 {
		return s[i+1:]
	}
	return s
}

// mergeEnv appends extra to base. Entries in extra override entries
// in base with the same key. A PATH entry in extra is prepended
// to the existing PATH instead of replacing it.
func mergeEnv(base, extra []string) []string {
	env := make([]string, 0, len(base)+len(extra))
	index := make(map[string]int, len(base))

	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		index[k] = len(env)
		env = append(env, kv)
	}

	for _, kv := range extra {
		k, v, _ := strings.Cut(kv, "=")
		i, ok := index[k]
		switch {
		case !ok:
			index[k] = len(env)
			env = append(env, kv)
		case k == "PATH":
			_, prev, _ := strings.Cut(env[i], "=")
			env[i] = "PATH=" + v + string(os.PathListSeparator) + prev
		default:
			env[i] = kv
		}
	}

	return env
}

// PrependPath returns an environment entry that, when passed in Local.Env,
// puts dir in front of the inherited PATH.
func PrependPath(dir string) string {
	return "PATH=" + dir
}
