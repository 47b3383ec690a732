/*
Package project prepares a third-party project for an external test run:
it clones the repository and removes or rewrites everything that would
prevent the project from being built with the compiler under test.
*/
package project

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmaxmax/solext/pkg/command"
	"go.uber.org/zap"
)

// RefType tells how the ref of a project repository is interpreted.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
	RefCommit RefType = "commit"
)

// ParseRefType validates the name of a ref type.
func ParseRefType(s string) (RefType, error) {
	switch t := RefType(s); t {
	case RefBranch, RefTag, RefCommit:
		return t, nil
	default:
		return "", fmt.Errorf("project: invalid ref type %q (valid: branch, tag, commit)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *RefType) UnmarshalText(text []byte) error {
	parsed, err := ParseRefType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// A Project is a local checkout of a third-party project.
type Project struct {
	// Dir is the root directory of the checkout.
	Dir string
	// Executor runs git and npm.
	Executor command.Executor
	// Logger is optional.
	Logger *zap.Logger
}

func (p *Project) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Project) git(ctx context.Context, args ...string) ([]byte, error) {
	return p.Executor.Execute(ctx, p.Dir, "git", args...)
}

// Download checks out the given ref of the repository into p.Dir, fetching
// only the history needed for it. p.Dir must not exist or be empty.
func (p *Project) Download(ctx context.Context, repo, ref string, refType RefType) error {
	if _, err := ParseRefType(string(refType)); err != nil {
		return err
	}

	p.logger().Info("cloning project", zap.String("repo", repo), zap.String("ref", ref), zap.String("refType", string(refType)))

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("project: %w", err)
	}

	var steps [][]string
	if refType == RefCommit {
		// Shallow clones cannot check out an arbitrary commit.
		steps = [][]string{
			{"init", "--quiet"},
			{"remote", "add", "origin", repo},
			{"fetch", "--depth", "1", "origin", ref},
			{"reset", "--hard", "FETCH_HEAD"},
		}
	} else {
		steps = [][]string{{"clone", "--depth", "1", "--branch", ref, repo, "."}}
	}

	for _, args := range steps {
		if _, err := p.git(ctx, args...); err != nil {
			return fmt.Errorf("project: failed to download %s at %s %s: %w", repo, refType, ref, err)
		}
	}

	head, err := p.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	p.logger().Info("project downloaded", zap.String("commit", strings.TrimSpace(string(head))))
	return nil
}

// Install installs the project's npm dependencies.
func (p *Project) Install(ctx context.Context) error {
	p.logger().Info("installing dependencies", zap.String("dir", p.Dir))

	if _, err := p.Executor.Execute(ctx, p.Dir, "npm", "install"); err != nil {
		return fmt.Errorf("project: failed to install dependencies: %w", err)
	}
	return nil
}
