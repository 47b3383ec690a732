package framework

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bitfield/script"
	"golang.org/x/sync/errgroup"
)

// ErrNoArtifacts is returned when a build produced no artifacts to verify.
var ErrNoArtifacts = errors.New("framework: no artifacts found")

// VersionMismatchError is returned when artifacts were not produced by the expected compiler.
type VersionMismatchError struct {
	// Expected is the full version of the expected compiler.
	Expected string
	// Files lists the artifacts, relative to the project root, missing the expected version.
	Files []string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("framework: wrong compiler version detected, expected %s in %s", e.Expected, strings.Join(e.Files, ", "))
}

// verifyArtifacts checks that every file in dir matching the glob pattern
// matches all the given regular expressions.
func verifyArtifacts(ctx context.Context, dir, pattern, expected string, needles ...*regexp.Regexp) error {
	files, err := script.ListFiles(filepath.Join(dir, pattern)).Slice()
	if err != nil {
		return fmt.Errorf("framework: failed to list artifacts: %w", err)
	}
	files = nonEmpty(files)
	if len(files) == 0 {
		return fmt.Errorf("%w matching %s", ErrNoArtifacts, pattern)
	}

	var (
		mu         sync.Mutex
		mismatched []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			for _, re := range needles {
				n, err := script.File(file).MatchRegexp(re).CountLines()
				if err != nil {
					return fmt.Errorf("framework: failed to read %s: %w", file, err)
				}
				if n == 0 {
					rel, _ := filepath.Rel(dir, file)
					mu.Lock()
					mismatched = append(mismatched, filepath.ToSlash(rel))
					mu.Unlock()
					return nil
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return &VersionMismatchError{Expected: expected, Files: mismatched}
	}
	return nil
}

func nonEmpty(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
