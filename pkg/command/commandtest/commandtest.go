// Package commandtest provides a stub command.Executor for tests.
package commandtest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tmaxmax/solext/pkg/command"
)

// Call records a single execution.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String returns the command line of the call.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Stub is a command.Executor that never spawns processes.
// Executions of registered commands call the registered function;
// any other execution fails, unless Fallback is set.
type Stub struct {
	// Fallback, if set, handles executions no stub is registered for.
	Fallback func(dir string, name string, args []string) ([]byte, error)

	mu    sync.Mutex
	stubs []*stub
	calls []Call
}

type stub struct {
	name string
	args []string
	fn   func(dir string) ([]byte, error)
}

var _ command.Executor = (*Stub)(nil)

// Add registers fn to handle executions of name with exactly args.
// An existing registration for the same command line is replaced.
func (s *Stub) Add(name string, args []string, fn func(dir string) ([]byte, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stubs {
		if st.name == name && slices.Equal(st.args, args) {
			st.fn = fn
			return
		}
	}

	s.stubs = append(s.stubs, &stub{name: name, args: args, fn: fn})
}

// AddOutput registers a command that succeeds with the given output.
func (s *Stub) AddOutput(name string, args []string, output string) {
	s.Add(name, args, func(string) ([]byte, error) {
		return []byte(output), nil
	})
}

// Execute implements command.Executor.
func (s *Stub) Execute(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Dir: dir, Name: name, Args: slices.Clone(args)})
	var fn func(string) ([]byte, error)
	for _, st := range s.stubs {
		if st.name == name && slices.Equal(st.args, args) {
			fn = st.fn
			break
		}
	}
	fallback := s.Fallback
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case fn != nil:
		return fn(dir)
	case fallback != nil:
		return fallback(dir, name, args)
	default:
		return nil, fmt.Errorf("no stub for %s %q", name, args)
	}
}

// Calls returns the executions recorded so far, in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.calls)
}

// CommandLines returns the recorded executions formatted as command lines.
func (s *Stub) CommandLines() []string {
	calls := s.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
