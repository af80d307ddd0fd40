package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/config"
	"github.com/mkarlen/grist/internal/models"
	"github.com/mkarlen/grist/internal/runner"
)

// fakeCommander scripts git responses for engine tests. Keys are the argv
// after the binary name, joined with spaces. Unstubbed commands fail with a
// generic execution error, which matches how the engine treats optional
// queries (no branch, no upstream).
type fakeCommander struct {
	mu        sync.Mutex
	calls     []fakeCall
	responses map[string]fakeResponse
}

type fakeCall struct {
	Argv  []string
	Input []byte
}

type fakeResponse struct {
	result runner.Result
	err    error
	delay  time.Duration
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{responses: make(map[string]fakeResponse)}
}

func (f *fakeCommander) stub(key, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = fakeResponse{result: runner.Result{Stdout: stdout}}
}

func (f *fakeCommander) stubSlow(key, stdout string, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = fakeResponse{result: runner.Result{Stdout: stdout}, delay: delay}
}

func (f *fakeCommander) stubResult(key string, result runner.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = fakeResponse{result: result, err: err}
}

func (f *fakeCommander) Run(ctx context.Context, cwd string, argv []string, opts runner.Options) (runner.Result, error) {
	return f.dispatch(argv, nil)
}

func (f *fakeCommander) RunWithInput(ctx context.Context, cwd string, argv []string, input []byte, opts runner.Options) (runner.Result, error) {
	return f.dispatch(argv, input)
}

func (f *fakeCommander) dispatch(argv []string, input []byte) (runner.Result, error) {
	key := strings.Join(argv[1:], " ")

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Argv: argv, Input: input})
	resp, ok := f.responses[key]
	f.mu.Unlock()

	if !ok {
		return runner.Result{}, &models.ExecutionError{
			Command:  argv[0],
			ExitCode: 1,
			Stderr:   "fatal: unexpected command: " + key,
		}
	}
	if resp.delay > 0 {
		time.Sleep(resp.delay)
	}
	return resp.result, resp.err
}

// countPrefix returns how many recorded calls start with the given args
// (after the binary name).
func (f *fakeCommander) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if strings.HasPrefix(strings.Join(call.Argv[1:], " "), prefix) {
			count++
		}
	}
	return count
}

// lastCallWithPrefix returns the most recent call starting with prefix.
func (f *fakeCommander) lastCallWithPrefix(prefix string) *fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.Join(f.calls[i].Argv[1:], " "), prefix) {
			call := f.calls[i]
			return &call
		}
	}
	return nil
}

func (f *fakeCommander) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestEngine(f *fakeCommander) *Engine {
	return New(f, cache.New(), config.Default(), nil)
}
