// Package runner executes external commands for the engine. Commands are
// always argument vectors, never shell strings, and every call is bounded by
// a timeout and an output cap.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mkarlen/grist/internal/models"
)

// DefaultMaxOutputBytes caps captured stdout/stderr when the caller does not
// set a limit.
const DefaultMaxOutputBytes = 10 << 20

// Options bounds a single command invocation.
type Options struct {
	Timeout        time.Duration
	MaxOutputBytes int64
}

// Result holds a command's captured output. Truncated is set when either
// stream hit the output cap.
type Result struct {
	Stdout    string
	Stderr    string
	Truncated bool
}

// Commander is the execution boundary the engine depends on. Tests provide
// a scripted implementation; production uses Runner.
type Commander interface {
	Run(ctx context.Context, cwd string, argv []string, opts Options) (Result, error)
	RunWithInput(ctx context.Context, cwd string, argv []string, input []byte, opts Options) (Result, error)
}

// Runner spawns one OS process per call. The executable is resolved against
// an augmented search path (GUI-launched parents often inherit a minimal
// PATH) and the resolution is cached per command.
type Runner struct {
	extraPath []string
	logger    *slog.Logger

	mu      sync.Mutex
	lookups map[string]string // command -> absolute path
}

// New creates a Runner. extraPath directories are appended to the inherited
// PATH for executable resolution and for the child's environment.
func New(extraPath []string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		extraPath: extraPath,
		lookups:   make(map[string]string),
		logger:    logger,
	}
}

// Run executes argv in cwd and returns its output.
func (r *Runner) Run(ctx context.Context, cwd string, argv []string, opts Options) (Result, error) {
	return r.run(ctx, cwd, argv, nil, opts)
}

// RunWithInput executes argv with input written to the process's stdin and
// the stream closed. Used for patch application so hunk text never touches
// the filesystem.
func (r *Runner) RunWithInput(ctx context.Context, cwd string, argv []string, input []byte, opts Options) (Result, error) {
	return r.run(ctx, cwd, argv, input, opts)
}

func (r *Runner) run(ctx context.Context, cwd string, argv []string, input []byte, opts Options) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &models.ValidationError{Field: "argv", Reason: "empty command vector"}
	}

	path, err := r.resolve(argv[0])
	if err != nil {
		return Result{}, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	maxBytes := opts.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Dir = cwd
	cmd.Env = r.environ()
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	stdout := newCappedBuffer(maxBytes)
	stderr := newCappedBuffer(maxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	r.logger.Debug("command finished",
		"argv", strings.Join(argv, " "),
		"cwd", cwd,
		"duration", time.Since(start),
		"err", runErr)

	res := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if runErr == nil {
		return res, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return res, &models.TimeoutError{Command: argv[0], Timeout: opts.Timeout}
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return res, &models.ExecutionError{
			Command:  argv[0],
			ExitCode: exitErr.ExitCode(),
			Stderr:   res.Stderr,
		}
	}
	return res, runErr
}

// resolve finds the absolute path for a command against the augmented PATH,
// caching hits. A cache entry is never invalidated: the engine's lifetime is
// one application session.
func (r *Runner) resolve(command string) (string, error) {
	// swapPath mutates the process PATH, so the whole swap/LookPath/restore
	// sequence stays under the mutex; concurrent resolves must not observe
	// each other's temporary PATH.
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.lookups[command]; ok {
		return p, nil
	}

	restore := r.swapPath()
	path, err := exec.LookPath(command)
	restore()
	if err != nil {
		return "", &models.CommandNotFoundError{Command: command}
	}

	r.lookups[command] = path
	return path, nil
}

// swapPath installs the augmented PATH for the duration of a LookPath call
// and returns a function restoring the original value. Callers hold r.mu.
func (r *Runner) swapPath() func() {
	if len(r.extraPath) == 0 {
		return func() {}
	}
	orig := os.Getenv("PATH")
	os.Setenv("PATH", r.augmentedPath(orig))
	return func() { os.Setenv("PATH", orig) }
}

func (r *Runner) environ() []string {
	env := os.Environ()
	if len(r.extraPath) == 0 {
		return env
	}
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + r.augmentedPath(kv[len("PATH="):])
			return env
		}
	}
	return append(env, "PATH="+r.augmentedPath(""))
}

func (r *Runner) augmentedPath(base string) string {
	parts := make([]string, 0, len(r.extraPath)+1)
	if base != "" {
		parts = append(parts, base)
	}
	for _, dir := range r.extraPath {
		if dir != "" && !strings.Contains(base, dir) {
			parts = append(parts, dir)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// cappedBuffer stores writes up to a byte limit and discards the rest. The
// command keeps running; only the capture is bounded.
type cappedBuffer struct {
	buf       bytes.Buffer
	remaining int64
	truncated bool
}

func newCappedBuffer(limit int64) *cappedBuffer {
	return &cappedBuffer{remaining: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.remaining <= 0 {
		b.truncated = b.truncated || n > 0
		return n, nil
	}
	if int64(n) > b.remaining {
		b.buf.Write(p[:b.remaining])
		b.remaining = 0
		b.truncated = true
		return n, nil
	}
	b.buf.Write(p)
	b.remaining -= int64(n)
	return n, nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
