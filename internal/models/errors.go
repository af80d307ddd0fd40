package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNothingToCommit is returned when a commit is requested with an empty
// index. It is a normal outcome, not a command failure.
var ErrNothingToCommit = errors.New("nothing to commit")

// CommandNotFoundError means the external binary could not be resolved on
// the augmented search path. Distinguished from a non-zero exit so callers
// can report a missing git installation instead of a failed operation.
type CommandNotFoundError struct {
	Command string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Command)
}

// TimeoutError means an external command exceeded its deadline and was
// killed.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Command, e.Timeout)
}

// ExecutionError means an external command exited non-zero. Stderr carries
// the tool's own diagnostics verbatim.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	summary := SummarizeStderr(e.Stderr)
	if summary == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s", e.Command, summary)
}

// ValidationError means caller input was rejected before any external
// process was spawned: a path outside the repository root, a malformed ref
// or branch name, or a malformed hunk patch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictStateError means an apply operation produced merge conflicts in
// the working tree. For stash apply/pop this is not necessarily fatal: the
// stash content is in place, conflict markers and all.
type ConflictStateError struct {
	Stderr string
}

func (e *ConflictStateError) Error() string {
	summary := SummarizeStderr(e.Stderr)
	if summary == "" {
		return "operation produced conflicts"
	}
	return summary
}

// HookFailureError means a commit or amend was blocked by a hook.
type HookFailureError struct {
	Stderr string
}

func (e *HookFailureError) Error() string {
	summary := SummarizeStderr(e.Stderr)
	if summary == "" {
		return "blocked by a repository hook"
	}
	return summary
}

// maxErrorDisplayLen bounds stderr-derived messages for display.
const maxErrorDisplayLen = 240

// SummarizeStderr picks the first actionable line of a tool's stderr,
// preferring fatal:/error:/CONFLICT lines over verbose trailing hints, and
// truncates it to a displayable length.
func SummarizeStderr(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	var fallback string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fallback == "" {
			fallback = line
		}
		if strings.HasPrefix(line, "fatal:") ||
			strings.HasPrefix(line, "error:") ||
			strings.Contains(line, "CONFLICT") {
			return truncateForDisplay(line)
		}
	}
	return truncateForDisplay(fallback)
}

func truncateForDisplay(s string) string {
	if len(s) <= maxErrorDisplayLen {
		return s
	}
	return s[:maxErrorDisplayLen-3] + "..."
}
