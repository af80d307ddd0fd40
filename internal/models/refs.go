package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	stashRefPattern   = regexp.MustCompile(`^stash@\{(0|[1-9][0-9]*)\}$`)
	commitHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)
)

// ParseStashRef validates a stash reference against the fixed stash@{N}
// grammar and returns the index N. Anything else is rejected here rather
// than forwarded to the command layer.
func ParseStashRef(ref string) (int, error) {
	m := stashRefPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, &ValidationError{Field: "stash ref", Reason: fmt.Sprintf("%q does not match stash@{N}", ref)}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ValidationError{Field: "stash ref", Reason: fmt.Sprintf("%q does not match stash@{N}", ref)}
	}
	return n, nil
}

// FormatStashRef renders a stash index as its canonical reference.
func FormatStashRef(index int) (string, error) {
	if index < 0 {
		return "", &ValidationError{Field: "stash index", Reason: "must be non-negative"}
	}
	return fmt.Sprintf("stash@{%d}", index), nil
}

// ValidateCommitHash rejects anything that is not a plain abbreviated or
// full hex object name. Symbolic refs are deliberately excluded: callers of
// the mutation API always hold a resolved hash.
func ValidateCommitHash(hash string) error {
	if !commitHashPattern.MatchString(hash) {
		return &ValidationError{Field: "commit hash", Reason: fmt.Sprintf("%q is not a hex object name", hash)}
	}
	return nil
}

// ValidateBranchName applies the subset of git's ref-name rules that the
// engine relies on before passing a branch name as an argument.
func ValidateBranchName(name string) error {
	if name == "" {
		return &ValidationError{Field: "branch name", Reason: "empty"}
	}
	if strings.HasPrefix(name, "-") {
		return &ValidationError{Field: "branch name", Reason: "may not begin with a dash"}
	}
	if strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") {
		return &ValidationError{Field: "branch name", Reason: fmt.Sprintf("%q is not a valid ref name", name)}
	}
	for _, r := range name {
		switch {
		case r <= 0x20 || r == 0x7f:
			return &ValidationError{Field: "branch name", Reason: "contains control or space characters"}
		case strings.ContainsRune("~^:?*[\\", r):
			return &ValidationError{Field: "branch name", Reason: fmt.Sprintf("contains %q", r)}
		}
	}
	return nil
}
