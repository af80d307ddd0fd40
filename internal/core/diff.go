package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkarlen/grist/internal/models"
)

// DiffSource identifies which diff a record came from and therefore which
// apply modes are legal against it.
type DiffSource string

const (
	DiffUnstaged  DiffSource = "unstaged"
	DiffStaged    DiffSource = "staged"
	DiffConflict  DiffSource = "conflict"
	DiffUntracked DiffSource = "untracked"
)

// DiffResult is a parsed unified diff. Raw keeps the original text so hunk
// extraction can re-walk it without a second command.
type DiffResult struct {
	Raw       string
	Lines     []models.DiffLine
	Additions int
	Deletions int
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseDiff walks unified diff text line by line, typing each line and
// tracking running old/new line numbers. A hunk header resets the counters
// and advances the hunk index; file-level meta lines carry hunk index -1.
func ParseDiff(text string) *DiffResult {
	result := &DiffResult{Raw: text}
	if text == "" {
		return result
	}

	hunkIndex := -1
	inHunk := false
	oldLine, newLine := 0, 0

	for _, raw := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line := strings.TrimRight(raw, "\r")

		if m := hunkHeaderPattern.FindStringSubmatch(line); m != nil {
			oldLine = atoiDefault(m[1], 1)
			newLine = atoiDefault(m[3], 1)
			hunkIndex++
			inHunk = true
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:      models.DiffLineHeader,
				Text:      line,
				HunkIndex: hunkIndex,
			})
			continue
		}

		if strings.HasPrefix(line, "diff ") {
			inHunk = false
		}
		// File headers (--- a/x, +++ b/x) only occur between hunks. Inside a
		// hunk a line starting with --- or +++ is changed content whose own
		// text begins with -- or ++.
		if !inHunk {
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:      models.DiffLineMeta,
				Text:      line,
				HunkIndex: -1,
			})
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:          models.DiffLineAdd,
				Text:          line,
				NewLineNumber: newLine,
				HunkIndex:     hunkIndex,
			})
			newLine++
			result.Additions++
		case strings.HasPrefix(line, "-"):
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:          models.DiffLineRemove,
				Text:          line,
				OldLineNumber: oldLine,
				HunkIndex:     hunkIndex,
			})
			oldLine++
			result.Deletions++
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file": retained but not counted.
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:      models.DiffLineWarning,
				Text:      line,
				HunkIndex: hunkIndex,
			})
		default:
			result.Lines = append(result.Lines, models.DiffLine{
				Kind:          models.DiffLineContext,
				Text:          line,
				OldLineNumber: oldLine,
				NewLineNumber: newLine,
				HunkIndex:     hunkIndex,
			})
			oldLine++
			newLine++
		}
	}
	return result
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// LoadFileDiff returns the diff for a single path from the given source.
func (e *Engine) LoadFileDiff(ctx context.Context, root, path string, source DiffSource) (*DiffResult, error) {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return nil, err
	}
	rel := relToRoot(root, resolved)

	var args []string
	switch source {
	case DiffUnstaged, DiffConflict:
		args = []string{"diff", "--", rel}
	case DiffStaged:
		args = []string{"diff", "--cached", "--", rel}
	case DiffUntracked:
		// --no-index exits 1 when the files differ; that is the expected
		// outcome for a non-empty untracked file.
		res, err := e.git(ctx, root, "diff", "--no-index", "--", "/dev/null", rel)
		if err != nil {
			var execErr *models.ExecutionError
			if errors.As(err, &execErr) && execErr.ExitCode == 1 {
				return ParseDiff(res.Stdout), nil
			}
			return nil, fmt.Errorf("failed to diff untracked file: %w", err)
		}
		return ParseDiff(res.Stdout), nil
	default:
		return nil, &models.ValidationError{Field: "diff source", Reason: fmt.Sprintf("unknown source %q", source)}
	}

	res, err := e.git(ctx, root, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load diff: %w", err)
	}
	return ParseDiff(res.Stdout), nil
}

// LoadCommitDiff returns the patch a commit introduced.
func (e *Engine) LoadCommitDiff(ctx context.Context, root, hash string) (*DiffResult, error) {
	if err := models.ValidateCommitHash(hash); err != nil {
		return nil, err
	}
	res, err := e.git(ctx, root, "show", "--format=", "--patch", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit diff: %w", err)
	}
	return ParseDiff(res.Stdout), nil
}

// LoadStashDiff returns the patch held by a stash entry.
func (e *Engine) LoadStashDiff(ctx context.Context, root, ref string) (*DiffResult, error) {
	if _, err := models.ParseStashRef(ref); err != nil {
		return nil, err
	}
	res, err := e.git(ctx, root, "stash", "show", "-p", ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load stash diff: %w", err)
	}
	return ParseDiff(res.Stdout), nil
}
