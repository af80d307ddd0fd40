package core

import (
	"context"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/mkarlen/grist/internal/models"
)

// HunkAction is a sub-file staging mutation.
type HunkAction string

const (
	ActionStage   HunkAction = "stage"
	ActionUnstage HunkAction = "unstage"
	ActionDiscard HunkAction = "discard"
)

// ExtractHunkPatches splits a single-file unified diff into one
// self-contained patch per hunk: the file headers plus exactly that hunk's
// body, applicable without any other hunk present.
func ExtractHunkPatches(text string) ([]models.Hunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	fd, err := godiff.ParseFileDiff([]byte(text))
	if err != nil {
		return nil, &models.ValidationError{Field: "diff", Reason: fmt.Sprintf("not a well-formed unified diff: %v", err)}
	}

	hunks := make([]models.Hunk, 0, len(fd.Hunks))
	for _, h := range fd.Hunks {
		single := &godiff.FileDiff{
			OrigName: fd.OrigName,
			OrigTime: fd.OrigTime,
			NewName:  fd.NewName,
			NewTime:  fd.NewTime,
			Extended: fd.Extended,
			Hunks:    []*godiff.Hunk{h},
		}
		printed, err := godiff.PrintFileDiff(single)
		if err != nil {
			return nil, fmt.Errorf("failed to render hunk patch: %w", err)
		}
		patch := string(printed)
		if !strings.HasSuffix(patch, "\n") {
			patch += "\n"
		}

		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
		if h.Section != "" {
			header += " " + h.Section
		}
		hunks = append(hunks, models.Hunk{
			Header:    header,
			OldStart:  int(h.OrigStartLine),
			OldCount:  int(h.OrigLines),
			NewStart:  int(h.NewStartLine),
			NewCount:  int(h.NewLines),
			PatchText: patch,
		})
	}
	return hunks, nil
}

// validApply is the allowed (source, action) matrix. Everything else is
// rejected before any external process is spawned.
func validApply(source DiffSource, action HunkAction) bool {
	switch action {
	case ActionStage, ActionDiscard:
		return source == DiffUnstaged || source == DiffConflict
	case ActionUnstage:
		return source == DiffStaged
	}
	return false
}

// ApplyHunk applies a standalone hunk patch to realize stage, unstage, or
// discard at sub-file granularity. The patch is piped to the apply tool's
// stdin rather than written to a temp file. Failures surface the apply
// tool's stderr verbatim; it already names the reason ("patch does not
// apply").
func (e *Engine) ApplyHunk(ctx context.Context, root, path string, source DiffSource, action HunkAction, patch string) error {
	if _, err := ResolveWithinRoot(root, path); err != nil {
		return err
	}
	if !validApply(source, action) {
		return &models.ValidationError{
			Field:  "hunk apply",
			Reason: fmt.Sprintf("cannot %s a %s hunk", action, source),
		}
	}
	if _, err := godiff.ParseFileDiff([]byte(patch)); err != nil {
		return &models.ValidationError{Field: "hunk patch", Reason: fmt.Sprintf("malformed patch: %v", err)}
	}

	args := []string{"apply"}
	switch action {
	case ActionStage:
		args = append(args, "--cached")
	case ActionUnstage:
		args = append(args, "--cached", "--reverse")
	case ActionDiscard:
		args = append(args, "--reverse")
	}
	args = append(args, "-")

	if _, err := e.gitInput(ctx, root, []byte(patch), args...); err != nil {
		return fmt.Errorf("failed to %s hunk: %w", action, err)
	}

	e.invalidateAfterMutation(root)
	return nil
}
