package core

import (
	"context"
	"strings"
	"testing"

	"github.com/mkarlen/grist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHunkPatches_SplitsPerHunk(t *testing.T) {
	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)
	require.Len(t, hunks, 2)

	assert.Equal(t, "@@ -1,3 +1,4 @@", hunks[0].Header)
	assert.Equal(t, 1, hunks[0].OldStart)
	assert.Equal(t, 3, hunks[0].OldCount)
	assert.Equal(t, 1, hunks[0].NewStart)
	assert.Equal(t, 4, hunks[0].NewCount)

	assert.Equal(t, "@@ -10,2 +11,2 @@ func footer", hunks[1].Header)
	assert.Equal(t, 10, hunks[1].OldStart)
	assert.Equal(t, 11, hunks[1].NewStart)
}

// Every extracted patch must be a self-contained unified diff: file headers
// plus exactly one hunk, ending in a newline, re-parseable on its own.
func TestExtractHunkPatches_PatchesAreSelfContained(t *testing.T) {
	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)

	for i, h := range hunks {
		assert.True(t, strings.HasSuffix(h.PatchText, "\n"), "hunk %d must end with newline", i)
		assert.Contains(t, h.PatchText, "--- a/greet.go")
		assert.Contains(t, h.PatchText, "+++ b/greet.go")

		parsed := ParseDiff(h.PatchText)
		headers := 0
		for _, line := range parsed.Lines {
			if line.Kind == models.DiffLineHeader {
				headers++
			}
		}
		assert.Equal(t, 1, headers, "hunk %d must carry exactly one hunk header", i)
	}
}

// Extracted hunk bodies must match the hunk grouping of the full diff: the
// add/remove/context lines of patch i equal the full diff's lines with hunk
// index i.
func TestExtractHunkPatches_BodiesMatchFullDiff(t *testing.T) {
	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)

	full := ParseDiff(sampleDiff)
	for i, h := range hunks {
		var want []string
		for _, line := range full.Lines {
			if line.HunkIndex != i {
				continue
			}
			switch line.Kind {
			case models.DiffLineAdd, models.DiffLineRemove, models.DiffLineContext:
				want = append(want, line.Text)
			}
		}

		var got []string
		for _, line := range ParseDiff(h.PatchText).Lines {
			switch line.Kind {
			case models.DiffLineAdd, models.DiffLineRemove, models.DiffLineContext:
				got = append(got, line.Text)
			}
		}
		assert.Equal(t, want, got, "hunk %d body", i)
	}
}

func TestExtractHunkPatches_EmptyDiff(t *testing.T) {
	hunks, err := ExtractHunkPatches("")
	require.NoError(t, err)
	assert.Empty(t, hunks)

	hunks, err = ExtractHunkPatches("  \n")
	require.NoError(t, err)
	assert.Empty(t, hunks)
}

func TestExtractHunkPatches_MalformedDiff(t *testing.T) {
	_, err := ExtractHunkPatches("this is not a diff")

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestApplyHunk_ActionSelectsArguments(t *testing.T) {
	ctx := context.Background()

	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)
	patch := hunks[0].PatchText

	tests := []struct {
		name     string
		source   DiffSource
		action   HunkAction
		wantArgs []string
	}{
		{"stage", DiffUnstaged, ActionStage, []string{"git", "apply", "--cached", "-"}},
		{"unstage", DiffStaged, ActionUnstage, []string{"git", "apply", "--cached", "--reverse", "-"}},
		{"discard", DiffUnstaged, ActionDiscard, []string{"git", "apply", "--reverse", "-"}},
		{"stage conflict side", DiffConflict, ActionStage, []string{"git", "apply", "--cached", "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeCommander()
			fake.stub(strings.Join(tt.wantArgs[1:], " "), "")

			engine := newTestEngine(fake)
			err := engine.ApplyHunk(ctx, t.TempDir(), "greet.go", tt.source, tt.action, patch)
			require.NoError(t, err)

			call := fake.lastCallWithPrefix("apply")
			require.NotNil(t, call)
			assert.Equal(t, tt.wantArgs, call.Argv)
			assert.Equal(t, patch, string(call.Input), "patch must be piped to stdin")
		})
	}
}

func TestApplyHunk_RejectsIllegalSourceActionPairs(t *testing.T) {
	ctx := context.Background()

	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)
	patch := hunks[0].PatchText

	illegal := []struct {
		source DiffSource
		action HunkAction
	}{
		{DiffStaged, ActionStage},
		{DiffStaged, ActionDiscard},
		{DiffUnstaged, ActionUnstage},
		{DiffConflict, ActionUnstage},
		{DiffUntracked, ActionStage},
		{DiffUntracked, ActionUnstage},
		{DiffUntracked, ActionDiscard},
	}

	for _, tt := range illegal {
		fake := newFakeCommander()
		engine := newTestEngine(fake)

		err := engine.ApplyHunk(ctx, t.TempDir(), "greet.go", tt.source, tt.action, patch)

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "%s/%s must be rejected", tt.source, tt.action)
		assert.Zero(t, fake.callCount(), "%s/%s must not spawn a process", tt.source, tt.action)
	}
}

func TestApplyHunk_RejectsMalformedPatch(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	engine := newTestEngine(fake)

	err := engine.ApplyHunk(ctx, t.TempDir(), "greet.go", DiffUnstaged, ActionStage, "garbage")

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, fake.callCount())
}

func TestApplyHunk_InvalidatesStatusCache(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	hunks, err := ExtractHunkPatches(sampleDiff)
	require.NoError(t, err)

	fake := newFakeCommander()
	fake.stub("status --porcelain -z", " M greet.go\x00")
	fake.stub("apply --cached -", "")

	engine := newTestEngine(fake)

	_, err = engine.LoadStatus(ctx, root)
	require.NoError(t, err)
	require.NoError(t, engine.ApplyHunk(ctx, root, "greet.go", DiffUnstaged, ActionStage, hunks[0].PatchText))
	_, err = engine.LoadStatus(ctx, root)
	require.NoError(t, err)

	// Two status loads with a mutation between them: both must hit git.
	assert.Equal(t, 2, fake.countPrefix("status --porcelain"))
}
