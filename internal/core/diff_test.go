package core

import (
	"context"
	"testing"

	"github.com/mkarlen/grist/internal/models"
	"github.com/mkarlen/grist/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/greet.go b/greet.go
index 1111111..2222222 100644
--- a/greet.go
+++ b/greet.go
@@ -1,3 +1,4 @@
 line one
-line two
+line 2
+line 2.5
 line three
@@ -10,2 +11,2 @@ func footer
 tail one
-tail two
+tail 2
`

func TestParseDiff_LineKindsAndCounts(t *testing.T) {
	result := ParseDiff(sampleDiff)

	assert.Equal(t, sampleDiff, result.Raw)
	assert.Equal(t, 3, result.Additions)
	assert.Equal(t, 2, result.Deletions)

	kinds := make([]models.DiffLineKind, 0, len(result.Lines))
	for _, line := range result.Lines {
		kinds = append(kinds, line.Kind)
	}
	assert.Equal(t, []models.DiffLineKind{
		models.DiffLineMeta, models.DiffLineMeta, models.DiffLineMeta, models.DiffLineMeta,
		models.DiffLineHeader,
		models.DiffLineContext, models.DiffLineRemove, models.DiffLineAdd, models.DiffLineAdd, models.DiffLineContext,
		models.DiffLineHeader,
		models.DiffLineContext, models.DiffLineRemove, models.DiffLineAdd,
	}, kinds)
}

func TestParseDiff_LineNumbersTrackHunkHeaders(t *testing.T) {
	result := ParseDiff(sampleDiff)

	var body []models.DiffLine
	for _, line := range result.Lines {
		switch line.Kind {
		case models.DiffLineContext, models.DiffLineAdd, models.DiffLineRemove:
			body = append(body, line)
		}
	}
	require.Len(t, body, 8)

	// First hunk starts at old 1 / new 1.
	assert.Equal(t, 1, body[0].OldLineNumber)
	assert.Equal(t, 1, body[0].NewLineNumber)
	assert.Equal(t, 2, body[1].OldLineNumber) // removed line has only an old position
	assert.Equal(t, 0, body[1].NewLineNumber)
	assert.Equal(t, 2, body[2].NewLineNumber) // added line has only a new position
	assert.Equal(t, 0, body[2].OldLineNumber)
	assert.Equal(t, 3, body[3].NewLineNumber)
	assert.Equal(t, 3, body[4].OldLineNumber)
	assert.Equal(t, 4, body[4].NewLineNumber)

	// Second hunk header resets the counters to 10 / 11.
	assert.Equal(t, 10, body[5].OldLineNumber)
	assert.Equal(t, 11, body[5].NewLineNumber)
	assert.Equal(t, 11, body[6].OldLineNumber)
	assert.Equal(t, 12, body[7].NewLineNumber)
}

func TestParseDiff_HunkIndexAssignment(t *testing.T) {
	result := ParseDiff(sampleDiff)

	for _, line := range result.Lines {
		switch line.Kind {
		case models.DiffLineMeta:
			assert.Equal(t, -1, line.HunkIndex, "meta line %q", line.Text)
		case models.DiffLineHeader:
			assert.GreaterOrEqual(t, line.HunkIndex, 0)
		}
	}

	headers := 0
	for _, line := range result.Lines {
		if line.Kind == models.DiffLineHeader {
			assert.Equal(t, headers, line.HunkIndex)
			headers++
		}
	}
	assert.Equal(t, 2, headers)
}

func TestParseDiff_NoNewlineWarningNotCounted(t *testing.T) {
	text := `--- a/f.txt
+++ b/f.txt
@@ -1 +1 @@
-old
+new
\ No newline at end of file
`
	result := ParseDiff(text)

	assert.Equal(t, 1, result.Additions)
	assert.Equal(t, 1, result.Deletions)

	last := result.Lines[len(result.Lines)-1]
	assert.Equal(t, models.DiffLineWarning, last.Kind)
	assert.Zero(t, last.OldLineNumber)
	assert.Zero(t, last.NewLineNumber)
}

func TestParseDiff_DashRunContentLinesAreChanges(t *testing.T) {
	// A removed line whose content starts with -- renders as ---...; inside
	// a hunk it is a removal, not a file header. Same for +++ additions.
	text := `--- a/notes.txt
+++ b/notes.txt
@@ -1,3 +1,3 @@
 keep
--- separator
+++ divider
 tail
`
	result := ParseDiff(text)

	assert.Equal(t, 1, result.Additions)
	assert.Equal(t, 1, result.Deletions)

	var removes, adds []models.DiffLine
	for _, line := range result.Lines {
		switch line.Kind {
		case models.DiffLineRemove:
			removes = append(removes, line)
		case models.DiffLineAdd:
			adds = append(adds, line)
		}
	}
	require.Len(t, removes, 1)
	assert.Equal(t, "--- separator", removes[0].Text)
	assert.Equal(t, 0, removes[0].HunkIndex)
	assert.Equal(t, 2, removes[0].OldLineNumber)
	require.Len(t, adds, 1)
	assert.Equal(t, "+++ divider", adds[0].Text)
	assert.Equal(t, 2, adds[0].NewLineNumber)
}

func TestParseDiff_Empty(t *testing.T) {
	result := ParseDiff("")
	assert.Empty(t, result.Lines)
	assert.Zero(t, result.Additions)
	assert.Zero(t, result.Deletions)
}

func TestLoadFileDiff_SourceSelectsArguments(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	fake := newFakeCommander()
	fake.stub("diff -- f.go", sampleDiff)
	fake.stub("diff --cached -- f.go", sampleDiff)

	engine := newTestEngine(fake)

	_, err := engine.LoadFileDiff(ctx, root, "f.go", DiffUnstaged)
	require.NoError(t, err)
	_, err = engine.LoadFileDiff(ctx, root, "f.go", DiffStaged)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.countPrefix("diff -- "))
	assert.Equal(t, 1, fake.countPrefix("diff --cached"))
}

func TestLoadFileDiff_UntrackedToleratesExitOne(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	// --no-index exits 1 whenever the file has content; the diff is still
	// on stdout.
	fake := newFakeCommander()
	fake.stubResult("diff --no-index -- /dev/null f.go",
		runner.Result{Stdout: sampleDiff},
		&models.ExecutionError{Command: "git", ExitCode: 1})

	engine := newTestEngine(fake)
	result, err := engine.LoadFileDiff(ctx, root, "f.go", DiffUntracked)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Additions)
}

func TestLoadFileDiff_RejectsPathOutsideRoot(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	engine := newTestEngine(fake)

	_, err := engine.LoadFileDiff(ctx, t.TempDir(), "../../etc/passwd", DiffUnstaged)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, fake.callCount(), "no command may run for a rejected path")
}

func TestLoadCommitDiff_RejectsNonHashRef(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	engine := newTestEngine(fake)

	_, err := engine.LoadCommitDiff(ctx, t.TempDir(), "HEAD^{tree}")

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, fake.callCount())
}

func TestLoadStashDiff_RejectsLooseRef(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	engine := newTestEngine(fake)

	_, err := engine.LoadStashDiff(ctx, t.TempDir(), "stash@{0}; rm -rf /")

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, fake.callCount())
}
