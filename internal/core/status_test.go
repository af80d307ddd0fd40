package core

import (
	"context"
	"testing"
	"time"

	"github.com/mkarlen/grist/internal/models"
	"github.com/mkarlen/grist/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *StatusLine
	}{
		{
			name: "staged modification",
			line: "M  main.go",
			want: &StatusLine{X: 'M', Y: ' ', Path: "main.go"},
		},
		{
			name: "unstaged modification",
			line: " M main.go",
			want: &StatusLine{X: ' ', Y: 'M', Path: "main.go"},
		},
		{
			name: "untracked",
			line: "?? notes.txt",
			want: &StatusLine{X: '?', Y: '?', Path: "notes.txt"},
		},
		{
			name: "path with spaces",
			line: " M my docs/read me.md",
			want: &StatusLine{X: ' ', Y: 'M', Path: "my docs/read me.md"},
		},
		{
			name: "non-ascii path taken verbatim",
			line: " M ä.txt",
			want: &StatusLine{X: ' ', Y: 'M', Path: "ä.txt"},
		},
		{
			name: "too short",
			line: "M ",
			want: nil,
		},
		{
			name: "empty",
			line: "",
			want: nil,
		},
		{
			name: "missing separator column",
			line: "MMmain.go",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStatusLine(tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatusEntries_RenameCarriesOriginField(t *testing.T) {
	// In -z output a rename's origin path is its own NUL-terminated field.
	out := "R  new.go\x00old.go\x00 M plain.go\x00"

	entries := ParseStatusEntries(out)
	require.Len(t, entries, 2)

	assert.Equal(t, "new.go", entries[0].Path)
	assert.Equal(t, "old.go", entries[0].OldPath)
	assert.Equal(t, "plain.go", entries[1].Path)
	assert.Empty(t, entries[1].OldPath)
}

func TestParseStatusEntries_SpecialFilenamesPassThroughUnquoted(t *testing.T) {
	// -z never C-quotes, so these must arrive byte-for-byte; a filename
	// containing " -> " must not be mistaken for a rename either.
	out := " M ä.txt\x00?? with \"quotes\".md\x00 M a -> b.txt\x00"

	entries := ParseStatusEntries(out)
	require.Len(t, entries, 3)

	assert.Equal(t, "ä.txt", entries[0].Path)
	assert.Equal(t, `with "quotes".md`, entries[1].Path)
	assert.Equal(t, "a -> b.txt", entries[2].Path)
	for _, e := range entries {
		assert.Empty(t, e.OldPath)
	}
}

func TestIsUnmergedStatus_ExactSet(t *testing.T) {
	unmerged := map[string]bool{
		"DD": true, "AU": true, "UD": true,
		"UA": true, "DU": true, "AA": true, "UU": true,
	}

	// Every printable pair must agree with the fixed set; in particular a
	// lone U on either side is not enough.
	codes := []byte{' ', 'M', 'T', 'A', 'D', 'R', 'C', 'U', '?', '!'}
	for _, x := range codes {
		for _, y := range codes {
			pair := string([]byte{x, y})
			assert.Equal(t, unmerged[pair], IsUnmergedStatus(x, y), "pair %q", pair)
		}
	}
}

func TestStatusLineRecords_BothSidesModified(t *testing.T) {
	sl := ParseStatusLine("MM both.go")
	require.NotNil(t, sl)

	records := sl.records()
	require.Len(t, records, 2)
	assert.Equal(t, models.CategoryStaged, records[0].Category)
	assert.Equal(t, models.CategoryUnstaged, records[1].Category)
	assert.Equal(t, "both.go", records[0].Path)
	assert.Equal(t, "MM", records[0].StatusCode)
}

func TestStatusLineRecords_ConflictNeverStaged(t *testing.T) {
	sl := ParseStatusLine("UU clash.go")
	require.NotNil(t, sl)

	records := sl.records()
	require.Len(t, records, 1)
	assert.Equal(t, models.CategoryConflict, records[0].Category)
}

func TestStatusLineRecords_UnknownPairFallsBackToUntracked(t *testing.T) {
	sl := &StatusLine{X: 'X', Y: 'Z', Path: "weird.go"}

	records := sl.records()
	require.Len(t, records, 1)
	assert.Equal(t, models.CategoryUntracked, records[0].Category)
}

func TestLoadStatus_CategorizesSnapshot(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("status --porcelain -z",
		"M  staged.go\x00"+
			" M unstaged.go\x00"+
			"MM both.go\x00"+
			"?? fresh.txt\x00"+
			"UU clash.go\x00"+
			"R  new.go\x00old.go\x00")
	fake.stub("symbolic-ref --short -q HEAD", "main\n")

	engine := newTestEngine(fake)
	snapshot, err := engine.LoadStatus(ctx, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "main", snapshot.Branch)
	assert.Len(t, snapshot.Staged, 3) // staged.go, both.go, new.go
	assert.Len(t, snapshot.Unstaged, 2)
	assert.Len(t, snapshot.Untracked, 1)
	assert.Len(t, snapshot.Conflicts, 1)
	assert.Equal(t, "clash.go", snapshot.Conflicts[0].Path)
	assert.Equal(t, "old.go", snapshot.Staged[2].OldPath)
	assert.Equal(t, 7, snapshot.TotalChanges())
	assert.False(t, snapshot.Clean())
}

func TestLoadStatus_NonASCIIPathsStayUsableForMutations(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("status --porcelain -z", " M ä.txt\x00")
	fake.stub("add -- ä.txt", "")

	engine := newTestEngine(fake)
	root := t.TempDir()

	snapshot, err := engine.LoadStatus(ctx, root)
	require.NoError(t, err)
	require.Len(t, snapshot.Unstaged, 1)
	assert.Equal(t, "ä.txt", snapshot.Unstaged[0].Path)

	// The reported path must route straight back into a mutation.
	require.NoError(t, engine.StagePath(ctx, root, snapshot.Unstaged[0].Path))
	call := fake.lastCallWithPrefix("add")
	require.NotNil(t, call)
	assert.Equal(t, []string{"git", "add", "--", "ä.txt"}, call.Argv)
}

func TestLoadStatus_CleanTree(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("status --porcelain -z", "")

	engine := newTestEngine(fake)
	snapshot, err := engine.LoadStatus(ctx, t.TempDir())
	require.NoError(t, err)

	assert.True(t, snapshot.Clean())
	assert.Empty(t, snapshot.Branch) // detached or unreadable HEAD
}

func TestLoadStatus_ConcurrentCallsCoalesce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stubSlow("status --porcelain -z", " M slow.go\x00", 50*time.Millisecond)

	engine := newTestEngine(fake)
	root := t.TempDir()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := engine.LoadStatus(ctx, root)
			done <- err
		}()
	}
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.Equal(t, 1, fake.countPrefix("status --porcelain"))
}

func TestLoadStatus_FailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stubResult("status --porcelain -z", runner.Result{}, &models.ExecutionError{
		Command:  "git",
		ExitCode: 128,
		Stderr:   "fatal: not a git repository",
	})

	engine := newTestEngine(fake)
	_, err := engine.LoadStatus(ctx, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
}
