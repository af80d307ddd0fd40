package core

import (
	"context"
	"testing"

	"github.com/mkarlen/grist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagePath_UsesPathspecSeparator(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("add -- -weird-name.go", "")

	engine := newTestEngine(fake)
	require.NoError(t, engine.StagePath(ctx, t.TempDir(), "-weird-name.go"))

	// The -- separator keeps dash-prefixed paths from being read as flags.
	call := fake.lastCallWithPrefix("add")
	require.NotNil(t, call)
	assert.Equal(t, []string{"git", "add", "--", "-weird-name.go"}, call.Argv)
}

func TestUnstagePath_ResetsIndexOnly(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("reset -q -- main.go", "")

	engine := newTestEngine(fake)
	require.NoError(t, engine.UnstagePath(ctx, t.TempDir(), "main.go"))

	call := fake.lastCallWithPrefix("reset")
	require.NotNil(t, call)
	assert.Equal(t, []string{"git", "reset", "-q", "--", "main.go"}, call.Argv)
}

func TestDiscardPath_ChecksOutWorkingCopy(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	fake.stub("checkout -- main.go", "")

	engine := newTestEngine(fake)
	require.NoError(t, engine.DiscardPath(ctx, t.TempDir(), "main.go"))

	call := fake.lastCallWithPrefix("checkout")
	require.NotNil(t, call)
	assert.Equal(t, []string{"git", "checkout", "--", "main.go"}, call.Argv)
}

func TestStagingMutations_RejectEscapingPaths(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	fake := newFakeCommander()
	engine := newTestEngine(fake)

	mutations := map[string]func() error{
		"stage":   func() error { return engine.StagePath(ctx, root, "../esc.go") },
		"unstage": func() error { return engine.UnstagePath(ctx, root, "../esc.go") },
		"discard": func() error { return engine.DiscardPath(ctx, root, "../esc.go") },
	}

	for name, mutate := range mutations {
		err := mutate()
		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "%s must reject the path", name)
	}
	assert.Zero(t, fake.callCount())
}

func TestStageAll_InvalidatesStatusCache(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	fake := newFakeCommander()
	fake.stub("status --porcelain -z", "?? new.go\x00")
	fake.stub("add -A", "")

	engine := newTestEngine(fake)

	_, err := engine.LoadStatus(ctx, root)
	require.NoError(t, err)
	require.NoError(t, engine.StageAll(ctx, root))
	_, err = engine.LoadStatus(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 2, fake.countPrefix("status --porcelain"))
}
