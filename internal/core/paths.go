package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkarlen/grist/internal/models"
)

// ResolveWithinRoot resolves a caller-supplied repository-relative path and
// confirms the result lies inside root after symlink normalization. Symlinks
// on the deepest existing ancestor are followed; non-existent tail segments
// are allowed since mutations may target paths git knows about but the
// working tree no longer holds. Every mutation that takes a caller-supplied
// path must pass this check before the path reaches the command layer.
func ResolveWithinRoot(root, path string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", &models.ValidationError{Field: "path", Reason: fmt.Sprintf("cannot resolve root: %v", err)}
	}
	if resolved, err := filepath.EvalSymlinks(rootAbs); err == nil {
		rootAbs = resolved
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(rootAbs, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved, err := resolveExistingAncestor(candidate)
	if err != nil {
		return "", &models.ValidationError{Field: "path", Reason: fmt.Sprintf("cannot resolve %q: %v", path, err)}
	}

	rel, err := filepath.Rel(rootAbs, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &models.ValidationError{Field: "path", Reason: fmt.Sprintf("%q is outside the repository root", path)}
	}
	return resolved, nil
}

// resolveExistingAncestor follows symlinks on the longest existing prefix of
// path and rejoins the non-existent remainder.
func resolveExistingAncestor(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}

// relToRoot converts a contained absolute path back to the repository-
// relative form git expects in pathspecs.
func relToRoot(root, resolved string) string {
	rootAbs, err := filepath.Abs(root)
	if err == nil {
		if r, err := filepath.EvalSymlinks(rootAbs); err == nil {
			rootAbs = r
		}
		if rel, err := filepath.Rel(rootAbs, resolved); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return resolved
}
