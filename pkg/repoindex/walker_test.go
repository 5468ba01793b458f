// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWalkerEmptyTree(t *testing.T) {
	root := t.TempDir()
	w := &Walker{Root: root}
	ch := make(chan Task, 16)
	n, err := w.Walk(ch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, open := <-ch
	assert.False(t, open)
}

func TestWalkerFindsArchivesRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rpm"))
	writeFile(t, filepath.Join(root, "sub", "b.rpm"))
	writeFile(t, filepath.Join(root, "sub", "readme.txt"))

	w := &Walker{Root: root}
	ch := make(chan Task, 16)
	n, err := w.Walk(ch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var names []string
	for task := range ch {
		names = append(names, task.Filename)
	}
	assert.ElementsMatch(t, []string{"a.rpm", "b.rpm"}, names)
}

func TestWalkerExcludeGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.rpm"))
	writeFile(t, filepath.Join(root, "drop", "skip.rpm"))

	w := &Walker{Root: root, Excludes: []string{"drop/**"}}
	ch := make(chan Task, 16)
	n, err := w.Walk(ch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	task := <-ch
	assert.Equal(t, "keep.rpm", task.Filename)
}

func TestWalkerExplicitList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkgs", "one.rpm"))
	writeFile(t, filepath.Join(root, "pkgs", "two.rpm"))

	listPath := filepath.Join(root, "list.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("# comment\npkgs/one.rpm\n\npkgs/two.rpm\n"), 0o644))

	w := &Walker{Root: root, PkgList: listPath}
	ch := make(chan Task, 16)
	n, err := w.Walk(ch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWalkerSkipSymlinks(t *testing.T) {
	root := t.TempDir()
	realDir := filepath.Join(root, "real")
	writeFile(t, filepath.Join(realDir, "pkg.rpm"))
	linkDir := filepath.Join(root, "link")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	w := &Walker{Root: root, SkipSymlinks: true}
	ch := make(chan Task, 16)
	n, err := w.Walk(ch)
	require.NoError(t, err)
	assert.Equal(t, 1, n) // only real/pkg.rpm, link/ is skipped entirely
}
