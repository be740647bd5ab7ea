// Copyright 2025 The compsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	testUserName  = "Jane Developer"
	testUserEmail = "jane@example.com"
)

func testSignature(when time.Time) object.Signature {
	return object.Signature{
		Name:  testUserName,
		Email: testUserEmail,
		When:  when,
	}
}

// newUpstreamRepo returns an empty in-memory bare repository whose default
// branch is main. These act as the "server side" repositories in tests.
func newUpstreamRepo(t *testing.T) *git.Repository {
	t.Helper()

	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("failed to initialize upstream repository: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.Main)
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to set HEAD: %v", err)
	}
	return repo
}

func storeTestBlob(t *testing.T, s storer.EncodedObjectStorer, content string) plumbing.Hash {
	t.Helper()

	eo := s.NewEncodedObject()
	eo.SetType(plumbing.BlobObject)
	w, err := eo.Writer()
	if err != nil {
		t.Fatalf("failed to get blob writer: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write blob: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close blob writer: %v", err)
	}
	h, err := s.SetEncodedObject(eo)
	if err != nil {
		t.Fatalf("failed to store blob: %v", err)
	}
	return h
}

func storeTestTree(t *testing.T, s storer.EncodedObjectStorer, entries []object.TreeEntry) plumbing.Hash {
	t.Helper()

	tree := &object.Tree{Entries: entries}
	sort.Slice(tree.Entries, func(i, j int) bool {
		return entrySortKey(&tree.Entries[i]) < entrySortKey(&tree.Entries[j])
	})
	h, err := storeTree(s, tree)
	if err != nil {
		t.Fatalf("failed to store tree: %v", err)
	}
	return h
}

func storeTestCommit(t *testing.T, s storer.EncodedObjectStorer, tree plumbing.Hash, parents []plumbing.Hash, message string, when time.Time) plumbing.Hash {
	t.Helper()

	commit := &object.Commit{
		Author:       testSignature(when),
		Committer:    testSignature(when),
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	h, err := storeCommit(s, commit)
	if err != nil {
		t.Fatalf("failed to store commit: %v", err)
	}
	return h
}

// buildComponentRepo builds a component repository with two commits on main:
// "initial import" and "fix bug". Both hashes are returned, oldest first.
func buildComponentRepo(t *testing.T) (*git.Repository, []plumbing.Hash) {
	t.Helper()

	repo := newUpstreamRepo(t)
	s := repo.Storer

	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	blob1 := storeTestBlob(t, s, "v1\n")
	tree1 := storeTestTree(t, s, []object.TreeEntry{
		{Name: "file.txt", Mode: filemode.Regular, Hash: blob1},
	})
	c1 := storeTestCommit(t, s, tree1, nil, "initial import", base)

	blob2 := storeTestBlob(t, s, "v2\n")
	tree2 := storeTestTree(t, s, []object.TreeEntry{
		{Name: "file.txt", Mode: filemode.Regular, Hash: blob2},
	})
	c2 := storeTestCommit(t, s, tree2, []plumbing.Hash{c1}, "fix bug", base.Add(time.Hour))

	if err := s.SetReference(plumbing.NewHashReference(plumbing.Main, c2)); err != nil {
		t.Fatalf("failed to set main: %v", err)
	}
	return repo, []plumbing.Hash{c1, c2}
}

// buildCompositeRepo builds a composite repository with a single commit on
// main that pins the component at componentURL as a submodule at subPath.
func buildCompositeRepo(t *testing.T, componentURL, subName, subPath string, pin plumbing.Hash) *git.Repository {
	t.Helper()

	repo := newUpstreamRepo(t)
	s := repo.Storer

	gitmodules := fmt.Sprintf("[submodule %q]\n\tpath = %s\n\turl = %s\n", subName, subPath, componentURL)
	modulesBlob := storeTestBlob(t, s, gitmodules)

	// Build the gitlink's tree chain from the leaf up.
	parts := strings.Split(subPath, "/")
	entry := object.TreeEntry{
		Name: parts[len(parts)-1],
		Mode: filemode.Submodule,
		Hash: pin,
	}
	for i := len(parts) - 2; i >= 0; i-- {
		treeHash := storeTestTree(t, s, []object.TreeEntry{entry})
		entry = object.TreeEntry{Name: parts[i], Mode: filemode.Dir, Hash: treeHash}
	}

	root := storeTestTree(t, s, []object.TreeEntry{
		{Name: ".gitmodules", Mode: filemode.Regular, Hash: modulesBlob},
		entry,
	})
	c := storeTestCommit(t, s, root, nil, "add component submodule",
		time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC))

	if err := s.SetReference(plumbing.NewHashReference(plumbing.Main, c)); err != nil {
		t.Fatalf("failed to set main: %v", err)
	}
	return repo
}

// cloneLocal clones url into a temporary directory, standing in for the
// component checkout a pipeline job works from.
func cloneLocal(t *testing.T, url string) (string, *git.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		t.Fatalf("failed to clone %s: %v", url, err)
	}
	return dir, repo
}

// initWorktreeRepo initializes an empty repository with a worktree, with
// main as the default branch.
func initWorktreeRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize repository: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.Main)
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to set HEAD: %v", err)
	}
	return dir, repo
}

// commitFile writes a file into the worktree and commits it.
func commitFile(t *testing.T, dir string, repo *git.Repository, name, content, message string) plumbing.Hash {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
	sig := testSignature(time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC))
	h, err := w.Commit(message, &git.CommitOptions{Author: &sig, Committer: &sig})
	if err != nil {
		t.Fatalf("failed to commit %s: %v", name, err)
	}
	return h
}

func detachHead(t *testing.T, repo *git.Repository, hash plumbing.Hash) {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		t.Fatalf("failed to detach HEAD at %s: %v", hash, err)
	}
}

func resolveRef(t *testing.T, repo *git.Repository, name plumbing.ReferenceName) *plumbing.Reference {
	t.Helper()

	ref, err := repo.Reference(name, true)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", name, err)
	}
	return ref
}
