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
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// CommitSubmoduleUpdate creates a new commit on the composite branch whose
// tree pins the submodule at subPath to the pinned commit. The pinned
// commit's author and committer are reused verbatim and its message is
// embedded:
//
//	Update submodule <path> to <hash>
//	---
//	<original message>
//
// The new commit has exactly one parent, the branch's current tip, and the
// branch reference is advanced with a compare-and-swap so a concurrent
// writer cannot be silently overwritten.
func CommitSubmoduleUpdate(repo *git.Repository, branchRef plumbing.ReferenceName, subPath string, pinned *object.Commit) (plumbing.Hash, error) {
	const op errors.Op = "git.CommitSubmoduleUpdate"
	var zero plumbing.Hash

	if err := validateCommitMetadata(pinned); err != nil {
		return zero, errors.E(op, errors.InvalidCommitMetadata, err)
	}

	tip, err := repo.Reference(branchRef, true)
	if err != nil {
		return zero, errors.E(op, err)
	}
	tipCommit, err := repo.CommitObject(tip.Hash())
	if err != nil {
		return zero, errors.E(op, err)
	}
	root, err := tipCommit.Tree()
	if err != nil {
		return zero, errors.E(op, err)
	}

	treeHash, err := replaceGitlink(repo.Storer, root, subPath, pinned.Hash)
	if err != nil {
		return zero, errors.E(op, err)
	}

	message := fmt.Sprintf("Update submodule %s to %s\n---\n%s", subPath, pinned.Hash, pinned.Message)
	commit := &object.Commit{
		Author:       pinned.Author,
		Committer:    pinned.Committer,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{tip.Hash()},
	}
	commitHash, err := storeCommit(repo.Storer, commit)
	if err != nil {
		return zero, errors.E(op, err)
	}

	newRef := plumbing.NewHashReference(branchRef, commitHash)
	if err := repo.Storer.CheckAndSetReference(newRef, tip); err != nil {
		return zero, errors.E(op, err)
	}

	klog.Infof("committed %s on %s (pin %s at %s)", commitHash, branchRef.Short(), subPath, pinned.Hash)
	return commitHash, nil
}

// validateCommitMetadata rejects component commits whose metadata cannot be
// reused verbatim. Message content is never silently substituted.
func validateCommitMetadata(c *object.Commit) error {
	if c.Message == "" {
		return fmt.Errorf("commit %s has an empty message", c.Hash)
	}
	if !utf8.ValidString(c.Message) {
		return fmt.Errorf("commit %s message is not valid UTF-8", c.Hash)
	}
	for _, sig := range []object.Signature{c.Author, c.Committer} {
		if !utf8.ValidString(sig.Name) || !utf8.ValidString(sig.Email) {
			return fmt.Errorf("commit %s identity is not valid UTF-8", c.Hash)
		}
	}
	return nil
}

// replaceGitlink rewrites the trees along path so the final component is a
// gitlink entry pointing at pin, stores every rewritten tree, and returns
// the hash of the rewritten root. All other entries are carried over
// unchanged.
func replaceGitlink(s storer.EncodedObjectStorer, tree *object.Tree, path string, pin plumbing.Hash) (plumbing.Hash, error) {
	name, rest, nested := strings.Cut(path, "/")

	if !nested {
		if existing := findEntry(tree, name); existing == nil {
			return plumbing.ZeroHash, fmt.Errorf("no tree entry for submodule %q", name)
		}
		setOrAddTreeEntry(tree, object.TreeEntry{
			Name: name,
			Mode: filemode.Submodule,
			Hash: pin,
		})
	} else {
		existing := findEntry(tree, name)
		if existing == nil || existing.Mode != filemode.Dir {
			return plumbing.ZeroHash, fmt.Errorf("path element %q is not a directory", name)
		}
		subTree, err := object.GetTree(s, existing.Hash)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("cannot read tree %s at %q: %w", existing.Hash, name, err)
		}
		subHash, err := replaceGitlink(s, subTree, rest, pin)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		setOrAddTreeEntry(tree, object.TreeEntry{
			Name: name,
			Mode: filemode.Dir,
			Hash: subHash,
		})
	}

	sort.Slice(tree.Entries, func(i, j int) bool {
		return entrySortKey(&tree.Entries[i]) < entrySortKey(&tree.Entries[j])
	})
	return storeTree(s, tree)
}

// Returns a pointer to the entry if found (by name); nil if not found
func findEntry(tree *object.Tree, name string) *object.TreeEntry {
	for i := range tree.Entries {
		e := &tree.Entries[i]
		if e.Name == name {
			return e
		}
	}
	return nil
}

// setOrAddTreeEntry will overwrite the existing entry (by name) or insert if not present.
func setOrAddTreeEntry(tree *object.Tree, entry object.TreeEntry) {
	for i := range tree.Entries {
		e := &tree.Entries[i]
		if e.Name == entry.Name {
			*e = entry // Overwrite the tree entry
			return
		}
	}
	// Not found. append new
	tree.Entries = append(tree.Entries, entry)
}

// Git sorts tree entries as though directories have '/' appended to them.
func entrySortKey(e *object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
