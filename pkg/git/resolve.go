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
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/compositetools/compsync/internal/errors"
)

// ComponentRef identifies what is being propagated: the component branch
// and the commit it points at. It is resolved once at the start of the
// pipeline and never re-read.
type ComponentRef struct {
	// Name is the full reference name, e.g. 'refs/heads/main'.
	Name plumbing.ReferenceName

	// Commit is the commit the reference points at.
	Commit plumbing.Hash
}

// OpenComponent opens the component repository at path. The path may point
// at a worktree (with a .git directory) or directly at a git directory.
func OpenComponent(path string) (*git.Repository, error) {
	const op errors.Op = "git.OpenComponent"

	var dot billy.Filesystem = osfs.New(path)
	var worktree billy.Filesystem
	dotgit := dot
	if fi, err := dot.Stat(git.GitDirName); err == nil && fi.IsDir() {
		fs, err := dot.Chroot(git.GitDirName)
		if err != nil {
			return nil, errors.E(op, errors.Repo(path), err)
		}
		dotgit = fs
		worktree = dot
	}

	storage := filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, worktree)
	if err != nil {
		return nil, errors.E(op, errors.Repo(path), err)
	}
	return repo, nil
}

// ResolveComponentRef determines the component branch being propagated and
// its current commit. With no override the repository HEAD must be on a
// branch. An override ref is accepted as either a full reference name or a
// branch shorthand, and must point at the commit currently checked out.
func ResolveComponentRef(repo *git.Repository, override string) (*ComponentRef, error) {
	const op errors.Op = "git.ResolveComponentRef"

	head, err := repo.Head()
	if err != nil {
		return nil, errors.E(op, err)
	}

	if override == "" {
		if !head.Name().IsBranch() {
			return nil, errors.E(op, errors.NotABranch,
				fmt.Errorf("no ref given and HEAD is detached at %s", head.Hash()))
		}
		return &ComponentRef{Name: head.Name(), Commit: head.Hash()}, nil
	}

	name := plumbing.ReferenceName(override)
	if !strings.HasPrefix(override, "refs/") {
		name = plumbing.NewBranchReferenceName(override)
	}
	if !name.IsBranch() {
		return nil, errors.E(op, errors.InvalidParam,
			fmt.Errorf("ref %q is not a branch reference", override))
	}

	ref, err := repo.Reference(name, true)
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam,
			fmt.Errorf("cannot resolve ref %q: %w", override, err))
	}
	if ref.Hash() != head.Hash() {
		return nil, errors.E(op, errors.RefMismatch,
			fmt.Errorf("ref %q is at %s but HEAD is at %s", override, ref.Hash(), head.Hash()))
	}

	return &ComponentRef{Name: name, Commit: ref.Hash()}, nil
}
