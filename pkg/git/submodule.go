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
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// FindSubmoduleByCommit scans the composite repository's submodules and
// returns the first one whose object store contains the target commit.
// Identity is content-based: the same component may be mirrored at
// different paths over time, so the submodule is located by commit
// containment rather than by a configured path. The scan is linear with an
// early exit; when more than one submodule contains the commit, the first
// one in iteration order wins.
//
// A submodule that fails to update or open is skipped with a logged reason;
// only a scan that exhausts every candidate fails.
func FindSubmoduleByCommit(ctx context.Context, repo *git.Repository, target plumbing.Hash, auth transport.AuthMethod) (*git.Submodule, error) {
	const op errors.Op = "git.FindSubmoduleByCommit"

	w, err := repo.Worktree()
	if err != nil {
		return nil, errors.E(op, err)
	}
	submodules, err := w.Submodules()
	if err != nil {
		return nil, errors.E(op, err)
	}

	for _, sub := range submodules {
		cfg := sub.Config()
		if err := sub.UpdateContext(ctx, &git.SubmoduleUpdateOptions{Init: true, Auth: auth}); err != nil {
			klog.Warningf("skipping submodule %s: update failed: %v", cfg.Name, err)
			continue
		}
		subRepo, err := sub.Repository()
		if err != nil {
			klog.Warningf("skipping submodule %s: cannot open: %v", cfg.Name, err)
			continue
		}
		if _, err := subRepo.CommitObject(target); err != nil {
			klog.V(2).Infof("submodule %s does not contain %s", cfg.Name, target)
			continue
		}
		klog.Infof("found submodule %s at %s containing %s", cfg.Name, cfg.Path, target)
		return sub, nil
	}

	return nil, errors.E(op, errors.SubmoduleNotFound,
		fmt.Errorf("no submodule contains commit %s", target))
}

// PatchSubmodule repoints the submodule to the target commit: the nested
// repository's HEAD is detached to the commit and the new pin is staged
// into the composite repository's index. No commit is created here. The
// pinned commit is returned so its metadata can be reused.
func PatchSubmodule(repo *git.Repository, sub *git.Submodule, target plumbing.Hash) (*object.Commit, error) {
	const op errors.Op = "git.PatchSubmodule"

	subRepo, err := sub.Repository()
	if err != nil {
		return nil, errors.E(op, err)
	}

	// Checked independently of the locator: the two calls may race against
	// a shared object store.
	commit, err := subRepo.CommitObject(target)
	if err != nil {
		return nil, errors.E(op, errors.CommitNotFound,
			fmt.Errorf("commit %s not in submodule %s: %w", target, sub.Config().Name, err))
	}

	if err := subRepo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, commit.Hash)); err != nil {
		return nil, errors.E(op, err)
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, errors.E(op, err)
	}
	path := sub.Config().Path
	switch entry, err := idx.Entry(path); {
	case err == nil:
		entry.Hash = commit.Hash
	case errors.Is(err, index.ErrEntryNotFound):
		idx.Entries = append(idx.Entries, &index.Entry{
			Name: path,
			Mode: filemode.Submodule,
			Hash: commit.Hash,
		})
	default:
		return nil, errors.E(op, err)
	}
	if err := repo.Storer.SetIndex(idx); err != nil {
		return nil, errors.E(op, err)
	}

	klog.V(2).Infof("staged submodule %s at %s", path, commit.Hash)
	return commit, nil
}
