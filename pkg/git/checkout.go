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
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// EnsureBranch makes the named branch the active working state of the
// composite repository. The branch is created at the remote-tracking tip of
// the same name when one exists, otherwise at the clone's current HEAD
// commit. An already existing local branch is reused rather than treated as
// an error, so re-running the pipeline against the same workspace layout is
// safe.
func EnsureBranch(repo *git.Repository, branch BranchName) (plumbing.ReferenceName, error) {
	const op errors.Op = "git.EnsureBranch"

	var basis plumbing.Hash
	switch remote, err := repo.Reference(branch.RemoteTrackingRef(), true); {
	case err == nil:
		klog.V(2).Infof("using remote-tracking branch %s at %s", branch.RemoteTrackingRef(), remote.Hash())
		basis = remote.Hash()
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		head, err := repo.Head()
		if err != nil {
			return "", errors.E(op, errors.CompositeCheckoutFailed, err)
		}
		klog.V(2).Infof("no remote-tracking branch %s, using HEAD at %s", branch.RemoteTrackingRef(), head.Hash())
		basis = head.Hash()
	default:
		return "", errors.E(op, errors.CompositeCheckoutFailed, err)
	}

	local := branch.Ref()
	switch _, err := repo.Reference(local, false); {
	case err == nil:
		klog.Infof("branch %s already exists, reusing it", branch)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		if err := repo.Storer.SetReference(plumbing.NewHashReference(local, basis)); err != nil {
			return "", errors.E(op, errors.CompositeCheckoutFailed, err)
		}
		klog.V(2).Infof("created branch %s at %s", branch, basis)
	default:
		return "", errors.E(op, errors.CompositeCheckoutFailed, err)
	}

	w, err := repo.Worktree()
	if err != nil {
		return "", errors.E(op, errors.CompositeCheckoutFailed, err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
		return "", errors.E(op, errors.CompositeCheckoutFailed, err)
	}

	return local, nil
}
