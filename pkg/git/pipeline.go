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

	"github.com/go-git/go-git/v5/plumbing"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// Options configures one pipeline run.
type Options struct {
	// ComponentPath is the path to the component repository.
	ComponentPath string

	// CompositeURL is the URL of the composite repository.
	CompositeURL string

	// Ref optionally overrides the branch to propagate. Defaults to the
	// component repository's HEAD.
	Ref string

	// CustomHeaders are "Name: value" transport headers applied to both
	// fetch and push.
	CustomHeaders []string
}

// Result describes a completed pipeline run.
type Result struct {
	// Branch is the composite branch that was committed to and pushed.
	Branch BranchName

	// Commit is the new composite commit.
	Commit plumbing.Hash

	// SubmodulePath is the path of the updated submodule.
	SubmodulePath string

	// Pin is the commit the submodule is now pinned to.
	Pin plumbing.Hash
}

// RunPipeline propagates the component repository's current commit into the
// composite repository. Stages run strictly in sequence, each a hard
// dependency of the next; nothing is pushed until every prior stage has
// succeeded.
func RunPipeline(ctx context.Context, opts Options) (*Result, error) {
	const op errors.Op = "git.RunPipeline"

	// Argument validation happens before any I/O.
	auth, err := NewHeaderAuth(opts.CustomHeaders)
	if err != nil {
		return nil, errors.E(op, err)
	}

	component, err := OpenComponent(opts.ComponentPath)
	if err != nil {
		return nil, errors.E(op, err)
	}
	ref, err := ResolveComponentRef(component, opts.Ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	branch, err := branchFromRef(ref.Name)
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam, err)
	}
	klog.V(2).Infof("propagating %s at %s", ref.Name, ref.Commit)

	workspace, err := CloneComposite(ctx, opts.CompositeURL, auth)
	if err != nil {
		return nil, errors.E(op, err)
	}
	defer workspace.Release()

	branchRef, err := EnsureBranch(workspace.Repo, branch)
	if err != nil {
		return nil, errors.E(op, err)
	}

	sub, err := FindSubmoduleByCommit(ctx, workspace.Repo, ref.Commit, auth)
	if err != nil {
		return nil, errors.E(op, err)
	}

	pinned, err := PatchSubmodule(workspace.Repo, sub, ref.Commit)
	if err != nil {
		return nil, errors.E(op, err)
	}

	commit, err := CommitSubmoduleUpdate(workspace.Repo, branchRef, sub.Config().Path, pinned)
	if err != nil {
		return nil, errors.E(op, err)
	}

	if err := PushBranch(ctx, workspace.Repo, auth); err != nil {
		return nil, errors.E(op, err)
	}

	return &Result{
		Branch:        branch,
		Commit:        commit,
		SubmodulePath: sub.Config().Path,
		Pin:           pinned.Hash,
	}, nil
}
