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
	"os"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// Workspace is an ephemeral clone of the composite repository, exclusively
// owned by one pipeline run. The repository handle is only valid until
// Release is called.
type Workspace struct {
	// Repo is the cloned composite repository.
	Repo *git.Repository

	dir         string
	releaseOnce sync.Once
}

// CloneComposite clones the composite repository at url, including its
// submodules, into a fresh temporary directory.
func CloneComposite(ctx context.Context, url string, auth transport.AuthMethod) (*Workspace, error) {
	const op errors.Op = "git.CloneComposite"

	dir, err := os.MkdirTemp("", "compsync-")
	if err != nil {
		return nil, errors.E(op, err)
	}

	// Clean up the directory in case the clone fails.
	cleanup := dir
	defer func() {
		if cleanup != "" {
			os.RemoveAll(cleanup)
		}
	}()

	klog.V(2).Infof("cloning %s into %s", url, dir)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:               url,
		Auth:              auth,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return nil, errors.E(op, errors.Repo(url), errors.CloneFailed, err)
	}

	cleanup = "" // Success. The workspace owns the directory now.

	return &Workspace{Repo: repo, dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Release removes the workspace directory. The repository handle is invalid
// once Release returns. Release is idempotent; only the first call removes
// the directory.
func (w *Workspace) Release() {
	w.releaseOnce.Do(func() {
		klog.V(2).Infof("removing workspace %s", w.dir)
		if err := os.RemoveAll(w.dir); err != nil {
			klog.Warningf("cannot remove workspace %s: %v", w.dir, err)
		}
	})
}
