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
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/internal/errors"
)

// PushBranch pushes the composite repository's checked-out branch to origin
// under the same reference name. No force push and no other refspecs; a
// rejected push is reported verbatim. A remote that is already up to date
// is success, so re-running an already-applied sync stays safe.
func PushBranch(ctx context.Context, repo *git.Repository, auth transport.AuthMethod) error {
	const op errors.Op = "git.PushBranch"

	head, err := repo.Head()
	if err != nil {
		return errors.E(op, err)
	}
	if !head.Name().IsBranch() {
		return errors.E(op, errors.CompositeNotOnBranch,
			fmt.Errorf("HEAD is detached at %s", head.Hash()))
	}

	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))
	klog.Infof("pushing %s to %s", head.Name().Short(), OriginName)

	switch err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: OriginName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       auth,
	}); {
	case err == nil:
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		klog.Infof("%s is already up to date", head.Name().Short())
	default:
		return errors.E(op, errors.PushFailed, err)
	}
	return nil
}
