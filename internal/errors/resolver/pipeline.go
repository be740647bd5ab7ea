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

package resolver

import (
	"fmt"

	"github.com/compositetools/compsync/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&pipelineErrorResolver{})
}

// pipelineErrorResolver is an implementation of the ErrorResolver interface
// that produces user-facing messages for the typed failures of the sync
// pipeline.
type pipelineErrorResolver struct{}

func (*pipelineErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var compsyncErr *errors.Error
	if !errors.As(err, &compsyncErr) {
		return ResolvedResult{}, false
	}

	var msg string
	switch kind := errors.ErrorKind(err); kind {
	case errors.NotABranch:
		msg = "Error: The component repository HEAD is not on a branch and no --git-ref was given. " +
			"Check out a branch, or pass the ref to propagate explicitly."

	case errors.RefMismatch:
		msg = "Error: The given --git-ref does not match the commit currently checked out in the component repository."

	case errors.CloneFailed:
		msg = withRepo("Error: Failed to clone the composite repository", err)
		msg += " Verify the URL and that the supplied --custom-headers grant read access."

	case errors.CompositeCheckoutFailed:
		msg = withRepo("Error: Failed to prepare the composite branch", err)

	case errors.SubmoduleNotFound:
		msg = "Error: No submodule of the composite repository contains the target commit. " +
			"The composite repository may not reference the component yet, or its submodule pins are stale."

	case errors.CommitNotFound:
		msg = "Error: The target commit disappeared from the located submodule before it could be pinned."

	case errors.InvalidCommitMetadata:
		msg = "Error: The component commit's message or identities cannot be reused verbatim."

	case errors.CompositeNotOnBranch:
		msg = "Error: The composite repository is not on a branch; refusing to push."

	case errors.PushFailed:
		msg = withRepo("Error: Failed to push the composite branch", err)
		msg += " Verify that the supplied --custom-headers grant write access."

	default:
		return ResolvedResult{}, false
	}

	msg += fmt.Sprintf("\n\nDetails: %v", err)
	return ResolvedResult{
		Message: msg,
	}, true
}

func withRepo(msg string, err error) string {
	if repo := errors.ErrorRepo(err); repo != "" {
		return fmt.Sprintf("%s %q.", msg, string(repo))
	}
	return msg + "."
}
