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

	"github.com/go-git/go-git/v5/plumbing"
)

const (
	OriginName string = "origin"

	branchPrefixInWorktree = "refs/heads/"
	remoteTrackingPrefix   = "refs/remotes/" + OriginName + "/"
)

// BranchName represents a relative branch name (i.e. 'main') and supports
// transformation to the ReferenceName of the local branch in the composite
// worktree ('refs/heads/...') or of its remote-tracking counterpart
// ('refs/remotes/origin/...').
type BranchName string

func (b BranchName) Ref() plumbing.ReferenceName {
	return plumbing.ReferenceName(branchPrefixInWorktree + string(b))
}

func (b BranchName) RemoteTrackingRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(remoteTrackingPrefix + string(b))
}

func (b BranchName) String() string {
	return string(b)
}

// branchFromRef extracts the relative branch name from a full branch
// reference name.
func branchFromRef(name plumbing.ReferenceName) (BranchName, error) {
	b, ok := trimOptionalPrefix(name.String(), branchPrefixInWorktree)
	if !ok {
		return "", fmt.Errorf("reference %q is not a branch", name)
	}
	return BranchName(b), nil
}

func trimOptionalPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return strings.TrimPrefix(s, prefix), true
	}
	return "", false
}
