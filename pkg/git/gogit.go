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

// This file contains helpers for interacting with gogit object storage.

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

func storeTree(s storer.EncodedObjectStorer, tree *object.Tree) (plumbing.Hash, error) {
	eo := s.NewEncodedObject()
	if err := tree.Encode(eo); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(eo)
}

func storeCommit(s storer.EncodedObjectStorer, commit *object.Commit) (plumbing.Hash, error) {
	eo := s.NewEncodedObject()
	if err := commit.Encode(eo); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(eo)
}
