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

// Package git implements the composite-repository synchronization pipeline
// on top of go-git.
//
// The pipeline propagates the current commit of a component repository into
// a composite repository that pins the component as a git submodule. It
// resolves the component branch, clones the composite repository into a
// temporary workspace, checks out the matching branch, locates the submodule
// whose object store contains the target commit, repoints its pin, creates
// a commit that reuses the component commit's author, committer and message,
// and pushes the branch to origin.
//
// Nothing is pushed until every prior stage has succeeded, so a failed run
// leaves no durable effect on the upstream repositories. The temporary
// workspace is discarded wholesale on every exit path.
package git
