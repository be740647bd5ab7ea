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

// Package cmdpipeline contains the pipeline command
package cmdpipeline

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compositetools/compsync/internal/errors"
	"github.com/compositetools/compsync/internal/util/runner"
	"github.com/compositetools/compsync/pkg/git"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context, parent string) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "pipeline",
		Short: "Propagate the component repository's commit into the composite repository",
		Long: `Propagate the component repository's current commit into the composite
repository that pins the component as a git submodule. The matching composite
branch is checked out (created from its remote-tracking branch when needed),
the submodule containing the commit is located by content, its pin is
rewritten, and the resulting commit is pushed to origin.`,
		Example: fmt.Sprintf(`  # propagate the current branch of the repository in the working directory
  %[1]s pipeline --composite-repository https://example.com/platform/composite.git

  # propagate an explicit branch, authenticating with an extra header
  %[1]s pipeline --repository ./component \
    --composite-repository https://example.com/platform/composite.git \
    --git-ref refs/heads/main \
    --custom-headers 'AUTHORIZATION: basic <token>'`, parent),
		RunE:    r.runE,
		PreRunE: r.preRunE,
	}
	r.Command = c

	c.Flags().StringVar(&r.opts.ComponentPath, "repository", ".",
		"path to the component repository that is being propagated")
	c.Flags().StringVar(&r.opts.CompositeURL, "composite-repository", "",
		"URL of the composite repository")
	c.Flags().StringVar(&r.opts.Ref, "git-ref", "",
		"ref to propagate; defaults to the component repository HEAD")
	c.Flags().StringArrayVar(&r.opts.CustomHeaders, "custom-headers", nil,
		"transport headers (\"Name: value\") applied to both fetch and push; repeatable")
	return r
}

func NewCommand(ctx context.Context, parent string) *cobra.Command {
	return NewRunner(ctx, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command
	opts    git.Options
}

func (r *Runner) preRunE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdpipeline.preRunE"
	if r.opts.CompositeURL == "" {
		return errors.E(op, errors.MissingParam,
			fmt.Errorf("--composite-repository is required"))
	}
	// Reject malformed headers before any network or filesystem work.
	if _, err := git.NewHeaderAuth(r.opts.CustomHeaders); err != nil {
		return errors.E(op, err)
	}
	return nil
}

func (r *Runner) runE(c *cobra.Command, _ []string) error {
	const op errors.Op = "cmdpipeline.runE"
	result, err := git.RunPipeline(r.ctx, r.opts)
	if err != nil {
		return runner.HandleError(c, errors.E(op, err))
	}
	fmt.Fprintf(c.OutOrStdout(), "Pushed %s: submodule %s updated to %s (commit %s)\n",
		result.Branch, result.SubmodulePath, result.Pin, result.Commit)
	return nil
}
