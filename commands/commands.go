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

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/compositetools/compsync/internal/cmdpipeline"
)

// GetCompsyncCommands returns the set of compsync commands to be registered
func GetCompsyncCommands(ctx context.Context, name string) []*cobra.Command {
	c := []*cobra.Command{
		cmdpipeline.NewCommand(ctx, name),
	}

	// apply cross-cutting issues to commands
	NormalizeCommand(c...)
	return c
}

// NormalizeCommand will modify commands to be consistent, e.g. silencing errors
func NormalizeCommand(c ...*cobra.Command) {
	for i := range c {
		cmd := c[i]
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		NormalizeCommand(cmd.Commands()...)
	}
}
