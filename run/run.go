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

package run

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/compositetools/compsync/commands"
	"github.com/compositetools/compsync/internal/util/runner"
)

var version = "unknown"

// GetMain builds the compsync root command.
func GetMain(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "compsync",
		Short:        "Compsync Composite Repository Synchronizer",
		Long: `Synchronize composite repositories with their components.

Compsync is a deployment-pipeline step: after a component repository
advances, it updates the submodule pin in the composite repository that
embeds the component, commits the change with the component commit's
authorship, and pushes the result.`,
		SilenceUsage: true,
		// We handle all errors in main after return from cobra so we can
		// adjust the error message coming from libraries
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmd.Flags().GetBool("help")
			if err != nil {
				return err
			}
			if h {
				return cmd.Help()
			}
			return cmd.Usage()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			if v {
				return cmd.Flags().Set("v", "2")
			}
			return nil
		},
	}

	// klog flags (-v and friends) drive the pipeline's trace output.
	klog.InitFlags(nil)
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cmd.PersistentFlags().Bool("verbose", false,
		"Enable trace output; shorthand for -v=2")

	// help and documentation
	cmd.InitDefaultHelpCmd()
	cmd.AddCommand(commands.GetCompsyncCommands(ctx, "compsync")...)

	// enable stack traces
	cmd.PersistentFlags().BoolVar(&runner.StackOnError, "stack-trace", false,
		"Print a stack-trace on failure")

	cmd.AddCommand(versionCmd)
	return cmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of compsync",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version)
	},
}
