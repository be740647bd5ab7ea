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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/compositetools/compsync/internal/errors/resolver"
	"github.com/compositetools/compsync/run"
)

func main() {
	cmd := run.GetMain(context.Background())

	if err := cmd.Execute(); err != nil {
		// Match the error against the known error resolvers so the user
		// gets an actionable message rather than a raw library error.
		if rr, ok := resolver.ResolveError(err); ok {
			fmt.Fprintln(os.Stderr, rr.Message)
			os.Exit(rr.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
