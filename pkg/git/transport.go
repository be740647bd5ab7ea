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
	nethttp "net/http"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/compositetools/compsync/internal/errors"
)

// headerAuth applies caller-supplied HTTP headers to every transport
// request. It is how authentication reaches both fetch and push; compsync
// never interprets the header values.
type headerAuth struct {
	fields []headerField
}

type headerField struct {
	name  string
	value string
}

var _ githttp.AuthMethod = (*headerAuth)(nil)

// NewHeaderAuth parses "Name: value" header strings into a transport auth
// method. It returns a nil AuthMethod when no headers are given, so anonymous
// access stays anonymous.
func NewHeaderAuth(headers []string) (transport.AuthMethod, error) {
	const op errors.Op = "git.NewHeaderAuth"
	if len(headers) == 0 {
		return nil, nil
	}

	fields := make([]headerField, 0, len(headers))
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.E(op, errors.InvalidParam,
				fmt.Errorf("malformed header %q; expected \"Name: value\"", h))
		}
		fields = append(fields, headerField{
			name:  name,
			value: strings.TrimSpace(value),
		})
	}
	return &headerAuth{fields: fields}, nil
}

func (a *headerAuth) Name() string {
	return "http-custom-headers"
}

// String lists header names only; values may carry credentials.
func (a *headerAuth) String() string {
	names := make([]string, 0, len(a.fields))
	for _, f := range a.fields {
		names = append(names, f.name)
	}
	return fmt.Sprintf("%s: [%s]", a.Name(), strings.Join(names, ", "))
}

func (a *headerAuth) SetAuth(r *nethttp.Request) {
	if a == nil {
		return
	}
	for _, f := range a.fields {
		r.Header.Set(f.name, f.value)
	}
}
