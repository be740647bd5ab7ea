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

// Package errors defines the error handling used by the compsync codebase.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

// Error is an implementation of the error interface used in the compsync
// codebase.
// It is based on the design in https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
type Error struct {
	// Repo is the repository (path or URL) involved in the operation.
	Repo Repo

	// Op is the operation being performed, for ex. git.ResolveComponentRef
	Op Op

	// Kind refers to the class of error.
	Kind Kind

	// Err refers to wrapped error (if any)
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.Repo != "" {
		pad(b, ": ")
		b.WriteString("repo ")
		b.WriteString(string(e.Repo))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		if wrappedErr, ok := e.Err.(*Error); ok {
			if !wrappedErr.Zero() {
				pad(b, ":\n\t")
				b.WriteString(wrappedErr.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// pad appends given str to the string buffer.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Zero() bool {
	return e.Op == "" && e.Repo == "" && e.Kind == 0 && e.Err == nil
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Op describes the operation being performed.
type Op string

// Repo identifies the repository involved in the operation.
type Repo string

// Kind describes the class of errors encountered.
type Kind int

const (
	Other                   Kind = iota // Unclassified. Will not be printed.
	InvalidParam                        // Value is not valid.
	MissingParam                        // Required value is missing or empty.
	NotABranch                          // Component HEAD is detached and no ref was given.
	RefMismatch                         // Given ref does not match the checked-out commit.
	CloneFailed                         // Composite repository could not be cloned.
	CompositeCheckoutFailed             // Composite branch could not be prepared.
	SubmoduleNotFound                   // No submodule contains the target commit.
	CommitNotFound                      // Target commit absent from the located submodule.
	InvalidCommitMetadata               // Original commit metadata cannot be reused verbatim.
	CompositeNotOnBranch                // Composite HEAD is detached at push time.
	PushFailed                          // Remote rejected the push or transport failed.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case InvalidParam:
		return "invalid parameter value"
	case MissingParam:
		return "missing parameter value"
	case NotABranch:
		return "HEAD is not a branch"
	case RefMismatch:
		return "ref does not match HEAD"
	case CloneFailed:
		return "clone failed"
	case CompositeCheckoutFailed:
		return "composite checkout failed"
	case SubmoduleNotFound:
		return "submodule not found"
	case CommitNotFound:
		return "commit not found"
	case InvalidCommitMetadata:
		return "invalid commit metadata"
	case CompositeNotOnBranch:
		return "composite repository is not on a branch"
	case PushFailed:
		return "push failed"
	}
	return "unknown kind"
}

func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E must have at least one argument")
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Repo:
			e.Repo = a
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		case string:
			e.Err = goerrors.New(a)
		default:
			panic(fmt.Errorf("unknown type %T for value %v in call to error.E", a, a))
		}
	}

	wrappedErr, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	if e.Repo == wrappedErr.Repo {
		wrappedErr.Repo = ""
	}

	if e.Op == wrappedErr.Op {
		wrappedErr.Op = ""
	}

	if e.Kind == wrappedErr.Kind {
		wrappedErr.Kind = 0
	}

	return e
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}

// ErrorKind returns the first classified Kind in err's chain,
// or Other if the chain contains no classified *Error.
func ErrorKind(err error) Kind {
	var e *Error
	for As(err, &e) {
		if e.Kind != Other {
			return e.Kind
		}
		err = e.Err
		e = nil
	}
	return Other
}

// ErrorRepo returns the first repository recorded in err's chain, if any.
func ErrorRepo(err error) Repo {
	var e *Error
	for As(err, &e) {
		if e.Repo != "" {
			return e.Repo
		}
		err = e.Err
		e = nil
	}
	return ""
}
