// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNoMatch is reported by the scanner when the text at the cursor does
// not have the expected shape.
var ErrNoMatch = errors.New("pattern not found")

// mismatchError records what the scanner expected and where.
type mismatchError struct {
	pos  int
	want string
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("expected %s at offset %d", e.want, e.pos)
}

func (e *mismatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// PatchError describes why the disassembly of a shader could not be patched.
type PatchError struct {
	// Resource is the name of the offending resource, if known.
	Resource string

	// Record names the record kind that could not be located or matched,
	// for example "space", "binding" or "createHandle".
	Record string

	// Reason provides details.
	Reason string

	// Err is the underlying scanner error, if any.
	Err error
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	msg := e.Reason
	if e.Record != "" {
		msg = e.Record + " record: " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Resource != "" {
		return fmt.Sprintf("patching failed for resource '%s': %s", e.Resource, msg)
	}
	return "patching failed: " + msg
}

// Unwrap returns the underlying scanner error.
func (e *PatchError) Unwrap() error {
	return e.Err
}

func patchError(resource, record string, err error, format string, args ...any) error {
	return errors.WithStack(&PatchError{
		Resource: resource,
		Record:   record,
		Reason:   fmt.Sprintf(format, args...),
		Err:      err,
	})
}
