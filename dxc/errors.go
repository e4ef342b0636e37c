// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind categorizes compiler wrapper errors.
type ErrorKind uint8

const (
	// ErrUnavailable indicates the native compiler could not be loaded.
	ErrUnavailable ErrorKind = iota

	// ErrCompilationFailed indicates the compiler rejected the source.
	ErrCompilationFailed

	// ErrValidationFailed indicates the validator rejected the bytecode.
	ErrValidationFailed

	// ErrAssemblyFailed indicates patched disassembly could not be reassembled.
	ErrAssemblyFailed

	// ErrDisassemblyFailed indicates bytecode could not be disassembled.
	ErrDisassemblyFailed

	// ErrReflectionFailed indicates no reflection could be obtained.
	ErrReflectionFailed

	// ErrPatchFailed indicates the disassembly could not be patched.
	ErrPatchFailed

	// ErrNotSupported indicates an operation the target or the reflection
	// object does not provide.
	ErrNotSupported

	// ErrInclude indicates an include file could not be provided.
	ErrInclude
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnavailable:
		return "Unavailable"
	case ErrCompilationFailed:
		return "CompilationFailed"
	case ErrValidationFailed:
		return "ValidationFailed"
	case ErrAssemblyFailed:
		return "AssemblyFailed"
	case ErrDisassemblyFailed:
		return "DisassemblyFailed"
	case ErrReflectionFailed:
		return "ReflectionFailed"
	case ErrPatchFailed:
		return "PatchFailed"
	case ErrNotSupported:
		return "NotSupported"
	case ErrInclude:
		return "Include"
	default:
		return "Unknown"
	}
}

// Error is returned by every failing operation of a Compiler.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Log is the diagnostic output of the compiler, assembler or
	// validator, if it produced any.
	Log string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("dxc %s: %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newError(kind ErrorKind, err error, format string, args ...any) error {
	return errors.WithStack(&Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	})
}

func newLogError(kind ErrorKind, log string, format string, args ...any) error {
	return errors.WithStack(&Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Log:     log,
	})
}

// Include resolution errors. They are distinct causes.
var (
	// ErrIncludeNotFound is returned when the stream factory has no such file.
	ErrIncludeNotFound = errors.New("include file not found")

	// ErrIncludeNameEncoding is returned for include names that are empty
	// or not representable as single-byte characters.
	ErrIncludeNameEncoding = errors.New("include file name must be an ANSI string")
)

// ErrNotFound is returned by reflection lookups of absent names.
var ErrNotFound = errors.New("not found")

func notSupported(member string) error {
	return newError(ErrNotSupported, nil, "%s is not available from function reflection", member)
}
