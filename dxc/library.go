// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import "fmt"

// Version is a compiler version.
type Version struct {
	Major uint32
	Minor uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor uint32) bool {
	return v.Major > major || v.Major == major && v.Minor >= minor
}

// Define is a preprocessor definition passed to the compiler.
type Define struct {
	Name  string
	Value string
}

// IncludeHandler provides the contents of included files.
type IncludeHandler interface {
	LoadSource(name string) ([]byte, error)
}

// CompileRequest is one invocation of the native compiler.
type CompileRequest struct {
	Source     []byte
	SourceName string
	EntryPoint string
	Profile    string
	Args       []string
	Defines    []Define

	// Includes resolves #include directives. It may be nil.
	Includes IncludeHandler
}

// Result is the outcome of a native compiler, assembler or validator call.
type Result struct {
	// Output is the produced blob. A successful validation may return a
	// nil Output when the input was signed in place.
	Output []byte

	// Log holds diagnostics, possibly even on success.
	Log string

	// Failed reports whether the tool rejected its input.
	Failed bool
}

// Library is a loaded native compiler. Every call is a self-contained
// session; implementations must be safe for concurrent use.
type Library interface {
	// Version reports the compiler version.
	Version() (Version, error)

	// Compile compiles HLSL source.
	Compile(req *CompileRequest) (*Result, error)

	// Disassemble returns the textual form of bytecode in Output.
	Disassemble(bytecode []byte) (*Result, error)

	// Assemble builds a container from disassembly text.
	Assemble(text []byte) (*Result, error)

	// Validate validates and signs bytecode. It may edit bytecode in place.
	Validate(bytecode []byte) (*Result, error)
}

// ContainerReflector is implemented by libraries that provide their own
// container reflection. Libraries without it are reflected through their
// disassembly.
type ContainerReflector interface {
	NewContainerReflection() (ContainerReflection, error)
}

// OpenFunc loads the named native compiler.
type OpenFunc func(name string) (Library, error)
