// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"log"

	"github.com/vkngwrapper/core/common"
)

// Target selects the intermediate representation the compiler produces.
type Target uint8

const (
	// TargetDirect3D12 produces validated and signed DXIL.
	TargetDirect3D12 Target = iota

	// TargetVulkan produces SPIR-V. SPIR-V is never validated and its
	// bindings cannot be remapped.
	TargetVulkan
)

// String returns the target name.
func (t Target) String() string {
	switch t {
	case TargetDirect3D12:
		return "Direct3D12"
	case TargetVulkan:
		return "Vulkan"
	default:
		return "Unknown"
	}
}

// DefaultLibraryName returns the native compiler module loaded for a target.
func (t Target) DefaultLibraryName() string {
	if t == TargetVulkan {
		return "spv_dxcompiler"
	}
	return "dxcompiler"
}

// Options configures a Compiler.
type Options struct {
	// Target selects DXIL or SPIR-V output.
	Target Target

	// APIVersion is the Vulkan version SPIR-V is produced for. It gates
	// the SPIR-V target environment. Ignored for Direct3D12.
	APIVersion common.APIVersion

	// LibraryName overrides the native compiler module name.
	// Empty means Target.DefaultLibraryName().
	LibraryName string

	// Debug compiles with debug information and without optimization.
	Debug bool

	// Logger receives informational messages and warnings.
	// If nil, log.Default() is used.
	Logger *log.Logger

	// Open loads the native compiler. If nil, the compiler is unavailable.
	Open OpenFunc
}

// DefaultOptions returns options for an optimizing Direct3D12 compiler.
func DefaultOptions() Options {
	return Options{
		Target:     TargetDirect3D12,
		APIVersion: common.Vulkan1_0,
		Debug:      false,
	}
}

func (o *Options) libraryName() string {
	if o.LibraryName != "" {
		return o.LibraryName
	}
	return o.Target.DefaultLibraryName()
}
