// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxcexec

import "os"

// Environment variables overriding the executables of DefaultConfig.
const (
	EnvCompiler  = "DXCBIND_DXC"
	EnvAssembler = "DXCBIND_DXA"
	EnvValidator = "DXCBIND_DXV"
)

// Config locates the DirectX Shader Compiler tools.
type Config struct {
	// Compiler is the dxc executable. It compiles, disassembles and
	// reports the version.
	Compiler string

	// Assembler is the dxa executable. Without it remapped shaders
	// cannot be reassembled.
	Assembler string

	// Validator is the dxv executable. Without it, bytecode that dxc
	// already signed is accepted as is.
	Validator string

	// WorkDir holds the per-call session directories.
	// Empty means os.TempDir().
	WorkDir string
}

// DefaultConfig returns the tool names found on PATH, overridden by
// DXCBIND_DXC, DXCBIND_DXA and DXCBIND_DXV.
func DefaultConfig() Config {
	return Config{
		Compiler:  envOr(EnvCompiler, "dxc"),
		Assembler: envOr(EnvAssembler, "dxa"),
		Validator: envOr(EnvValidator, "dxv"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
