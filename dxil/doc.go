// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dxil relocates the resource bindings of compiled DXIL shaders.
//
// The compiler chooses register slots while compiling HLSL. An engine
// with its own root signature layout needs every resource at a slot it
// picks. Instead of recompiling, the module disassembly is patched:
//
//	p := dxil.NewPatcher(bindings, resources)
//	text, err := p.Patch(disasm, dxil.StrategyFor(kind))
//
// Ordinary shaders are patched through their resource declaration
// records and every dx.op.createHandle call. Ray-tracing libraries keep
// names in metadata and are patched through it.
//
// The package also parses module metadata for text-backed reflection
// (ParseModule) and reads and writes DXIL containers (ParseContainer,
// BuildContainer, IsDXILBytecode).
package dxil
