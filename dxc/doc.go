// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dxc drives the DirectX Shader Compiler.
//
// A Compiler loads its native library lazily through Options.Open and then
// compiles HLSL, validates and signs DXIL, reflects compiled shaders and
// relocates their resource bindings:
//
//	c := dxc.New(opts)
//	out, err := c.CompileShader(dxc.ShaderCreateInfo{
//		Name:       "blit",
//		Source:     src,
//		EntryPoint: "PSMain",
//		Kind:       hlsl.ShaderKindPixel,
//	}, hlsl.ShaderModel6_0, "")
//	if err != nil {
//		return err
//	}
//	remapped, err := c.RemapResourceBindings(hlsl.ResourceBindingMap{
//		"g_Texture": {Space: 1, BindPoint: 0, ArraySize: 1, Kind: hlsl.ResourceKindTextureSRV},
//	}, out.Bytecode)
//
// # Remapping
//
// RemapResourceBindings disassembles the bytecode, reads the bindings the
// compiler chose from reflection, rewrites the disassembly with package
// dxil, reassembles it and signs the result. The output behaves exactly
// like a shader compiled with the requested bindings. Ray-tracing
// libraries are patched through their resource metadata; every other
// stage through its declarations and handle-creation sites.
//
// # Errors
//
// Failures are *Error values categorized by ErrorKind and carry the log of
// the tool that rejected the input. Misuse of the API, such as an empty
// entry point or a binding declared with the wrong resource kind, is
// reported as an assertion failure (see errors.IsAssertionFailure).
package dxc
