// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl holds the HLSL-level vocabulary shared by the compiler
// frontend and the DXIL binding remapper.
//
// # Shader Model Support
//
// ShaderModel is a {Major, Minor} pair. DXC accepts Shader Model 6.0 and
// newer; the zero value means "use the highest model the compiler supports":
//
//	sm := hlsl.ShaderModel{}.Clamp(hlsl.ShaderModel6_0, hlsl.ShaderModel6_5) // SM 6.5
//
// # Profiles
//
// A profile combines a ShaderKind prefix with the model suffix:
//
//	profile, _ := hlsl.Profile(hlsl.ShaderKindPixel, hlsl.ShaderModel6_0)  // "ps_6_0"
//	profile, _ = hlsl.Profile(hlsl.ShaderKindRayGen, hlsl.ShaderModel6_3)  // "lib_6_3"
//
// # Register Binding
//
// HLSL uses register-based resource binding with spaces:
//
//	cbuffer : register(b#, space#)  // Constant buffers
//	Texture : register(t#, space#)  // Textures/SRVs
//	Sampler : register(s#, space#)  // Samplers
//	RWTexture: register(u#, space#) // UAVs
//
// A ResourceBindingMap names the binding an engine wants for every
// resource. Each ResourceKind belongs to exactly one RegisterType.
package hlsl
