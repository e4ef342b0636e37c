// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// reservedKeywords holds the HLSL language keywords and built-in object
// types. Redefining any of them as a macro changes how the compiler
// tokenizes the rest of the source.
var reservedKeywords = func() map[string]struct{} {
	words := strings.Fields(`
		AppendStructuredBuffer asm asm_fragment BlendState break Buffer
		ByteAddressBuffer case cbuffer centroid class column_major compile
		compile_fragment CompileShader const ConstantBuffer ConsumeStructuredBuffer
		continue ComputeShader default DepthStencilState DepthStencilView
		discard do DomainShader else export extern false FeedbackTexture2D
		FeedbackTexture2DArray for fxgroup GeometryShader globallycoherent
		groupshared HullShader if in indices inline inout InputPatch interface
		line lineadj linear LineStream matrix namespace nointerpolation
		noperspective NULL out OutputPatch packoffset pass payload PixelShader
		point PointStream precise primitives RasterizerState RasterizerOrderedBuffer
		RasterizerOrderedByteAddressBuffer RasterizerOrderedStructuredBuffer
		RasterizerOrderedTexture1D RasterizerOrderedTexture1DArray
		RasterizerOrderedTexture2D RasterizerOrderedTexture2DArray
		RasterizerOrderedTexture3D RayDesc RayQuery RaytracingAccelerationStructure
		register return row_major RWBuffer RWByteAddressBuffer RWStructuredBuffer
		RWTexture1D RWTexture1DArray RWTexture2D RWTexture2DArray RWTexture2DMS
		RWTexture2DMSArray RWTexture3D sample sampler SamplerComparisonState
		SamplerState shared snorm stateblock stateblock_state static string
		struct StructuredBuffer switch tbuffer technique technique10 technique11
		template texture Texture1D Texture1DArray Texture2D Texture2DArray
		Texture2DMS Texture2DMSArray Texture3D TextureCube TextureCubeArray
		triangle triangleadj TriangleStream true typedef uniform unorm unsigned
		vector vertexfragment VertexShader vertices void volatile while
	`)
	result := make(map[string]struct{}, len(words)+512)
	for _, w := range words {
		result[w] = struct{}{}
	}

	// Scalar, vector and matrix type shorthands: float, float4, float4x4.
	scalars := []string{
		"bool", "int", "uint", "dword", "half", "float", "double",
		"min10float", "min16float", "min12int", "min16int", "min16uint",
		"int16_t", "int32_t", "int64_t", "uint16_t", "uint32_t", "uint64_t",
		"float16_t", "float32_t", "float64_t",
	}
	for _, s := range scalars {
		result[s] = struct{}{}
		for r := 1; r <= 4; r++ {
			result[s+strconv.Itoa(r)] = struct{}{}
			for c := 1; c <= 4; c++ {
				result[s+strconv.Itoa(r)+"x"+strconv.Itoa(c)] = struct{}{}
			}
		}
	}
	return result
}()

// IsReserved reports whether name is an HLSL keyword or built-in type name.
func IsReserved(name string) bool {
	_, ok := reservedKeywords[name]
	return ok
}

// IsIdentifier reports whether name is a valid preprocessor identifier.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// CheckMacros verifies that every macro has a usable name: a valid
// identifier that does not shadow a keyword, a built-in type or the
// name of an earlier macro.
func CheckMacros(macros []Macro) error {
	seen := make(map[string]struct{}, len(macros))
	for i, m := range macros {
		switch {
		case !IsIdentifier(m.Name):
			return errors.Newf("macro %d: invalid name %q", i, m.Name)
		case IsReserved(m.Name):
			return errors.Newf("macro %d: %q is a reserved HLSL keyword", i, m.Name)
		case strings.HasPrefix(m.Name, "__"):
			return errors.Newf("macro %d: %q uses a reserved prefix", i, m.Name)
		}
		if _, dup := seen[m.Name]; dup {
			return errors.Newf("macro %d: %q is defined twice", i, m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
