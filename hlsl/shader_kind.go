// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ShaderKind classifies a compilation target stage.
// Values are bit flags so that kinds can be combined into masks.
type ShaderKind uint32

const (
	// ShaderKindUnknown is the zero value.
	ShaderKindUnknown ShaderKind = 0

	ShaderKindVertex ShaderKind = 1 << (iota - 1)
	ShaderKindPixel
	ShaderKindGeometry
	ShaderKindHull
	ShaderKindDomain
	ShaderKindCompute
	ShaderKindAmplification
	ShaderKindMesh
	ShaderKindRayGen
	ShaderKindRayMiss
	ShaderKindRayClosestHit
	ShaderKindRayAnyHit
	ShaderKindRayIntersection
	ShaderKindCallable
)

// ShaderKindAllRayTracing is the mask of every ray-tracing stage.
const ShaderKindAllRayTracing = ShaderKindRayGen | ShaderKindRayMiss | ShaderKindRayClosestHit |
	ShaderKindRayAnyHit | ShaderKindRayIntersection | ShaderKindCallable

var shaderKindNames = []struct {
	kind ShaderKind
	name string
}{
	{ShaderKindVertex, "vertex"},
	{ShaderKindPixel, "pixel"},
	{ShaderKindGeometry, "geometry"},
	{ShaderKindHull, "hull"},
	{ShaderKindDomain, "domain"},
	{ShaderKindCompute, "compute"},
	{ShaderKindAmplification, "amplification"},
	{ShaderKindMesh, "mesh"},
	{ShaderKindRayGen, "raygen"},
	{ShaderKindRayMiss, "miss"},
	{ShaderKindRayClosestHit, "closesthit"},
	{ShaderKindRayAnyHit, "anyhit"},
	{ShaderKindRayIntersection, "intersection"},
	{ShaderKindCallable, "callable"},
}

// String returns the lowercase stage name, or a "|"-joined list for masks.
func (k ShaderKind) String() string {
	if k == ShaderKindUnknown {
		return "unknown"
	}
	var names []string
	for _, n := range shaderKindNames {
		if k&n.kind != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "|")
}

// ParseShaderKind parses a stage name as produced by String.
// The attribute spellings used by [shader("...")] are accepted too.
func ParseShaderKind(s string) (ShaderKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "fragment", "ps":
		return ShaderKindPixel, nil
	case "vs":
		return ShaderKindVertex, nil
	case "cs":
		return ShaderKindCompute, nil
	case "raygeneration":
		return ShaderKindRayGen, nil
	}
	for _, n := range shaderKindNames {
		if n.name == name {
			return n.kind, nil
		}
	}
	return ShaderKindUnknown, errors.Newf("unknown shader kind %q", s)
}

// IsRayTracing reports whether k is one of the ray-tracing stages.
// Ray-tracing stages are compiled as libraries.
func (k ShaderKind) IsRayTracing() bool {
	return k != ShaderKindUnknown && k&^ShaderKindAllRayTracing == 0
}

// ProfilePrefix returns the profile prefix for a single stage:
// "vs", "ps", "gs", "hs", "ds", "cs", "as", "ms" or "lib".
func (k ShaderKind) ProfilePrefix() string {
	switch k {
	case ShaderKindVertex:
		return "vs"
	case ShaderKindPixel:
		return "ps"
	case ShaderKindGeometry:
		return "gs"
	case ShaderKindHull:
		return "hs"
	case ShaderKindDomain:
		return "ds"
	case ShaderKindCompute:
		return "cs"
	case ShaderKindAmplification:
		return "as"
	case ShaderKindMesh:
		return "ms"
	}
	if k.IsRayTracing() {
		return "lib"
	}
	return ""
}

// Profile builds the compiler profile string for a stage and model,
// for example "ps_6_0" or "lib_6_3".
func Profile(kind ShaderKind, model ShaderModel) (string, error) {
	prefix := kind.ProfilePrefix()
	if prefix == "" {
		return "", errors.Newf("no profile for shader kind %s", kind)
	}
	return prefix + "_" + model.ProfileSuffix(), nil
}
