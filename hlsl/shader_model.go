// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ShaderModel represents a DirectX Shader Model version.
// Shader Models define the feature set available for shader compilation.
//
// The zero value means "unspecified" and is resolved by the compiler
// frontend to the highest model the loaded compiler supports.
type ShaderModel struct {
	Major uint8
	Minor uint8
}

// Known Shader Model versions.
var (
	// ShaderModel5_0 is the base SM5 version (DirectX 11).
	ShaderModel5_0 = ShaderModel{5, 0}

	// ShaderModel5_1 provides improved resource binding.
	ShaderModel5_1 = ShaderModel{5, 1}

	// ShaderModel6_0 introduces wave intrinsics and DXIL.
	// It is the lowest model accepted by DXC.
	ShaderModel6_0 = ShaderModel{6, 0}

	// ShaderModel6_1 adds SV_ViewID and barycentrics.
	ShaderModel6_1 = ShaderModel{6, 1}

	// ShaderModel6_2 adds float16 and denorm control.
	ShaderModel6_2 = ShaderModel{6, 2}

	// ShaderModel6_3 adds DirectX Raytracing (DXR).
	ShaderModel6_3 = ShaderModel{6, 3}

	// ShaderModel6_4 adds variable rate shading and library subobjects.
	ShaderModel6_4 = ShaderModel{6, 4}

	// ShaderModel6_5 adds mesh shaders, sampler feedback and inline ray tracing.
	ShaderModel6_5 = ShaderModel{6, 5}

	// ShaderModel6_6 adds 64-bit atomics and dynamic resources.
	ShaderModel6_6 = ShaderModel{6, 6}

	// ShaderModel6_7 adds advanced texture ops and quad-any/all.
	ShaderModel6_7 = ShaderModel{6, 7}

	// ShaderModel6_8 adds work graphs.
	ShaderModel6_8 = ShaderModel{6, 8}
)

// String returns a human-readable representation of the shader model.
// Example: "SM 5.1", "SM 6.0"
func (sm ShaderModel) String() string {
	return fmt.Sprintf("SM %d.%d", sm.Major, sm.Minor)
}

// ProfileSuffix returns the shader profile suffix for this model.
// Example: "5_1", "6_0"
// Used to construct profiles like "vs_5_1", "ps_6_0".
func (sm ShaderModel) ProfileSuffix() string {
	return fmt.Sprintf("%d_%d", sm.Major, sm.Minor)
}

// IsZero reports whether the model is unspecified.
func (sm ShaderModel) IsZero() bool {
	return sm == ShaderModel{}
}

// Compare returns -1, 0 or +1 depending on whether sm is lower than,
// equal to or higher than other.
func (sm ShaderModel) Compare(other ShaderModel) int {
	switch {
	case sm.Major != other.Major:
		if sm.Major < other.Major {
			return -1
		}
		return 1
	case sm.Minor != other.Minor:
		if sm.Minor < other.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether sm is strictly lower than other.
func (sm ShaderModel) Less(other ShaderModel) bool {
	return sm.Compare(other) < 0
}

// AtLeast reports whether sm is equal to or higher than other.
func (sm ShaderModel) AtLeast(other ShaderModel) bool {
	return sm.Compare(other) >= 0
}

// Clamp resolves sm against the [floor, ceiling] range supported by a
// compiler. An unspecified model resolves to ceiling.
func (sm ShaderModel) Clamp(floor, ceiling ShaderModel) ShaderModel {
	switch {
	case sm.IsZero():
		return ceiling
	case sm.Less(floor):
		return floor
	case ceiling.Less(sm):
		return ceiling
	default:
		return sm
	}
}

// ParseShaderModel parses "6.5", "6_5" or "sm_6_5" style version strings.
func ParseShaderModel(s string) (ShaderModel, error) {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "sm")
	v = strings.TrimLeft(v, "_ ")
	sep := strings.IndexAny(v, "._")
	if sep <= 0 || sep == len(v)-1 {
		return ShaderModel{}, errors.Newf("invalid shader model %q", s)
	}
	major, err := strconv.ParseUint(v[:sep], 10, 8)
	if err != nil {
		return ShaderModel{}, errors.Wrapf(err, "invalid shader model %q", s)
	}
	minor, err := strconv.ParseUint(v[sep+1:], 10, 8)
	if err != nil {
		return ShaderModel{}, errors.Wrapf(err, "invalid shader model %q", s)
	}
	return ShaderModel{Major: uint8(major), Minor: uint8(minor)}, nil
}

// SupportsDXIL returns true if this shader model uses DXIL output.
// Shader Model 6.0+ uses DXIL (DirectX Intermediate Language).
// Earlier models use DXBC (DirectX Bytecode).
func (sm ShaderModel) SupportsDXIL() bool {
	return sm.AtLeast(ShaderModel6_0)
}

// SupportsWaveOps returns true if this shader model supports wave intrinsics.
// Wave operations were introduced in Shader Model 6.0.
func (sm ShaderModel) SupportsWaveOps() bool {
	return sm.AtLeast(ShaderModel6_0)
}

// SupportsMeshShaders returns true if this shader model supports mesh shaders.
// Mesh and amplification shaders were introduced in Shader Model 6.5.
func (sm ShaderModel) SupportsMeshShaders() bool {
	return sm.AtLeast(ShaderModel6_5)
}

// SupportsRayTracing returns true if this shader model supports ray tracing.
// DirectX Raytracing (DXR) was introduced in Shader Model 6.3.
func (sm ShaderModel) SupportsRayTracing() bool {
	return sm.AtLeast(ShaderModel6_3)
}

// SupportsInlineRayTracing returns true if RayQuery objects are available.
// Inline ray tracing was introduced in Shader Model 6.5.
func (sm ShaderModel) SupportsInlineRayTracing() bool {
	return sm.AtLeast(ShaderModel6_5)
}

// Supports64BitAtomics returns true if this shader model supports 64-bit atomics.
// 64-bit atomics were introduced in Shader Model 6.6.
func (sm ShaderModel) Supports64BitAtomics() bool {
	return sm.AtLeast(ShaderModel6_6)
}

// SupportsFloat16 returns true if this shader model supports native float16.
// Native 16-bit floats were introduced in Shader Model 6.2.
func (sm ShaderModel) SupportsFloat16() bool {
	return sm.AtLeast(ShaderModel6_2)
}

// SupportsVariableRateShading returns true if this shader model supports VRS.
// Variable Rate Shading was introduced in Shader Model 6.4.
func (sm ShaderModel) SupportsVariableRateShading() bool {
	return sm.AtLeast(ShaderModel6_4)
}
