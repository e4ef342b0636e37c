// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"maps"
	"slices"
	"strings"
)

// RegisterType represents the HLSL register type.
// It is the coarse four-way resource classification that both the
// compiler's reflection and the DXIL resource metadata agree on.
type RegisterType uint8

const (
	// RegisterTypeB is for constant buffers (cbuffer).
	RegisterTypeB RegisterType = iota

	// RegisterTypeT is for textures and shader resource views.
	RegisterTypeT

	// RegisterTypeS is for samplers.
	RegisterTypeS

	// RegisterTypeU is for unordered access views (UAV).
	RegisterTypeU
)

// String returns the single-character register prefix.
func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeB:
		return "b"
	case RegisterTypeT:
		return "t"
	case RegisterTypeS:
		return "s"
	case RegisterTypeU:
		return "u"
	default:
		return "b"
	}
}

// Name returns the view-class name: "CBV", "SRV", "Sampler" or "UAV".
func (rt RegisterType) Name() string {
	switch rt {
	case RegisterTypeT:
		return "SRV"
	case RegisterTypeS:
		return "Sampler"
	case RegisterTypeU:
		return "UAV"
	default:
		return "CBV"
	}
}

// ResourceKind is the engine-facing resource type of a binding.
type ResourceKind uint8

const (
	ResourceKindUnknown ResourceKind = iota
	ResourceKindConstantBuffer
	ResourceKindTextureSRV
	ResourceKindBufferSRV
	ResourceKindTextureUAV
	ResourceKindBufferUAV
	ResourceKindSampler
	ResourceKindInputAttachment
	ResourceKindAccelerationStructure
)

// String returns a human-readable kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceKindConstantBuffer:
		return "ConstantBuffer"
	case ResourceKindTextureSRV:
		return "TextureSRV"
	case ResourceKindBufferSRV:
		return "BufferSRV"
	case ResourceKindTextureUAV:
		return "TextureUAV"
	case ResourceKindBufferUAV:
		return "BufferUAV"
	case ResourceKindSampler:
		return "Sampler"
	case ResourceKindInputAttachment:
		return "InputAttachment"
	case ResourceKindAccelerationStructure:
		return "AccelerationStructure"
	default:
		return "Unknown"
	}
}

// RegisterType returns the coarse class the kind belongs to.
// The second result is false for ResourceKindUnknown.
func (k ResourceKind) RegisterType() (RegisterType, bool) {
	switch k {
	case ResourceKindConstantBuffer:
		return RegisterTypeB, true
	case ResourceKindTextureSRV, ResourceKindBufferSRV,
		ResourceKindInputAttachment, ResourceKindAccelerationStructure:
		return RegisterTypeT, true
	case ResourceKindTextureUAV, ResourceKindBufferUAV:
		return RegisterTypeU, true
	case ResourceKindSampler:
		return RegisterTypeS, true
	default:
		return RegisterTypeB, false
	}
}

// ParseResourceKind parses a kind name as produced by String
// (case-insensitive), plus the short forms "cbv", "srv", "uav" and "sampler".
func ParseResourceKind(s string) (ResourceKind, bool) {
	for k := ResourceKindConstantBuffer; k <= ResourceKindAccelerationStructure; k++ {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}
	switch {
	case strings.EqualFold(s, "cbv"), strings.EqualFold(s, "cbuffer"):
		return ResourceKindConstantBuffer, true
	case strings.EqualFold(s, "srv"), strings.EqualFold(s, "texture"):
		return ResourceKindTextureSRV, true
	case strings.EqualFold(s, "uav"):
		return ResourceKindTextureUAV, true
	}
	return ResourceKindUnknown, false
}

// BindInfo specifies the register binding an engine wants for a resource.
// HLSL uses register(x#, space#) syntax for resource binding.
type BindInfo struct {
	// Space is the register space (0-based).
	// Spaces allow multiple resources to use the same register index.
	Space uint32

	// BindPoint is the first register index within the space.
	BindPoint uint32

	// ArraySize is the number of consecutive registers the resource uses.
	// Non-array resources use 1.
	ArraySize uint32

	// Kind is the resource type the engine expects.
	Kind ResourceKind
}

// DefaultBindInfo returns a BindInfo with default values.
// Defaults to space 0, register 0, a single element.
func DefaultBindInfo(kind ResourceKind) BindInfo {
	return BindInfo{
		Space:     0,
		BindPoint: 0,
		ArraySize: 1,
		Kind:      kind,
	}
}

// WithSpace returns a copy of the BindInfo with the specified space.
func (bi BindInfo) WithSpace(space uint32) BindInfo {
	bi.Space = space
	return bi
}

// WithBindPoint returns a copy of the BindInfo with the specified register.
func (bi BindInfo) WithBindPoint(bindPoint uint32) BindInfo {
	bi.BindPoint = bindPoint
	return bi
}

// WithArraySize returns a copy of the BindInfo with the specified array size.
func (bi BindInfo) WithArraySize(size uint32) BindInfo {
	bi.ArraySize = size
	return bi
}

// ResourceBindingMap maps resource names to the bindings an engine wants.
type ResourceBindingMap map[string]BindInfo

// Names returns the resource names in sorted order.
func (m ResourceBindingMap) Names() []string {
	return slices.Sorted(maps.Keys(m))
}
