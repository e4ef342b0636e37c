// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"github.com/gogpu/dxcbind/dxil"
	"github.com/gogpu/dxcbind/hlsl"
)

// ProgramType is the program kind stored in the upper half of a shader
// version, in D3D12 encoding order.
type ProgramType uint32

const (
	ProgramPixel ProgramType = iota
	ProgramVertex
	ProgramGeometry
	ProgramHull
	ProgramDomain
	ProgramCompute
	ProgramLibrary
	ProgramRayGeneration
	ProgramIntersection
	ProgramAnyHit
	ProgramClosestHit
	ProgramMiss
	ProgramCallable
	ProgramMesh
	ProgramAmplification
)

var programKinds = [...]hlsl.ShaderKind{
	ProgramPixel:         hlsl.ShaderKindPixel,
	ProgramVertex:        hlsl.ShaderKindVertex,
	ProgramGeometry:      hlsl.ShaderKindGeometry,
	ProgramHull:          hlsl.ShaderKindHull,
	ProgramDomain:        hlsl.ShaderKindDomain,
	ProgramCompute:       hlsl.ShaderKindCompute,
	ProgramLibrary:       hlsl.ShaderKindUnknown,
	ProgramRayGeneration: hlsl.ShaderKindRayGen,
	ProgramIntersection:  hlsl.ShaderKindRayIntersection,
	ProgramAnyHit:        hlsl.ShaderKindRayAnyHit,
	ProgramClosestHit:    hlsl.ShaderKindRayClosestHit,
	ProgramMiss:          hlsl.ShaderKindRayMiss,
	ProgramCallable:      hlsl.ShaderKindCallable,
	ProgramMesh:          hlsl.ShaderKindMesh,
	ProgramAmplification: hlsl.ShaderKindAmplification,
}

// ShaderKind returns the stage of the program type. Libraries and
// unknown types map to ShaderKindUnknown.
func (t ProgramType) ShaderKind() hlsl.ShaderKind {
	if int(t) < len(programKinds) {
		return programKinds[t]
	}
	return hlsl.ShaderKindUnknown
}

// ProgramTypeOf returns the program type of a single stage.
func ProgramTypeOf(kind hlsl.ShaderKind) (ProgramType, bool) {
	if kind == hlsl.ShaderKindUnknown {
		return 0, false
	}
	for t, k := range programKinds {
		if k == kind {
			return ProgramType(t), true
		}
	}
	return 0, false
}

// EncodeShaderVersion packs a program type and shader model into a
// shader version.
func EncodeShaderVersion(t ProgramType, model hlsl.ShaderModel) uint32 {
	return uint32(t)<<16 | uint32(model.Major&0xf)<<4 | uint32(model.Minor&0xf)
}

// ShaderDesc describes a shader or, through the library adapter, a
// single library function.
type ShaderDesc struct {
	// Version is the program type and shader model, see EncodeShaderVersion.
	Version          uint32
	Creator          string
	ConstantBuffers  uint32
	BoundResources   uint32
	InputParameters  uint32
	OutputParameters uint32
	InstructionCount uint32
}

// ProgramType returns the program type encoded in Version.
func (d ShaderDesc) ProgramType() ProgramType {
	return ProgramType(d.Version >> 16)
}

// ShaderModel returns the shader model encoded in Version.
func (d ShaderDesc) ShaderModel() hlsl.ShaderModel {
	return hlsl.ShaderModel{Major: uint8(d.Version >> 4 & 0xf), Minor: uint8(d.Version & 0xf)}
}

// ShaderInputType is the type of a bound resource, in D3D_SIT order.
type ShaderInputType uint32

const (
	InputCBuffer ShaderInputType = iota
	InputTBuffer
	InputTexture
	InputSampler
	InputUAVRWTyped
	InputStructured
	InputUAVRWStructured
	InputByteAddress
	InputUAVRWByteAddress
	InputUAVAppendStructured
	InputUAVConsumeStructured
	InputUAVRWStructuredWithCounter
	InputRTAccelerationStructure
	InputUAVFeedbackTexture
)

var inputTypeNames = [...]string{
	"cbuffer", "tbuffer", "texture", "sampler", "uav_rwtyped", "structured",
	"uav_rwstructured", "byteaddress", "uav_rwbyteaddress", "uav_append_structured",
	"uav_consume_structured", "uav_rwstructured_with_counter",
	"rtaccelerationstructure", "uav_feedbacktexture",
}

func (t ShaderInputType) String() string {
	if int(t) < len(inputTypeNames) {
		return inputTypeNames[t]
	}
	return "unknown"
}

// RegisterType returns the coarse class of an input type.
func (t ShaderInputType) RegisterType() (hlsl.RegisterType, bool) {
	switch t {
	case InputCBuffer:
		return hlsl.RegisterTypeB, true
	case InputSampler:
		return hlsl.RegisterTypeS, true
	case InputTBuffer, InputTexture, InputStructured, InputByteAddress, InputRTAccelerationStructure:
		return hlsl.RegisterTypeT, true
	case InputUAVRWTyped, InputUAVRWStructured, InputUAVRWByteAddress, InputUAVAppendStructured,
		InputUAVConsumeStructured, InputUAVRWStructuredWithCounter, InputUAVFeedbackTexture:
		return hlsl.RegisterTypeU, true
	default:
		return hlsl.RegisterTypeB, false
	}
}

// ShaderInputBindDesc describes where a resource is bound.
type ShaderInputBindDesc struct {
	Name      string
	Type      ShaderInputType
	BindPoint uint32
	// BindCount is 0 for unbounded resource arrays, except for constant
	// buffers which report math.MaxUint32.
	BindCount uint32
	Space     uint32
	// ID is the resource record identifier.
	ID        uint32
	Dimension dxil.ResourceShape
}

// SignatureParameterDesc is one register of an input, output or patch
// constant signature.
type SignatureParameterDesc struct {
	SemanticName  string
	SemanticIndex uint32
	Register      uint32
	SystemValue   uint8
	ComponentType uint8
	Mask          uint8
}

// VariableDesc is a constant buffer member.
type VariableDesc struct {
	Name        string
	Type        string
	StartOffset uint32
	// Buffer is the name of the enclosing constant buffer.
	Buffer string
}

// ConstantBufferDesc is a constant buffer and its members.
type ConstantBufferDesc struct {
	Name      string
	Size      uint32
	Variables []VariableDesc
}

// ShaderReflection answers queries about a compiled shader.
type ShaderReflection interface {
	Desc() (ShaderDesc, error)
	ConstantBufferByIndex(index uint32) (ConstantBufferDesc, error)
	ConstantBufferByName(name string) (ConstantBufferDesc, error)
	ResourceBindingDesc(index uint32) (ShaderInputBindDesc, error)
	ResourceBindingDescByName(name string) (ShaderInputBindDesc, error)
	VariableByName(name string) (VariableDesc, error)

	InputParameterDesc(index uint32) (SignatureParameterDesc, error)
	OutputParameterDesc(index uint32) (SignatureParameterDesc, error)
	PatchConstantParameterDesc(index uint32) (SignatureParameterDesc, error)

	MovInstructionCount() (uint32, error)
	MovcInstructionCount() (uint32, error)
	ConversionInstructionCount() (uint32, error)
	BitwiseInstructionCount() (uint32, error)
	GSInputPrimitive() (uint32, error)
	IsSampleFrequencyShader() (bool, error)
	NumInterfaceSlots() (uint32, error)
	MinFeatureLevel() (uint32, error)
	ThreadGroupSize() ([3]uint32, error)
	RequiresFlags() (uint64, error)
}

// FunctionDesc describes one exported library function.
type FunctionDesc struct {
	Name string
	// Version is the stage the function is exported for, encoded like
	// ShaderDesc.Version.
	Version          uint32
	Creator          string
	ConstantBuffers  uint32
	BoundResources   uint32
	InstructionCount uint32
}

// FunctionReflection answers queries about one library function.
type FunctionReflection interface {
	Desc() (FunctionDesc, error)
	ConstantBufferByIndex(index uint32) (ConstantBufferDesc, error)
	ConstantBufferByName(name string) (ConstantBufferDesc, error)
	ResourceBindingDesc(index uint32) (ShaderInputBindDesc, error)
	ResourceBindingDescByName(name string) (ShaderInputBindDesc, error)
	VariableByName(name string) (VariableDesc, error)
}

// LibraryDesc describes a library.
type LibraryDesc struct {
	Creator       string
	FunctionCount uint32
}

// LibraryReflection answers queries about a library of exported functions.
type LibraryReflection interface {
	Desc() (LibraryDesc, error)
	FunctionByIndex(index int) (FunctionReflection, error)
}

// ContainerReflection reflects the parts of a DXIL container.
type ContainerReflection interface {
	Load(bytecode []byte) error
	FindFirstPartKind(fcc dxil.FourCC) (uint32, error)

	// ShaderReflection fails for library parts.
	ShaderReflection(part uint32) (ShaderReflection, error)

	// LibraryReflection fails for non-library parts.
	LibraryReflection(part uint32) (LibraryReflection, error)
}

// FeatureLevel12_0 is the minimum feature level of every DXIL shader.
const FeatureLevel12_0 = 0xc000
