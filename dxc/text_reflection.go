// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/dxil"
	"github.com/gogpu/dxcbind/hlsl"
)

// DXIL semantic kind and interpolation mode values used to detect
// per-sample pixel shaders.
const (
	systemValueSampleIndex           = 12
	interpolationLinearSample        = 6
	interpolationNoperspectiveSample = 7
)

// NewTextContainerReflection returns a container reflection that reads
// metadata from the disassembly lib produces. Reflecting a remapped
// container therefore reports the bindings it was patched to.
func NewTextContainerReflection(lib Library) ContainerReflection {
	return &textContainerReflection{lib: lib}
}

type textContainerReflection struct {
	lib       Library
	container *dxil.Container
	module    *dxil.Module
}

func (r *textContainerReflection) Load(bytecode []byte) error {
	c, err := dxil.ParseContainer(bytecode)
	if err != nil {
		return err
	}
	res, err := r.lib.Disassemble(bytecode)
	if err != nil {
		return errors.Wrap(err, "failed to disassemble")
	}
	if res.Failed {
		return newLogError(ErrDisassemblyFailed, res.Log, "failed to disassemble")
	}
	m, err := dxil.ParseModule(string(res.Output))
	if err != nil {
		return err
	}
	r.container, r.module = c, m
	return nil
}

func (r *textContainerReflection) FindFirstPartKind(fcc dxil.FourCC) (uint32, error) {
	if r.container == nil {
		return 0, errors.AssertionFailedf("no container loaded")
	}
	for i, p := range r.container.Parts {
		if p.FourCC == fcc {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "part %s", fcc)
}

func (r *textContainerReflection) checkPart(part uint32) error {
	if r.container == nil {
		return errors.AssertionFailedf("no container loaded")
	}
	if int(part) >= len(r.container.Parts) {
		return errors.Wrapf(ErrNotFound, "part %d", part)
	}
	if fcc := r.container.Parts[part].FourCC; fcc != dxil.FourCCDXIL && fcc != dxil.FourCCDebugInfo {
		return errors.Newf("part %d is %s, not a program", part, fcc)
	}
	return nil
}

func (r *textContainerReflection) ShaderReflection(part uint32) (ShaderReflection, error) {
	if err := r.checkPart(part); err != nil {
		return nil, err
	}
	if r.module.IsLibrary() {
		return nil, errors.New("part holds a library, not a shader")
	}
	var flags uint64
	if b, ok := r.container.Part(dxil.FourCCFeatureInfo); ok && len(b) >= 8 {
		flags = binary.LittleEndian.Uint64(b)
	}
	return &textShaderReflection{moduleView: moduleView{r.module}, flags: flags}, nil
}

func (r *textContainerReflection) LibraryReflection(part uint32) (LibraryReflection, error) {
	if err := r.checkPart(part); err != nil {
		return nil, err
	}
	if !r.module.IsLibrary() {
		return nil, errors.Newf("part holds a %s shader, not a library", r.module.Program)
	}
	return &textLibraryReflection{moduleView{r.module}}, nil
}

// moduleView answers the queries shared by shaders and library functions.
type moduleView struct {
	m *dxil.Module
}

func (v moduleView) constantBuffers() []dxil.Resource {
	var cbs []dxil.Resource
	for _, r := range v.m.Resources {
		if r.Class == hlsl.RegisterTypeB {
			cbs = append(cbs, r)
		}
	}
	return cbs
}

func (v moduleView) bufferDesc(r dxil.Resource) ConstantBufferDesc {
	desc := ConstantBufferDesc{Name: r.Name, Size: r.Size}
	if b, ok := v.m.Buffer(r.Name); ok {
		for _, vr := range b.Variables {
			desc.Variables = append(desc.Variables, VariableDesc{
				Name: vr.Name, Type: vr.Type, StartOffset: vr.Offset, Buffer: b.Name,
			})
		}
	}
	return desc
}

func (v moduleView) ConstantBufferByIndex(index uint32) (ConstantBufferDesc, error) {
	cbs := v.constantBuffers()
	if int(index) >= len(cbs) {
		return ConstantBufferDesc{}, errors.Wrapf(ErrNotFound, "constant buffer %d", index)
	}
	return v.bufferDesc(cbs[index]), nil
}

func (v moduleView) ConstantBufferByName(name string) (ConstantBufferDesc, error) {
	for _, r := range v.constantBuffers() {
		if r.Name == name {
			return v.bufferDesc(r), nil
		}
	}
	return ConstantBufferDesc{}, errors.Wrapf(ErrNotFound, "constant buffer '%s'", name)
}

func (v moduleView) ResourceBindingDesc(index uint32) (ShaderInputBindDesc, error) {
	if int(index) >= len(v.m.Resources) {
		return ShaderInputBindDesc{}, errors.Wrapf(ErrNotFound, "resource %d", index)
	}
	return bindDesc(v.m.Resources[index]), nil
}

func (v moduleView) ResourceBindingDescByName(name string) (ShaderInputBindDesc, error) {
	r, ok := v.m.Resource(name)
	if !ok || name == "" {
		return ShaderInputBindDesc{}, errors.Wrapf(ErrNotFound, "resource '%s'", name)
	}
	return bindDesc(r), nil
}

func (v moduleView) VariableByName(name string) (VariableDesc, error) {
	for _, b := range v.m.Buffers {
		for _, vr := range b.Variables {
			if vr.Name == name {
				return VariableDesc{Name: vr.Name, Type: vr.Type, StartOffset: vr.Offset, Buffer: b.Name}, nil
			}
		}
	}
	return VariableDesc{}, errors.Wrapf(ErrNotFound, "variable '%s'", name)
}

func bindDesc(r dxil.Resource) ShaderInputBindDesc {
	desc := ShaderInputBindDesc{
		Name:      r.Name,
		Type:      inputType(r),
		BindPoint: r.LowerBound,
		BindCount: r.RangeSize,
		Space:     r.Space,
		ID:        r.RecordID,
		Dimension: r.Shape,
	}
	if r.RangeSize == math.MaxUint32 && r.Class != hlsl.RegisterTypeB {
		desc.BindCount = 0
	}
	return desc
}

func inputType(r dxil.Resource) ShaderInputType {
	switch r.Class {
	case hlsl.RegisterTypeB:
		return InputCBuffer
	case hlsl.RegisterTypeS:
		return InputSampler
	case hlsl.RegisterTypeU:
		switch r.Shape {
		case dxil.ShapeStructuredBuffer:
			if r.HasCounter {
				return InputUAVRWStructuredWithCounter
			}
			return InputUAVRWStructured
		case dxil.ShapeRawBuffer:
			return InputUAVRWByteAddress
		case dxil.ShapeFeedbackTexture2D, dxil.ShapeFeedbackTexture2DArray:
			return InputUAVFeedbackTexture
		}
		return InputUAVRWTyped
	}
	switch r.Shape {
	case dxil.ShapeTBuffer:
		return InputTBuffer
	case dxil.ShapeStructuredBuffer:
		return InputStructured
	case dxil.ShapeRawBuffer:
		return InputByteAddress
	case dxil.ShapeRTAccelerationStructure:
		return InputRTAccelerationStructure
	}
	return InputTexture
}

type textShaderReflection struct {
	moduleView
	flags uint64
}

func (r *textShaderReflection) entry() dxil.EntryPoint {
	if len(r.m.EntryPoints) == 0 {
		return dxil.EntryPoint{}
	}
	return r.m.EntryPoints[0]
}

func (r *textShaderReflection) Desc() (ShaderDesc, error) {
	t, ok := ProgramTypeOf(r.m.Kind())
	if !ok {
		return ShaderDesc{}, errors.Newf("unknown program type %q", r.m.Program)
	}
	ep := r.entry()
	return ShaderDesc{
		Version:          EncodeShaderVersion(t, r.m.ShaderModel),
		Creator:          r.m.Creator,
		ConstantBuffers:  uint32(len(r.constantBuffers())),
		BoundResources:   uint32(len(r.m.Resources)),
		InputParameters:  uint32(len(parameters(ep.Inputs))),
		OutputParameters: uint32(len(parameters(ep.Outputs))),
		InstructionCount: uint32(r.m.InstructionCount),
	}, nil
}

// parameters expands signature elements into one parameter per row.
func parameters(elems []dxil.SignatureElement) []SignatureParameterDesc {
	var params []SignatureParameterDesc
	for _, e := range elems {
		mask := uint8(1)<<e.Cols - 1
		mask <<= uint(max(e.StartCol, 0))
		for row := uint32(0); row < e.Rows; row++ {
			p := SignatureParameterDesc{
				SemanticName:  e.SemanticName,
				Register:      math.MaxUint32,
				SystemValue:   e.SystemValue,
				ComponentType: e.ComponentType,
				Mask:          mask,
			}
			if int(row) < len(e.SemanticIndex) {
				p.SemanticIndex = e.SemanticIndex[row]
			}
			if e.StartRow >= 0 {
				p.Register = uint32(e.StartRow) + row
			}
			params = append(params, p)
		}
	}
	return params
}

func parameterAt(elems []dxil.SignatureElement, index uint32, what string) (SignatureParameterDesc, error) {
	params := parameters(elems)
	if int(index) >= len(params) {
		return SignatureParameterDesc{}, errors.Wrapf(ErrNotFound, "%s parameter %d", what, index)
	}
	return params[index], nil
}

func (r *textShaderReflection) InputParameterDesc(index uint32) (SignatureParameterDesc, error) {
	return parameterAt(r.entry().Inputs, index, "input")
}

func (r *textShaderReflection) OutputParameterDesc(index uint32) (SignatureParameterDesc, error) {
	return parameterAt(r.entry().Outputs, index, "output")
}

func (r *textShaderReflection) PatchConstantParameterDesc(index uint32) (SignatureParameterDesc, error) {
	return parameterAt(r.entry().PatchConstants, index, "patch constant")
}

// DXIL does not track these counters.

func (r *textShaderReflection) MovInstructionCount() (uint32, error)        { return 0, nil }
func (r *textShaderReflection) MovcInstructionCount() (uint32, error)       { return 0, nil }
func (r *textShaderReflection) ConversionInstructionCount() (uint32, error) { return 0, nil }
func (r *textShaderReflection) BitwiseInstructionCount() (uint32, error)    { return 0, nil }
func (r *textShaderReflection) GSInputPrimitive() (uint32, error)           { return 0, nil }
func (r *textShaderReflection) NumInterfaceSlots() (uint32, error)          { return 0, nil }

func (r *textShaderReflection) IsSampleFrequencyShader() (bool, error) {
	if r.m.Kind() != hlsl.ShaderKindPixel {
		return false, nil
	}
	for _, in := range r.entry().Inputs {
		switch {
		case in.SystemValue == systemValueSampleIndex,
			in.Interpolation == interpolationLinearSample,
			in.Interpolation == interpolationNoperspectiveSample:
			return true, nil
		}
	}
	return false, nil
}

func (r *textShaderReflection) MinFeatureLevel() (uint32, error) {
	return FeatureLevel12_0, nil
}

func (r *textShaderReflection) ThreadGroupSize() ([3]uint32, error) {
	return r.entry().NumThreads, nil
}

func (r *textShaderReflection) RequiresFlags() (uint64, error) {
	return r.flags, nil
}

type textLibraryReflection struct {
	moduleView
}

func (r *textLibraryReflection) Desc() (LibraryDesc, error) {
	return LibraryDesc{Creator: r.m.Creator, FunctionCount: uint32(len(r.m.EntryPoints))}, nil
}

func (r *textLibraryReflection) FunctionByIndex(index int) (FunctionReflection, error) {
	if index < 0 || index >= len(r.m.EntryPoints) {
		return nil, errors.Wrapf(ErrNotFound, "function %d", index)
	}
	return &textFunctionReflection{moduleView: r.moduleView, entry: r.m.EntryPoints[index]}, nil
}

type textFunctionReflection struct {
	moduleView
	entry dxil.EntryPoint
}

func (r *textFunctionReflection) Desc() (FunctionDesc, error) {
	t, ok := ProgramTypeOf(r.entry.Kind)
	if !ok {
		t = ProgramLibrary
	}
	return FunctionDesc{
		Name:             r.entry.Name,
		Version:          EncodeShaderVersion(t, r.m.ShaderModel),
		Creator:          r.m.Creator,
		ConstantBuffers:  uint32(len(r.constantBuffers())),
		BoundResources:   uint32(len(r.m.Resources)),
		InstructionCount: uint32(r.m.InstructionCount),
	}, nil
}
