// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

// functionShaderReflection presents the sole function of a library as a
// shader. Members that have no function-level counterpart return
// ErrNotSupported.
type functionShaderReflection struct {
	fn FunctionReflection
}

// NewFunctionShaderReflection adapts a library function to ShaderReflection.
func NewFunctionShaderReflection(fn FunctionReflection) ShaderReflection {
	return &functionShaderReflection{fn: fn}
}

func (a *functionShaderReflection) Desc() (ShaderDesc, error) {
	fd, err := a.fn.Desc()
	if err != nil {
		return ShaderDesc{}, err
	}
	return ShaderDesc{
		Version:          fd.Version,
		Creator:          fd.Creator,
		ConstantBuffers:  fd.ConstantBuffers,
		BoundResources:   fd.BoundResources,
		InstructionCount: fd.InstructionCount,
	}, nil
}

func (a *functionShaderReflection) ConstantBufferByIndex(index uint32) (ConstantBufferDesc, error) {
	return a.fn.ConstantBufferByIndex(index)
}

func (a *functionShaderReflection) ConstantBufferByName(name string) (ConstantBufferDesc, error) {
	return a.fn.ConstantBufferByName(name)
}

func (a *functionShaderReflection) ResourceBindingDesc(index uint32) (ShaderInputBindDesc, error) {
	return a.fn.ResourceBindingDesc(index)
}

func (a *functionShaderReflection) ResourceBindingDescByName(name string) (ShaderInputBindDesc, error) {
	return a.fn.ResourceBindingDescByName(name)
}

func (a *functionShaderReflection) VariableByName(name string) (VariableDesc, error) {
	return a.fn.VariableByName(name)
}

func (a *functionShaderReflection) InputParameterDesc(uint32) (SignatureParameterDesc, error) {
	return SignatureParameterDesc{}, notSupported("InputParameterDesc")
}

func (a *functionShaderReflection) OutputParameterDesc(uint32) (SignatureParameterDesc, error) {
	return SignatureParameterDesc{}, notSupported("OutputParameterDesc")
}

func (a *functionShaderReflection) PatchConstantParameterDesc(uint32) (SignatureParameterDesc, error) {
	return SignatureParameterDesc{}, notSupported("PatchConstantParameterDesc")
}

func (a *functionShaderReflection) MovInstructionCount() (uint32, error) {
	return 0, notSupported("MovInstructionCount")
}

func (a *functionShaderReflection) MovcInstructionCount() (uint32, error) {
	return 0, notSupported("MovcInstructionCount")
}

func (a *functionShaderReflection) ConversionInstructionCount() (uint32, error) {
	return 0, notSupported("ConversionInstructionCount")
}

func (a *functionShaderReflection) BitwiseInstructionCount() (uint32, error) {
	return 0, notSupported("BitwiseInstructionCount")
}

func (a *functionShaderReflection) GSInputPrimitive() (uint32, error) {
	return 0, notSupported("GSInputPrimitive")
}

func (a *functionShaderReflection) IsSampleFrequencyShader() (bool, error) {
	return false, notSupported("IsSampleFrequencyShader")
}

func (a *functionShaderReflection) NumInterfaceSlots() (uint32, error) {
	return 0, notSupported("NumInterfaceSlots")
}

func (a *functionShaderReflection) MinFeatureLevel() (uint32, error) {
	return 0, notSupported("MinFeatureLevel")
}

func (a *functionShaderReflection) ThreadGroupSize() ([3]uint32, error) {
	return [3]uint32{}, notSupported("ThreadGroupSize")
}

func (a *functionShaderReflection) RequiresFlags() (uint64, error) {
	return 0, notSupported("RequiresFlags")
}
