// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/dxil"
	"github.com/gogpu/dxcbind/hlsl"
)

// Disassemble returns the textual form of DXIL bytecode.
func (c *Compiler) Disassemble(bytecode []byte) (string, error) {
	lib, err := c.library()
	if err != nil {
		return "", err
	}
	if c.opts.Target != TargetDirect3D12 {
		return "", newError(ErrNotSupported, nil, "only DXIL can be disassembled")
	}
	return disassemble(lib, bytecode)
}

func disassemble(lib Library, bytecode []byte) (string, error) {
	res, err := lib.Disassemble(bytecode)
	if err != nil {
		return "", newError(ErrDisassemblyFailed, err, "failed to run the disassembler")
	}
	if res.Failed {
		return "", newLogError(ErrDisassemblyFailed, res.Log, "failed to disassemble shader bytecode")
	}
	return string(res.Output), nil
}

// Reflect returns reflection for DXIL bytecode.
//
// Single-function libraries, as produced for ray-tracing stages, are
// reflected through their function; see NewFunctionShaderReflection.
func (c *Compiler) Reflect(bytecode []byte) (ShaderReflection, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	if c.opts.Target != TargetDirect3D12 {
		return nil, newError(ErrNotSupported, nil, "reflection is only available for DXIL")
	}
	if !dxil.IsDXILBytecode(bytecode) {
		return nil, newError(ErrReflectionFailed, nil, "bytecode is not a DXIL container")
	}

	var cr ContainerReflection
	if r, ok := lib.(ContainerReflector); ok {
		if cr, err = r.NewContainerReflection(); err != nil {
			return nil, newError(ErrReflectionFailed, err, "failed to create container reflection")
		}
	} else {
		cr = NewTextContainerReflection(lib)
	}
	if err := cr.Load(bytecode); err != nil {
		return nil, newError(ErrReflectionFailed, err, "failed to load container")
	}
	part, err := cr.FindFirstPartKind(dxil.FourCCDXIL)
	if err != nil {
		return nil, newError(ErrReflectionFailed, err, "container has no DXIL part")
	}
	if sr, err := cr.ShaderReflection(part); err == nil {
		return sr, nil
	}

	lr, err := cr.LibraryReflection(part)
	if err != nil {
		return nil, newError(ErrReflectionFailed, err, "failed to get shader or library reflection")
	}
	desc, err := lr.Desc()
	if err != nil {
		return nil, newError(ErrReflectionFailed, err, "failed to get library description")
	}
	if desc.FunctionCount != 1 {
		return nil, errors.AssertionFailedf("library reflection needs exactly one function, found %d", desc.FunctionCount)
	}
	fn, err := lr.FunctionByIndex(0)
	if err != nil {
		return nil, newError(ErrReflectionFailed, err, "failed to get library function")
	}
	return NewFunctionShaderReflection(fn), nil
}

// RemapResourceBindings returns bytecode with every resource named in
// bindings moved to its requested space and register. Names the shader
// does not use are ignored. The result is validated and signed.
//
// Remapping never returns the input unchanged on failure.
func (c *Compiler) RemapResourceBindings(bindings hlsl.ResourceBindingMap, bytecode []byte) ([]byte, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	if c.opts.Target != TargetDirect3D12 {
		return nil, newError(ErrNotSupported, nil, "resource bindings can only be remapped in DXIL")
	}
	if len(bytecode) == 0 {
		return nil, errors.AssertionFailedf("bytecode must not be empty")
	}

	disasm, err := disassemble(lib, bytecode)
	if err != nil {
		return nil, err
	}

	refl, err := c.Reflect(bytecode)
	if err != nil {
		return nil, err
	}
	desc, err := refl.Desc()
	if err != nil {
		return nil, newError(ErrReflectionFailed, err, "failed to get shader description")
	}
	kind := desc.ProgramType().ShaderKind()
	if kind == hlsl.ShaderKindUnknown {
		return nil, newError(ErrReflectionFailed, nil, "unknown shader program type %d", desc.ProgramType())
	}

	resources, err := resourceInfos(bindings, refl)
	if err != nil {
		return nil, err
	}

	p := dxil.NewPatcher(bindings, resources)
	p.Logger = c.logger()
	patched, err := p.Patch(disasm, dxil.StrategyFor(kind))
	if err != nil {
		return nil, newError(ErrPatchFailed, err, "failed to remap resource bindings")
	}

	asm, err := lib.Assemble([]byte(patched))
	if err != nil {
		return nil, newError(ErrAssemblyFailed, err, "failed to run the assembler")
	}
	if asm.Failed {
		c.logger().Printf("dxc: failed to assemble remapped shader: %s", asm.Log)
		return nil, newLogError(ErrAssemblyFailed, asm.Log, "failed to assemble remapped shader")
	}
	return c.validateAndSign(lib, asm.Output)
}

// resourceInfos reads the compiler-assigned binding of every resource in
// bindings that the shader uses.
func resourceInfos(bindings hlsl.ResourceBindingMap, refl ShaderReflection) (map[string]*dxil.ResourceInfo, error) {
	infos := make(map[string]*dxil.ResourceInfo, len(bindings))
	for _, name := range bindings.Names() {
		bind := bindings[name]
		desc, err := refl.ResourceBindingDescByName(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, newError(ErrReflectionFailed, err, "failed to get binding of resource '%s'", name)
		}

		class, ok := desc.Type.RegisterType()
		if !ok {
			return nil, newError(ErrReflectionFailed, nil, "resource '%s' has unknown input type %d", name, desc.Type)
		}
		if want, ok := bind.Kind.RegisterType(); ok && want != class {
			return nil, errors.AssertionFailedf("resource '%s' is bound as %s but the shader declares a %s",
				name, bind.Kind, class.Name())
		}
		if !bindCountMatches(bind, class, desc.BindCount) {
			return nil, errors.AssertionFailedf("resource '%s' has array size %d, the shader binds %d registers",
				name, bind.ArraySize, desc.BindCount)
		}
		infos[name] = dxil.NewResourceInfo(class, desc.Space, desc.BindPoint)
	}
	return infos, nil
}

// bindCountMatches reports whether the requested array covers the
// registers reflection reports. Unbounded arrays report 0, or
// math.MaxUint32 for constant buffers.
func bindCountMatches(bind hlsl.BindInfo, class hlsl.RegisterType, count uint32) bool {
	if class == hlsl.RegisterTypeB {
		return count == math.MaxUint32 || bind.ArraySize >= count
	}
	return count == 0 || bind.ArraySize >= count
}
