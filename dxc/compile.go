// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"

	"github.com/gogpu/dxcbind/hlsl"
)

// CompileAttribs are the inputs of a single low-level compilation.
type CompileAttribs struct {
	// Source is the complete HLSL source. Required.
	Source []byte

	// SourceName is used in diagnostics.
	SourceName string

	// EntryPoint names the function to compile. Required.
	EntryPoint string

	// Profile is the target profile, e.g. "ps_6_0". Required.
	Profile string

	Defines []Define
	Args    []string

	// Includes opens included files. It may be nil.
	Includes StreamFactory
}

// Output is compiled bytecode together with the compiler log.
type Output struct {
	Bytecode []byte

	// Log is the compiler diagnostic output. It is set even on success
	// when the compiler produced warnings.
	Log string
}

func (a *CompileAttribs) check() error {
	switch {
	case len(a.Source) == 0:
		return errors.AssertionFailedf("Source must not be empty")
	case a.EntryPoint == "":
		return errors.AssertionFailedf("EntryPoint must not be empty")
	case a.Profile == "":
		return errors.AssertionFailedf("Profile must not be empty")
	}
	for i, d := range a.Defines {
		if d.Name == "" {
			return errors.AssertionFailedf("Defines[%d] has no name", i)
		}
	}
	for i, arg := range a.Args {
		if arg == "" {
			return errors.AssertionFailedf("Args[%d] is empty", i)
		}
	}
	return nil
}

// Compile runs the compiler on attrs. Direct3D12 output is validated and
// signed before it is returned.
func (c *Compiler) Compile(attrs CompileAttribs) (*Output, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	if err := attrs.check(); err != nil {
		return nil, err
	}

	req := &CompileRequest{
		Source:     attrs.Source,
		SourceName: attrs.SourceName,
		EntryPoint: attrs.EntryPoint,
		Profile:    attrs.Profile,
		Args:       attrs.Args,
		Defines:    attrs.Defines,
	}
	var includes *includeHandler
	if attrs.Includes != nil {
		includes = newIncludeHandler(attrs.Includes)
		req.Includes = includes
	}

	res, err := lib.Compile(req)
	if err != nil {
		return nil, newError(ErrCompilationFailed, err, "failed to run the compiler")
	}
	if res.Failed {
		msg := "compilation failed"
		if includes != nil {
			if err := includes.failure(res.Log); err != nil {
				return nil, errors.WithStack(&Error{Kind: ErrInclude, Message: msg, Log: res.Log, Err: err})
			}
		}
		return nil, newLogError(ErrCompilationFailed, res.Log, "%s", msg)
	}
	if len(res.Output) == 0 {
		return nil, newLogError(ErrCompilationFailed, res.Log, "compiler produced no bytecode")
	}

	out := &Output{Bytecode: res.Output, Log: res.Log}
	if c.opts.Target == TargetDirect3D12 {
		signed, err := c.validateAndSign(lib, res.Output)
		if err != nil {
			return nil, err
		}
		out.Bytecode = signed
	}
	return out, nil
}

// ShaderCreateInfo describes a shader to compile from HLSL.
type ShaderCreateInfo struct {
	// Name identifies the shader in diagnostics.
	Name string

	// Source is the HLSL source. If empty, FilePath is read through Includes.
	Source string

	// FilePath is loaded when Source is empty.
	FilePath string

	// EntryPoint defaults to "main".
	EntryPoint string

	Kind   hlsl.ShaderKind
	Macros []hlsl.Macro

	// Includes opens FilePath and included files.
	Includes StreamFactory
}

// CompileShader compiles a shader for the requested shader model.
//
// The model is clamped to the range the compiler supports: a zero model
// selects MaxShaderModel. Macros and extraDefinitions are prepended to the
// source and DXCOMPILER is always defined.
func (c *Compiler) CompileShader(ci ShaderCreateInfo, model hlsl.ShaderModel, extraDefinitions string) (*Output, error) {
	if _, err := c.library(); err != nil {
		return nil, err
	}

	model = c.resolveShaderModel(model)
	profile, err := hlsl.Profile(ci.Kind, model)
	if err != nil {
		return nil, errors.AssertionFailedf("shader '%s': %v", ci.Name, err)
	}
	if err := hlsl.CheckMacros(ci.Macros); err != nil {
		return nil, errors.AssertionFailedf("shader '%s': %v", ci.Name, err)
	}

	source := ci.Source
	if source == "" {
		if source, err = loadSourceFile(ci.Includes, ci.FilePath); err != nil {
			return nil, err
		}
	}

	entry := ci.EntryPoint
	if entry == "" {
		entry = "main"
	}
	name := ci.Name
	if name == "" {
		name = ci.FilePath
	}

	out, err := c.Compile(CompileAttribs{
		Source:     []byte(hlsl.BuildSource(source, ci.Macros, extraDefinitions)),
		SourceName: name,
		EntryPoint: entry,
		Profile:    profile,
		Defines:    []Define{{Name: "DXCOMPILER"}},
		Args:       c.compileArgs(model),
		Includes:   ci.Includes,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile shader '%s'", name)
	}
	return out, nil
}

func loadSourceFile(factory StreamFactory, path string) (string, error) {
	if path == "" {
		return "", errors.AssertionFailedf("either Source or FilePath must be set")
	}
	if factory == nil {
		return "", errors.AssertionFailedf("a stream factory is required to load '%s'", path)
	}
	r, err := factory.Open(path)
	if err != nil {
		return "", newError(ErrInclude, errors.Mark(err, ErrIncludeNotFound), "failed to open shader source '%s'", path)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", newError(ErrInclude, err, "failed to read shader source '%s'", path)
	}
	return string(data), nil
}

// compileArgs returns the target-specific compiler arguments.
func (c *Compiler) compileArgs(model hlsl.ShaderModel) []string {
	if c.opts.Target == TargetVulkan {
		args := []string{"-spirv", "-fspv-reflect", "-O3", "-Zpc"}
		api := c.opts.APIVersion
		switch {
		case api.IsAtLeast(common.Vulkan1_2) && model.AtLeast(hlsl.ShaderModel6_3):
			// Ray tracing needs SM 6.3 and inline ray tracing SM 6.5,
			// both on Vulkan 1.2.
			args = append(args, "-fspv-target-env=vulkan1.2")
		case api.IsAtLeast(common.Vulkan1_1):
			// Wave operations need Vulkan 1.1.
			args = append(args, "-fspv-target-env=vulkan1.1")
		}
		return args
	}

	args := []string{"-Zpc"}
	optimizes := c.version.AtLeast(1, 5)
	switch {
	case c.opts.Debug:
		args = append(args, "-Zi", "-Od")
		if optimizes {
			args = append(args, "-Qembed_debug")
		}
	case optimizes:
		args = append(args, "-O3")
	default:
		// Older compilers miscompile optimized code.
		args = append(args, "-Od")
	}
	return args
}
