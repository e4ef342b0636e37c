// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dxctest provides an in-memory compiler library for tests.
//
// The fake stores disassembly text in the DXIL part of a real container,
// so disassembly, reflection, patching and reassembly all operate on
// text. Compilation looks up a canned module by entry point.
package dxctest

import (
	"bytes"
	"crypto/md5"
	"embed"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxil"
)

//go:embed modules/*.ll
var modules embed.FS

// Canned module names.
const (
	// PixelShader is an optimized ps_6_0 shader with a texture at t2, a
	// sampler at s1 and a constant buffer at b3.
	PixelShader = "pixel"

	// ComputeShader is a cs_6_0 shader with a dynamically indexed texture
	// array at t3 and a structured UAV at u1.
	ComputeShader = "compute"

	// RayGenLibrary is a lib_6_3 library exporting one ray generation shader.
	RayGenLibrary = "raygen"

	// HitGroupLibrary is a lib_6_3 library exporting two functions.
	HitGroupLibrary = "hitgroup"

	// BlitPixelShader and BlitRayGenLibrary are the same blit compiled as
	// ps_6_0 and as a lib_6_3 ray generation shader. Both declare
	// g_Source at t1, g_Output at u2 and g_Sampler at s0.
	BlitPixelShader   = "blit_ps"
	BlitRayGenLibrary = "blit_lib"
)

// Module returns the disassembly of a canned module.
func Module(name string) string {
	b, err := modules.ReadFile("modules/" + name + ".ll")
	if err != nil {
		panic(fmt.Sprintf("dxctest: no module %q", name))
	}
	return string(b)
}

// Container wraps disassembly text into an unsigned DXIL container.
func Container(disasm string) []byte {
	return dxil.BuildContainer(dxil.Part{FourCC: dxil.FourCCDXIL, Data: []byte(disasm)})
}

// IsSigned reports whether a container carries a digest.
func IsSigned(bytecode []byte) bool {
	c, err := dxil.ParseContainer(bytecode)
	return err == nil && c.Digest != [16]byte{}
}

// Library is a fake compiler. The zero value is not usable; call New.
type Library struct {
	mu sync.Mutex

	version  dxc.Version
	modules  map[string]string
	includes []string
	requests []dxc.CompileRequest
	opened   []string

	// SignInPlace makes Validate sign its input and return no output.
	SignInPlace bool

	// ValidationLog, if set, makes Validate fail with this log.
	ValidationLog string

	// AssemblyLog, if set, makes Assemble fail with this log.
	AssemblyLog string

	// CompileLog is returned with every successful compilation.
	CompileLog string
}

// New returns a fake reporting version 1.7 that compiles the entry points
// "main" and "PSMain" to PixelShader, "CSMain" to ComputeShader,
// "RayGen" to RayGenLibrary, "HitGroup" to HitGroupLibrary, "BlitPS" to
// BlitPixelShader and "BlitRayGen" to BlitRayGenLibrary.
func New() *Library {
	l := &Library{version: dxc.Version{Major: 1, Minor: 7}, modules: map[string]string{}}
	l.AddModule("main", Module(PixelShader))
	l.AddModule("PSMain", Module(PixelShader))
	l.AddModule("CSMain", Module(ComputeShader))
	l.AddModule("RayGen", Module(RayGenLibrary))
	l.AddModule("HitGroup", Module(HitGroupLibrary))
	l.AddModule("BlitPS", Module(BlitPixelShader))
	l.AddModule("BlitRayGen", Module(BlitRayGenLibrary))
	return l
}

// SetVersion changes the reported compiler version.
func (l *Library) SetVersion(v dxc.Version) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.version = v
}

// AddModule makes compiling entry produce the given disassembly.
func (l *Library) AddModule(entry, disasm string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules[entry] = disasm
}

// RequireIncludes makes every compilation load the named files through
// its include handler.
func (l *Library) RequireIncludes(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.includes = append(l.includes[:0], names...)
}

// Requests returns the compile requests seen so far.
func (l *Library) Requests() []dxc.CompileRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]dxc.CompileRequest(nil), l.requests...)
}

// Opened returns the library names passed to Open.
func (l *Library) Opened() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.opened...)
}

// Open is a dxc.OpenFunc returning l.
func (l *Library) Open(name string) (dxc.Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = append(l.opened, name)
	return l, nil
}

// Options returns compiler options for target that load l.
func (l *Library) Options(target dxc.Target) dxc.Options {
	opts := dxc.DefaultOptions()
	opts.Target = target
	opts.Open = l.Open
	return opts
}

func (l *Library) Version() (dxc.Version, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version, nil
}

func (l *Library) Compile(req *dxc.CompileRequest) (*dxc.Result, error) {
	l.mu.Lock()
	l.requests = append(l.requests, *req)
	disasm, ok := l.modules[req.EntryPoint]
	includes := append([]string(nil), l.includes...)
	compileLog := l.CompileLog
	l.mu.Unlock()

	name := req.SourceName
	if name == "" {
		name = "hlsl.hlsl"
	}
	if i := bytes.Index(req.Source, []byte("#error")); i >= 0 {
		line := bytes.Count(req.Source[:i], []byte("\n")) + 1
		return &dxc.Result{Failed: true, Log: fmt.Sprintf("%s:%d:2: error: #error directive", name, line)}, nil
	}
	for _, inc := range includes {
		if req.Includes == nil {
			return &dxc.Result{Failed: true, Log: fmt.Sprintf("%s:1:10: fatal error: '%s' file not found", name, inc)}, nil
		}
		if _, err := req.Includes.LoadSource(inc); err != nil {
			return &dxc.Result{Failed: true, Log: fmt.Sprintf("%s:1:10: fatal error: '%s' file not found", name, inc)}, nil
		}
	}
	if !ok {
		return &dxc.Result{Failed: true, Log: fmt.Sprintf("error: missing entry point definition '%s'", req.EntryPoint)}, nil
	}
	return &dxc.Result{Output: Container(disasm), Log: compileLog}, nil
}

func (l *Library) Disassemble(bytecode []byte) (*dxc.Result, error) {
	c, err := dxil.ParseContainer(bytecode)
	if err != nil {
		return &dxc.Result{Failed: true, Log: err.Error()}, nil
	}
	text, ok := c.Part(dxil.FourCCDXIL)
	if !ok {
		return &dxc.Result{Failed: true, Log: "container has no DXIL part"}, nil
	}
	return &dxc.Result{Output: append([]byte(nil), text...)}, nil
}

func (l *Library) Assemble(text []byte) (*dxc.Result, error) {
	l.mu.Lock()
	assemblyLog := l.AssemblyLog
	l.mu.Unlock()
	if assemblyLog != "" {
		return &dxc.Result{Failed: true, Log: assemblyLog}, nil
	}
	if _, err := dxil.ParseModule(string(text)); err != nil {
		return &dxc.Result{Failed: true, Log: err.Error()}, nil
	}
	return &dxc.Result{Output: Container(string(text))}, nil
}

func (l *Library) Validate(bytecode []byte) (*dxc.Result, error) {
	l.mu.Lock()
	validationLog, inPlace := l.ValidationLog, l.SignInPlace
	l.mu.Unlock()
	if validationLog != "" {
		return &dxc.Result{Failed: true, Log: validationLog}, nil
	}
	if _, err := dxil.ParseContainer(bytecode); err != nil {
		return nil, errors.Wrap(err, "dxctest: validate")
	}
	out := bytecode
	if !inPlace {
		out = append([]byte(nil), bytecode...)
	}
	sign(out)
	if inPlace {
		return &dxc.Result{}, nil
	}
	return &dxc.Result{Output: out}, nil
}

// sign stores a digest of everything after the digest field.
func sign(b []byte) {
	sum := md5.Sum(b[20:])
	copy(b[4:20], sum[:])
}
