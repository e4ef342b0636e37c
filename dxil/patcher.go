// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"log"

	"github.com/gogpu/dxcbind/hlsl"
)

// Strategy selects how resource declarations are located in the disassembly.
type Strategy uint8

const (
	// StrategyDeclarations scans the resource declaration records of
	// optimized shaders and then rewrites every createHandle call.
	StrategyDeclarations Strategy = iota

	// StrategyMetadata locates resource records by name. Ray-tracing
	// libraries and unoptimized shaders keep their names in metadata and
	// acquire handles through the records themselves.
	StrategyMetadata
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyDeclarations:
		return "declarations"
	case StrategyMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// StrategyFor returns the strategy that applies to a shader stage.
func StrategyFor(kind hlsl.ShaderKind) Strategy {
	if kind.IsRayTracing() {
		return StrategyMetadata
	}
	return StrategyDeclarations
}

// Patcher rewrites the resource bindings of a disassembled shader.
//
// A Patcher is used for a single remap and must not be shared between
// goroutines; it updates Resources as records are found.
type Patcher struct {
	// Bindings holds the bindings the engine wants.
	Bindings hlsl.ResourceBindingMap

	// Resources holds what reflection reported for each entry of Bindings
	// that the shader actually uses. Entries missing here are left alone.
	Resources map[string]*ResourceInfo

	// Logger receives warnings. If nil, log.Default() is used.
	Logger *log.Logger

	names []string
}

// NewPatcher creates a patcher for one remap.
func NewPatcher(bindings hlsl.ResourceBindingMap, resources map[string]*ResourceInfo) *Patcher {
	return &Patcher{Bindings: bindings, Resources: resources}
}

// Patch returns the disassembly with every declaration, and for
// StrategyDeclarations every handle-creation site, relocated to the
// requested bindings. The input text is not modified.
func (p *Patcher) Patch(disasm string, strategy Strategy) (string, error) {
	p.names = p.Bindings.Names()

	s := newScanner(disasm)
	switch strategy {
	case StrategyMetadata:
		if err := p.patchMetadataDeclarations(s); err != nil {
			return "", err
		}
	default:
		if err := p.patchDeclarations(s); err != nil {
			return "", err
		}
		s.pos = 0
		if err := p.patchHandles(s); err != nil {
			return "", err
		}
	}
	return s.text, nil
}

func (p *Patcher) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// resource returns the binding and reflection info of a named resource.
func (p *Patcher) resource(name string) (hlsl.BindInfo, *ResourceInfo, bool) {
	ri, ok := p.Resources[name]
	if !ok || ri == nil {
		return hlsl.BindInfo{}, nil, false
	}
	bind, ok := p.Bindings[name]
	return bind, ri, ok
}
