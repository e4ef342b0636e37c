// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"strings"

	"github.com/gogpu/dxcbind/hlsl"
)

// Resource declaration records look like
//
//	!5 = !{i32 0, %"class.Texture2D<vector<float, 4> >"* undef, !"", i32 -1, i32 -1, i32 1, i32 2, i32 0, !6}
//
// Optimized shaders often drop the name, so records are matched by the
// class encoded in the pointee type and by the source space and register.

const (
	recordStart  = "= !{"
	nameDecl     = `, !"`
	alignmentTag = "dx.alignment.legacy."
	structTag    = "struct."
	classTag     = "class."
)

var textureSuffixes = []string{
	"1D<", "1DArray<", "2D<", "2DArray<", "3D<", "2DMS<", "2DMSArray<", "Cube<", "CubeArray<",
}

// typeClasses maps pointee type name prefixes to register types.
// Texture entries additionally require one of textureSuffixes.
var typeClasses = []struct {
	prefix  string
	texture bool
	class   hlsl.RegisterType
}{
	{"SamplerState", false, hlsl.RegisterTypeS},
	{"SamplerComparisonState", false, hlsl.RegisterTypeS},
	{"RWTexture", true, hlsl.RegisterTypeU},
	{"RasterizerOrderedTexture", true, hlsl.RegisterTypeU},
	{"RWStructuredBuffer<", false, hlsl.RegisterTypeU},
	{"RasterizerOrderedStructuredBuffer<", false, hlsl.RegisterTypeU},
	{"AppendStructuredBuffer<", false, hlsl.RegisterTypeU},
	{"ConsumeStructuredBuffer<", false, hlsl.RegisterTypeU},
	{"RWByteAddressBuffer", false, hlsl.RegisterTypeU},
	{"RasterizerOrderedByteAddressBuffer", false, hlsl.RegisterTypeU},
	{"RWBuffer<", false, hlsl.RegisterTypeU},
	{"RasterizerOrderedBuffer<", false, hlsl.RegisterTypeU},
	{"Texture", true, hlsl.RegisterTypeT},
	{"StructuredBuffer<", false, hlsl.RegisterTypeT},
	{"ByteAddressBuffer", false, hlsl.RegisterTypeT},
	{"Buffer<", false, hlsl.RegisterTypeT},
	{"RaytracingAccelerationStructure", false, hlsl.RegisterTypeT},
}

type typeQualifiers uint8

const (
	qualAlignment typeQualifiers = 1 << iota
	qualStruct
	qualClass
	qualQuoted
)

// classifyType returns the register type of the resource type name at
// the cursor.
func classifyType(s *scanner) (hlsl.RegisterType, bool) {
	for _, tc := range typeClasses {
		if !s.hasPrefix(tc.prefix) {
			continue
		}
		if !tc.texture {
			return tc.class, true
		}
		rest := s.text[s.pos+len(tc.prefix):]
		for _, suffix := range textureSuffixes {
			if strings.HasPrefix(rest, suffix) {
				return tc.class, true
			}
		}
	}
	return 0, false
}

// readResourceName reads the word characters of a quoted record name up
// to the closing quote.
func readResourceName(s *scanner) (string, bool) {
	start := s.pos
	for ; s.pos < len(s.text); s.pos++ {
		c := s.text[s.pos]
		if isWordSymbol(c) {
			continue
		}
		if c == '"' {
			return s.text[start:s.pos], true
		}
		break
	}
	return "", false
}

// matchConstantBuffer looks for a constant buffer whose name is spelled
// at the cursor. Constant buffers are declared through their struct type,
// e.g. %Constants* or %dx.alignment.legacy.Constants*.
func (p *Patcher) matchConstantBuffer(s *scanner) (string, error) {
	for _, name := range p.names {
		bind, ri, ok := p.resource(name)
		if !ok || ri.Class != hlsl.RegisterTypeB || !s.hasPrefix(name) {
			continue
		}
		next := byte(0)
		if end := s.pos + len(name); end < len(s.text) {
			next = s.text[end]
		}
		if isWordSymbol(next) {
			continue
		}
		if !(next == '*' && bind.ArraySize <= 1) && !(next == ']' && bind.ArraySize != 1) {
			return "", patchError(name, "type", nil,
				"declaration does not match the array size %d of the binding", bind.ArraySize)
		}
		return name, nil
	}
	return "", nil
}

// findBySource returns the resource the compiler placed at (space, bindPoint)
// in the given register class.
func (p *Patcher) findBySource(space, bindPoint uint32, class hlsl.RegisterType) (string, bool) {
	for _, name := range p.names {
		_, ri, ok := p.resource(name)
		if ok && ri.Class == class && ri.SourceSpace == space && ri.SourceBindPoint == bindPoint {
			return name, true
		}
	}
	return "", false
}

// patchDeclarations relocates every resource declaration record.
func (p *Patcher) patchDeclarations(s *scanner) error {
	for !s.atEnd() {
		if !s.seek(nameDecl) {
			break
		}
		typeEnd := s.pos
		s.pos += len(nameDecl)
		nameStart := s.pos

		declName, ok := readResourceName(s)
		if !ok {
			continue
		}
		// Just past the closing quote: ", i32 <space>, i32 <register>"
		bindingStart := s.pos + 1

		class, recordID, ok, err := p.parseRecordHead(s, typeEnd)
		if err != nil {
			return err
		}
		if !ok {
			s.pos = bindingStart
			continue
		}

		s.pos = bindingStart
		spaceField, err := s.expectField("i32")
		if err != nil {
			continue
		}
		bindField, err := s.expectField("i32")
		if err != nil {
			continue
		}
		space, bindPoint := uint32(spaceField.value), uint32(bindField.value)

		name, ok := p.findBySource(space, bindPoint, class)
		if !ok {
			return patchError("", "declaration", nil,
				"no resource of class %s in space %d at register %d", class.Name(), int32(space), int32(bindPoint))
		}
		bind, ri, _ := p.resource(name)
		if declName != "" && declName != name {
			return patchError(name, "name", nil, "declaration is named '%s'", declName)
		}
		if err := ri.bindRecord(name, recordID); err != nil {
			return err
		}

		s.pos = bindingStart
		if err := replaceRecord(s, name, "space", ri.SourceSpace, bind.Space); err != nil {
			return err
		}
		if err := replaceRecord(s, name, "register", ri.SourceBindPoint, bind.BindPoint); err != nil {
			return err
		}
		if declName == "" {
			s.insert(nameStart, name)
		}
	}
	return nil
}

// parseRecordHead walks back from the name of a candidate record to its
// start and reads the record ID and the resource class. It reports false
// if the text is not a resource declaration.
func (p *Patcher) parseRecordHead(s *scanner, typeEnd int) (hlsl.RegisterType, uint32, bool, error) {
	start := s.lastIndex(recordStart, typeEnd)
	if start < 0 {
		return 0, 0, false, patchError("", "declaration", nil, "failed to find resource record start block")
	}
	s.pos = start + len(recordStart)
	id, err := s.expectTypedInteger("i32")
	if err != nil {
		return 0, 0, false, nil
	}
	if err := s.expectLiteral(", "); err != nil {
		return 0, 0, false, patchError("", "record ID", err, "failed to find the end of the record ID")
	}

	if s.acceptLiteral("[") {
		s.skipWhile(typeEnd, func(c byte) bool { return isNumberSymbol(c) || c == ' ' || c == 'x' })
	}
	if !s.acceptLiteral("%") {
		return 0, 0, false, nil
	}

	var quals typeQualifiers
	if s.acceptLiteral(`"`) {
		quals |= qualQuoted
	}
	if s.acceptLiteral(alignmentTag) {
		quals |= qualAlignment
	}
	if s.acceptLiteral(structTag) {
		quals |= qualStruct
	}
	if s.acceptLiteral(classTag) {
		quals |= qualClass
	}

	if class, ok := classifyType(s); ok {
		return class, uint32(id.value), true, nil
	}
	if quals&^qualAlignment != 0 {
		return 0, 0, false, nil
	}
	name, err := p.matchConstantBuffer(s)
	if err != nil || name == "" {
		return 0, 0, false, err
	}
	return hlsl.RegisterTypeB, uint32(id.value), true, nil
}

// replaceRecord rewrites the ", i32 N" field at the cursor from want to
// value and leaves the cursor after the new value.
func replaceRecord(s *scanner, name, record string, want, value uint32) error {
	field, err := s.expectField("i32")
	if err != nil {
		return patchError(name, record, err, "record is not found")
	}
	if uint32(field.value) != want {
		return patchError(name, record, nil,
			"previous value %d does not match the expected %d", int32(field.value), int32(want))
	}
	s.replace(field.start, field.end, formatField(value))
	return nil
}
