// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"strings"

	"github.com/gogpu/dxcbind/hlsl"
)

// createHandleCall is the call site of
//
//	%dx.types.Handle @dx.op.createHandle(
//	       i32,                  ; opcode
//	       i8,                   ; resource class: SRV=0, UAV=1, CBV=2, Sampler=3
//	       i32,                  ; resource range ID (constant)
//	       i32,                  ; index into the range
//	       i1)                   ; non-uniform resource index: false or true
const createHandleCall = " = call %dx.types.Handle @dx.op.createHandle("

// createHandleFromBindingCall is the Shader Model 6.6 handle creation
// opcode. Its %dx.types.ResBind operand repeats the register range, which
// this patcher does not rewrite.
const createHandleFromBindingCall = "@dx.op.createHandleFromBinding("

// addFlags are the wrap flags an index addition may carry.
var addFlags = []string{"nuw nsw ", "nsw nuw ", "nuw ", "nsw "}

// patchHandles rewrites the index operand of every createHandle call so
// that it addresses the relocated register range.
func (p *Patcher) patchHandles(s *scanner) error {
	if strings.Contains(s.text, createHandleFromBindingCall) {
		return patchError("", "createHandleFromBinding", nil,
			"binding handles of Shader Model 6.6 and later cannot be relocated; compile for Shader Model 6.5 or lower")
	}
	for !s.atEnd() {
		if !s.seek(createHandleCall) {
			break
		}
		s.pos += len(createHandleCall)

		if _, err := s.expectTypedInteger("i32"); err != nil {
			return patchError("", "opcode", err, "record is not found")
		}
		if err := s.expectLiteral(", "); err != nil {
			return patchError("", "resource class", err, "record is not found")
		}
		class, err := s.expectTypedInteger("i8")
		if err != nil {
			return patchError("", "resource class", err, "record data is not found")
		}
		regType, err := classForHandle(class.value)
		if err != nil {
			return patchError("", "resource class", err, "invalid resource class")
		}
		if err := s.expectLiteral(", "); err != nil {
			return patchError("", "range ID", err, "record is not found")
		}
		rangeID, err := s.expectTypedInteger("i32")
		if err != nil {
			return patchError("", "range ID", err, "record data is not found")
		}
		if err := s.expectLiteral(", i32 "); err != nil {
			return patchError("", "index", err, "record is not found")
		}
		indexStart := s.pos
		if !s.nextArgument() {
			return patchError("", "index", nil, "failed to find the end of the index record data")
		}
		indexEnd := s.pos
		index := s.text[indexStart:indexEnd]
		if index == "" {
			return patchError("", "index", nil, "bind point index must not be empty")
		}

		if index[0] != '%' {
			s.pos = indexStart
			n, err := s.expectInteger()
			if err != nil || n.end != indexEnd {
				return patchError("", "index", err, "index is neither a constant nor a temporary")
			}
			if _, err := p.replaceBindPoint(s, regType, uint32(rangeID.value), n); err != nil {
				return err
			}
			s.pos = indexStart
			s.nextArgument()
			continue
		}

		delta, err := p.patchDynamicIndex(s, regType, uint32(rangeID.value), index, indexStart)
		if err != nil {
			return err
		}
		p.checkTemporaryUses(s.text, index)
		s.pos = indexStart + delta + len(index)
	}
	return nil
}

// patchDynamicIndex rewrites the constant operand of the addition that
// defines the temporary index, which is always of the form
//
//	%22 = add i32 %17, 7
//
// possibly with nuw/nsw flags and the operands swapped. It returns the
// change in text length.
func (p *Patcher) patchDynamicIndex(s *scanner, class hlsl.RegisterType, rangeID uint32, temp string, use int) (int, error) {
	decl := -1
	prefix := temp + " = add "
	for search := use; ; {
		at := s.lastIndex(prefix, search)
		if at < 0 {
			break
		}
		s.pos = at + len(prefix)
		for _, f := range addFlags {
			if s.acceptLiteral(f) {
				break
			}
		}
		if s.acceptLiteral("i32 ") {
			decl = s.pos
			break
		}
		search = at
	}
	if decl < 0 {
		return 0, patchError("", "index", nil, "failed to find the declaration of dynamic index %s", temp)
	}

	s.pos = decl
	if s.peek() == '%' {
		if !s.nextArgument() {
			return 0, patchError("", "index", nil, "failed to find the second operand of %s", temp)
		}
		if err := s.expectLiteral(", "); err != nil {
			return 0, patchError("", "index", err, "failed to find the second operand of %s", temp)
		}
	}
	n, err := s.expectInteger()
	if err != nil {
		return 0, patchError("", "index", err, "operand of %s expected to be an integer constant", temp)
	}
	if c := s.peek(); c != ',' && c != '\n' && c != ' ' && c != 0 {
		return 0, patchError("", "index", nil, "failed to parse the constant operand of %s", temp)
	}
	return p.replaceBindPoint(s, class, rangeID, n)
}

// replaceBindPoint rewrites the register index n of a handle creation
// and returns the change in text length.
func (p *Patcher) replaceBindPoint(s *scanner, class hlsl.RegisterType, rangeID uint32, n span) (int, error) {
	src := uint32(n.value)
	for _, name := range p.names {
		bind, ri, ok := p.resource(name)
		if !ok || ri.RecordID != rangeID || ri.Class != class || !ri.contains(src, bind.ArraySize) {
			continue
		}
		if bind.BindPoint+(src-ri.SourceBindPoint) < bind.BindPoint {
			return 0, patchError(name, "index", nil, "relocated index overflows")
		}
		return s.replace(n.start, n.end, formatField(bind.BindPoint+(src-ri.SourceBindPoint))), nil
	}
	return 0, patchError("", "createHandle", nil,
		"no %s resource with record ID %d covers register %d", class.Name(), rangeID, int32(src))
}

// isValueNameSymbol reports whether c can continue an LLVM value name.
func isValueNameSymbol(c byte) bool {
	return isWordSymbol(c) || c == '.' || c == '$' || c == '-'
}

// checkTemporaryUses warns when a patched index temporary is referenced
// anywhere but at its declaration and the createHandle call. Such an
// index is shared with other computations and the patch may change them.
func (p *Patcher) checkTemporaryUses(text, temp string) {
	uses := 0
	for i := 0; ; {
		at := strings.Index(text[i:], temp)
		if at < 0 {
			break
		}
		i += at + len(temp)
		if i == len(text) || !isValueNameSymbol(text[i]) {
			uses++
		}
	}
	if uses != 2 {
		p.logger().Printf("dxil: temporary %s holding a resource index is referenced %d times; patching it may change unrelated code", temp, uses)
	}
}
