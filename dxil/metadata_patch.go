// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

// patchMetadataDeclarations relocates records that keep the resource
// name, as in ray-tracing libraries:
//
//	!158 = !{i32 0, %"class.RWTexture2D<vector<float, 4> >"* @"\01?g_ColorBuffer@@3V?$RWTexture2D@V?$vector@M$03@@@@A", !"g_ColorBuffer", i32 -1, i32 -1, i32 1, i32 2, i1 false, i1 false, i1 false, !159}
//
// Entries that are not referenced by name are left alone.
func (p *Patcher) patchMetadataDeclarations(s *scanner) error {
	for _, name := range p.names {
		bind, ri, ok := p.resource(name)
		if !ok {
			continue
		}
		s.pos = 0
		ref := `!"` + name + `"`
		if !s.seek(ref) {
			continue
		}
		nameAt := s.pos

		start := s.lastIndex(recordStart, nameAt)
		if start < 0 {
			return patchError(name, "declaration", nil, "failed to find resource record start block")
		}
		s.pos = start + len(recordStart)
		id, err := s.expectTypedInteger("i32")
		if err != nil {
			return patchError(name, "record ID", err, "failed to parse record ID")
		}
		if err := ri.bindRecord(name, uint32(id.value)); err != nil {
			return err
		}

		s.pos = nameAt + len(ref)
		if err := replaceRecord(s, name, "space", ri.SourceSpace, bind.Space); err != nil {
			return err
		}
		if err := replaceRecord(s, name, "binding", ri.SourceBindPoint, bind.BindPoint); err != nil {
			return err
		}
	}
	return nil
}
