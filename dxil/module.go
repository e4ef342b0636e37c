// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"bufio"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/hlsl"
)

// ResourceShape is the DXIL resource kind stored in resource records.
type ResourceShape uint8

// Resource shapes in DXIL encoding order.
const (
	ShapeInvalid ResourceShape = iota
	ShapeTexture1D
	ShapeTexture2D
	ShapeTexture2DMS
	ShapeTexture3D
	ShapeTextureCube
	ShapeTexture1DArray
	ShapeTexture2DArray
	ShapeTexture2DMSArray
	ShapeTextureCubeArray
	ShapeTypedBuffer
	ShapeRawBuffer
	ShapeStructuredBuffer
	ShapeCBuffer
	ShapeSampler
	ShapeTBuffer
	ShapeRTAccelerationStructure
	ShapeFeedbackTexture2D
	ShapeFeedbackTexture2DArray
)

var shapeNames = [...]string{
	"invalid", "texture1d", "texture2d", "texture2dms", "texture3d", "texturecube",
	"texture1darray", "texture2darray", "texture2dmsarray", "texturecubearray",
	"typedbuffer", "rawbuffer", "structuredbuffer", "cbuffer", "sampler", "tbuffer",
	"rtaccelerationstructure", "feedbacktexture2d", "feedbacktexture2darray",
}

func (s ResourceShape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "invalid"
}

// IsTexture reports whether the shape is one of the texture dimensions.
func (s ResourceShape) IsTexture() bool {
	return s >= ShapeTexture1D && s <= ShapeTextureCubeArray ||
		s == ShapeFeedbackTexture2D || s == ShapeFeedbackTexture2DArray
}

// Resource is a resource record of !dx.resources.
type Resource struct {
	RecordID   uint32
	Name       string
	Class      hlsl.RegisterType
	Shape      ResourceShape
	Space      uint32
	LowerBound uint32
	// RangeSize is math.MaxUint32 for unbounded arrays.
	RangeSize uint32
	// Size is the constant buffer size in bytes.
	Size       uint32
	HasCounter bool
}

// SignatureElement is one element of an entry point signature.
type SignatureElement struct {
	ID            uint32
	SemanticName  string
	SemanticIndex []uint32
	ComponentType uint8
	SystemValue   uint8
	Interpolation uint8
	Rows          uint32
	Cols          uint8
	StartRow      int32
	StartCol      int8
}

// EntryPoint is an entry of !dx.entryPoints.
type EntryPoint struct {
	Name string
	// Kind is the stage for library functions; for ordinary shaders it
	// is taken from the shader model.
	Kind           hlsl.ShaderKind
	Inputs         []SignatureElement
	Outputs        []SignatureElement
	PatchConstants []SignatureElement
	NumThreads     [3]uint32
}

// Variable is a member of a constant buffer layout.
type Variable struct {
	Name   string
	Type   string
	Offset uint32
}

// BufferLayout is a constant buffer as described in the
// "; Buffer Definitions:" comment block of a disassembly.
type BufferLayout struct {
	Name      string
	Size      uint32
	Variables []Variable
}

// Module is the reflection-relevant content of a disassembled DXIL module.
type Module struct {
	// Program is the shader model program type: "ps", "vs", "lib", ...
	Program          string
	ShaderModel      hlsl.ShaderModel
	Creator          string
	Resources        []Resource
	EntryPoints      []EntryPoint
	Buffers          []BufferLayout
	InstructionCount int
}

// Kind returns the stage of the module, ShaderKindUnknown for libraries
// and unknown programs.
func (m *Module) Kind() hlsl.ShaderKind {
	return programKind(m.Program)
}

// IsLibrary reports whether the module is a library of exported functions.
func (m *Module) IsLibrary() bool {
	return m.Program == "lib"
}

// Resource returns the resource record with the given name.
func (m *Module) Resource(name string) (Resource, bool) {
	for _, r := range m.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Buffer returns the layout of the named constant buffer.
func (m *Module) Buffer(name string) (BufferLayout, bool) {
	for _, b := range m.Buffers {
		if b.Name == name {
			return b, true
		}
	}
	return BufferLayout{}, false
}

func programKind(program string) hlsl.ShaderKind {
	switch program {
	case "vs":
		return hlsl.ShaderKindVertex
	case "ps":
		return hlsl.ShaderKindPixel
	case "gs":
		return hlsl.ShaderKindGeometry
	case "hs":
		return hlsl.ShaderKindHull
	case "ds":
		return hlsl.ShaderKindDomain
	case "cs":
		return hlsl.ShaderKindCompute
	case "as":
		return hlsl.ShaderKindAmplification
	case "ms":
		return hlsl.ShaderKindMesh
	}
	return hlsl.ShaderKindUnknown
}

// entryKinds maps the shader kind property of library functions.
var entryKinds = map[int64]hlsl.ShaderKind{
	0:  hlsl.ShaderKindPixel,
	1:  hlsl.ShaderKindVertex,
	2:  hlsl.ShaderKindGeometry,
	3:  hlsl.ShaderKindHull,
	4:  hlsl.ShaderKindDomain,
	5:  hlsl.ShaderKindCompute,
	7:  hlsl.ShaderKindRayGen,
	8:  hlsl.ShaderKindRayIntersection,
	9:  hlsl.ShaderKindRayAnyHit,
	10: hlsl.ShaderKindRayClosestHit,
	11: hlsl.ShaderKindRayMiss,
	12: hlsl.ShaderKindCallable,
	13: hlsl.ShaderKindMesh,
	14: hlsl.ShaderKindAmplification,
}

// Entry point property tags.
const (
	tagNumThreads = 4
	tagShaderKind = 8
)

var (
	nodeLine  = regexp.MustCompile(`^!(\d+) = (?:distinct )?!\{(.*)\}\s*$`)
	namedLine = regexp.MustCompile(`^!([A-Za-z_.][\w.]*) = !\{(.*)\}\s*$`)
)

type metadata struct {
	nodes map[string][]string
	named map[string][]string
}

// node resolves a "!N" operand to its operand list.
func (md *metadata) node(op string) ([]string, bool) {
	if !strings.HasPrefix(op, "!") || strings.HasPrefix(op, `!"`) {
		return nil, false
	}
	ops, ok := md.nodes[op[1:]]
	return ops, ok
}

// ParseModule extracts metadata and comment-block reflection data from
// a module disassembly.
func ParseModule(disasm string) (*Module, error) {
	md := &metadata{nodes: map[string][]string{}, named: map[string][]string{}}
	m := &Module{}

	var comments []string
	inFunction := false
	sc := bufio.NewScanner(strings.NewReader(disasm))
	sc.Buffer(make([]byte, 0, 64*1024), len(disasm)+1)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, ";"):
			comments = append(comments, line)
		case strings.HasPrefix(line, "define "):
			inFunction = true
		case inFunction:
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "}":
				inFunction = false
			case trimmed == "", strings.HasPrefix(trimmed, ";"), strings.HasSuffix(trimmed, ":"),
				strings.Contains(trimmed, "; preds"):
			default:
				m.InstructionCount++
			}
		default:
			if g := nodeLine.FindStringSubmatch(line); g != nil {
				md.nodes[g[1]] = splitOperands(g[2])
			} else if g := namedLine.FindStringSubmatch(line); g != nil {
				md.named[g[1]] = splitOperands(g[2])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading disassembly")
	}

	if err := md.parseShaderModel(m); err != nil {
		return nil, err
	}
	if ident, ok := md.named["llvm.ident"]; ok && len(ident) > 0 {
		if ops, ok := md.node(ident[0]); ok && len(ops) > 0 {
			m.Creator, _ = operandString(ops[0])
		}
	}
	names := bindingTableNames(comments)
	if err := md.parseResources(m, names); err != nil {
		return nil, err
	}
	if err := md.parseEntryPoints(m); err != nil {
		return nil, err
	}
	m.Buffers = parseBufferDefinitions(comments)
	for i := range m.Resources {
		r := &m.Resources[i]
		if r.Class != hlsl.RegisterTypeB || r.Size != 0 {
			continue
		}
		if b, ok := m.Buffer(r.Name); ok {
			r.Size = b.Size
		}
	}
	return m, nil
}

func (md *metadata) parseShaderModel(m *Module) error {
	ref, ok := md.named["dx.shaderModel"]
	if !ok || len(ref) == 0 {
		return errors.New("module has no !dx.shaderModel")
	}
	ops, ok := md.node(ref[0])
	if !ok || len(ops) < 3 {
		return errors.New("malformed !dx.shaderModel")
	}
	program, ok := operandString(ops[0])
	major, ok1 := operandInt(ops[1])
	minor, ok2 := operandInt(ops[2])
	if !ok || !ok1 || !ok2 {
		return errors.Newf("malformed !dx.shaderModel: %v", ops)
	}
	m.Program = program
	m.ShaderModel = hlsl.ShaderModel{Major: uint8(major), Minor: uint8(minor)}
	return nil
}

// resourceLists is the order of the lists in !dx.resources.
var resourceLists = [...]hlsl.RegisterType{
	hlsl.RegisterTypeT, hlsl.RegisterTypeU, hlsl.RegisterTypeB, hlsl.RegisterTypeS,
}

func (md *metadata) parseResources(m *Module, names map[tableKey]string) error {
	ref, ok := md.named["dx.resources"]
	if !ok || len(ref) == 0 {
		return nil
	}
	lists, ok := md.node(ref[0])
	if !ok || len(lists) != len(resourceLists) {
		return errors.New("malformed !dx.resources")
	}
	for i, list := range lists {
		class := resourceLists[i]
		if list == "null" {
			continue
		}
		records, ok := md.node(list)
		if !ok {
			return errors.Newf("!dx.resources references missing node %s", list)
		}
		for _, rec := range records {
			ops, ok := md.node(rec)
			if !ok || len(ops) < 6 {
				return errors.Newf("malformed resource record %s", rec)
			}
			r, err := parseResource(class, ops)
			if err != nil {
				return errors.Wrapf(err, "resource record %s", rec)
			}
			if r.Name == "" {
				r.Name = names[tableKey{class, r.RecordID}]
			}
			m.Resources = append(m.Resources, r)
		}
	}
	return nil
}

func parseResource(class hlsl.RegisterType, ops []string) (Resource, error) {
	var fields [6]int64
	for _, idx := range []int{0, 3, 4, 5} {
		v, ok := operandInt(ops[idx])
		if !ok {
			return Resource{}, errors.Newf("field %d is not an integer: %q", idx, ops[idx])
		}
		fields[idx] = v
	}
	name, _ := operandString(ops[2])
	r := Resource{
		RecordID:   uint32(fields[0]),
		Name:       name,
		Class:      class,
		Space:      uint32(fields[3]),
		LowerBound: uint32(fields[4]),
		RangeSize:  uint32(fields[5]),
	}
	if len(ops) > 6 {
		v, _ := operandInt(ops[6])
		switch class {
		case hlsl.RegisterTypeB:
			r.Shape = ShapeCBuffer
			r.Size = uint32(v)
		case hlsl.RegisterTypeS:
			r.Shape = ShapeSampler
		default:
			r.Shape = ResourceShape(v)
		}
	}
	if class == hlsl.RegisterTypeU && len(ops) > 8 {
		v, _ := operandInt(ops[8])
		r.HasCounter = v != 0
	}
	return r, nil
}

func (md *metadata) parseEntryPoints(m *Module) error {
	refs := md.named["dx.entryPoints"]
	for _, ref := range refs {
		ops, ok := md.node(ref)
		if !ok || len(ops) < 5 {
			return errors.Newf("malformed entry point %s", ref)
		}
		name, _ := operandString(ops[1])
		if ops[0] == "null" && name == "" {
			// Library module record without a function.
			continue
		}
		ep := EntryPoint{Name: name, Kind: m.Kind()}
		if sigs, ok := md.node(ops[2]); ok && len(sigs) == 3 {
			var err error
			if ep.Inputs, err = md.signature(sigs[0]); err != nil {
				return err
			}
			if ep.Outputs, err = md.signature(sigs[1]); err != nil {
				return err
			}
			if ep.PatchConstants, err = md.signature(sigs[2]); err != nil {
				return err
			}
		}
		if props, ok := md.node(ops[4]); ok {
			md.entryProperties(&ep, props)
		}
		m.EntryPoints = append(m.EntryPoints, ep)
	}
	return nil
}

func (md *metadata) entryProperties(ep *EntryPoint, props []string) {
	for i := 0; i+1 < len(props); i += 2 {
		tag, ok := operandInt(props[i])
		if !ok {
			continue
		}
		switch tag {
		case tagShaderKind:
			if v, ok := operandInt(props[i+1]); ok {
				if k, ok := entryKinds[v]; ok {
					ep.Kind = k
				}
			}
		case tagNumThreads:
			if dims, ok := md.node(props[i+1]); ok && len(dims) == 3 {
				for j := range dims {
					v, _ := operandInt(dims[j])
					ep.NumThreads[j] = uint32(v)
				}
			}
		}
	}
}

func (md *metadata) signature(ref string) ([]SignatureElement, error) {
	if ref == "null" {
		return nil, nil
	}
	elems, ok := md.node(ref)
	if !ok {
		return nil, errors.Newf("signature references missing node %s", ref)
	}
	out := make([]SignatureElement, 0, len(elems))
	for _, e := range elems {
		ops, ok := md.node(e)
		if !ok || len(ops) < 10 {
			return nil, errors.Newf("malformed signature element %s", e)
		}
		var ints [10]int64
		for _, idx := range []int{0, 2, 3, 5, 6, 7, 8, 9} {
			ints[idx], _ = operandInt(ops[idx])
		}
		sem, _ := operandString(ops[1])
		el := SignatureElement{
			ID:            uint32(ints[0]),
			SemanticName:  sem,
			ComponentType: uint8(ints[2]),
			SystemValue:   uint8(ints[3]),
			Interpolation: uint8(ints[5]),
			Rows:          uint32(ints[6]),
			Cols:          uint8(ints[7]),
			StartRow:      int32(ints[8]),
			StartCol:      int8(ints[9]),
		}
		if idx, ok := md.node(ops[4]); ok {
			for _, op := range idx {
				v, _ := operandInt(op)
				el.SemanticIndex = append(el.SemanticIndex, uint32(v))
			}
		}
		out = append(out, el)
	}
	return out, nil
}

type tableKey struct {
	class hlsl.RegisterType
	id    uint32
}

// bindingTableNames reads the "; Resource Bindings:" table, whose ID
// column ("CB0", "T1", "S0", "U2") ties names to record identifiers.
func bindingTableNames(comments []string) map[tableKey]string {
	names := map[tableKey]string{}
	in := false
	for _, line := range comments {
		body := strings.TrimSpace(strings.TrimPrefix(line, ";"))
		if body == "Resource Bindings:" {
			in = true
			continue
		}
		if !in {
			continue
		}
		if body == "" {
			if len(names) > 0 {
				break
			}
			continue
		}
		f := strings.Fields(body)
		if len(f) < 7 || strings.HasPrefix(f[0], "---") || f[0] == "Name" {
			continue
		}
		id := f[len(f)-3]
		var class hlsl.RegisterType
		switch {
		case strings.HasPrefix(id, "CB"):
			class, id = hlsl.RegisterTypeB, id[2:]
		case strings.HasPrefix(id, "T"):
			class, id = hlsl.RegisterTypeT, id[1:]
		case strings.HasPrefix(id, "U"):
			class, id = hlsl.RegisterTypeU, id[1:]
		case strings.HasPrefix(id, "S"):
			class, id = hlsl.RegisterTypeS, id[1:]
		default:
			continue
		}
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			continue
		}
		names[tableKey{class, uint32(n)}] = f[0]
	}
	return names
}

// parseBufferDefinitions reads the "; Buffer Definitions:" block:
//
//	; cbuffer Constants
//	; {
//	;
//	;   struct Constants
//	;   {
//	;
//	;       float4x4 g_WorldViewProj;                     ; Offset:    0
//	;
//	;   } Constants;                                      ; Offset:    0 Size:    64
//	;
//	; }
func parseBufferDefinitions(comments []string) []BufferLayout {
	var (
		out   []BufferLayout
		cur   *BufferLayout
		depth int
	)
	for _, line := range comments {
		body := strings.TrimSpace(strings.TrimPrefix(line, ";"))
		if cur == nil {
			if name, ok := strings.CutPrefix(body, "cbuffer "); ok {
				out = append(out, BufferLayout{Name: strings.TrimSpace(name)})
				cur = &out[len(out)-1]
				depth = 0
			}
			continue
		}
		switch {
		case body == "{":
			depth++
		case strings.HasPrefix(body, "}"):
			depth--
			if _, size, ok := strings.Cut(body, "Size:"); ok && depth == 1 {
				v, _ := strconv.ParseUint(strings.TrimSpace(size), 10, 32)
				cur.Size = uint32(v)
			}
			if depth == 0 {
				cur = nil
			}
		case depth == 2:
			decl, offset, ok := strings.Cut(body, "; Offset:")
			if !ok {
				continue
			}
			decl = strings.TrimSuffix(strings.TrimSpace(decl), ";")
			sp := strings.LastIndexByte(decl, ' ')
			fields := strings.Fields(offset)
			if sp < 0 || len(fields) == 0 {
				continue
			}
			v, _ := strconv.ParseUint(fields[0], 10, 32)
			cur.Variables = append(cur.Variables, Variable{
				Name:   decl[sp+1:],
				Type:   strings.TrimSpace(decl[:sp]),
				Offset: uint32(v),
			})
		}
	}
	return out
}

// splitOperands splits a metadata operand list at top-level commas.
func splitOperands(list string) []string {
	var (
		out     []string
		depth   int
		quoted  bool
		start   int
		escaped bool
	)
	for i := 0; i < len(list); i++ {
		c := list[i]
		if quoted {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				quoted = false
			}
			continue
		}
		switch c {
		case '"':
			quoted = true
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(list[start:]); rest != "" || len(out) > 0 {
		out = append(out, rest)
	}
	return out
}

// operandInt parses "i32 5", "i8 -1" or "i1 true".
func operandInt(op string) (int64, bool) {
	sp := strings.LastIndexByte(op, ' ')
	if sp < 0 || !strings.HasPrefix(op, "i") {
		return 0, false
	}
	switch v := op[sp+1:]; v {
	case "true":
		return 1, true
	case "false":
		return 0, true
	default:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		if n > math.MaxUint32 {
			return 0, false
		}
		return n, true
	}
}

// operandString decodes a metadata string operand !"text". LLVM escapes
// non-printable bytes as \XX.
func operandString(op string) (string, bool) {
	if !strings.HasPrefix(op, `!"`) || !strings.HasSuffix(op, `"`) || len(op) < 3 {
		return "", false
	}
	raw := op[2 : len(op)-1]
	if !strings.Contains(raw, `\`) {
		return raw, true
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+2 < len(raw) {
			if v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(raw[i])
	}
	return b.String(), true
}
