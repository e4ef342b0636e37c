// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/gogpu/dxcbind/hlsl"
)

// fixture is a patching case read from testdata/<name>.txtar.
//
// The "bindings" file has one "name kind space bindPoint arraySize" line
// per requested binding; "resources" has "name class space bindPoint"
// lines with what reflection reports.
type fixture struct {
	bindings  hlsl.ResourceBindingMap
	resources map[string]*ResourceInfo
	input     string
	want      string
}

func loadFixture(t *testing.T, name string) *fixture {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name+".txtar"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	f := &fixture{
		bindings:  hlsl.ResourceBindingMap{},
		resources: map[string]*ResourceInfo{},
	}
	for _, file := range ar.Files {
		data := string(file.Data)
		switch file.Name {
		case "bindings":
			for _, fields := range fixtureLines(data) {
				if len(fields) != 5 {
					t.Fatalf("%s: bad binding line %v", name, fields)
				}
				kind, ok := hlsl.ParseResourceKind(fields[1])
				if !ok {
					t.Fatalf("%s: bad resource kind %q", name, fields[1])
				}
				f.bindings[fields[0]] = hlsl.BindInfo{
					Kind:      kind,
					Space:     fixtureUint(t, fields[2]),
					BindPoint: fixtureUint(t, fields[3]),
					ArraySize: fixtureUint(t, fields[4]),
				}
			}
		case "resources":
			for _, fields := range fixtureLines(data) {
				if len(fields) != 4 {
					t.Fatalf("%s: bad resource line %v", name, fields)
				}
				f.resources[fields[0]] = NewResourceInfo(fixtureClass(t, fields[1]),
					fixtureUint(t, fields[2]), fixtureUint(t, fields[3]))
			}
		case "input.ll":
			f.input = data
		case "want.ll":
			f.want = data
		default:
			t.Fatalf("%s: unexpected file %q", name, file.Name)
		}
	}
	return f
}

// identity returns a binding map that asks for the bindings the shader
// already has.
func (f *fixture) identity() hlsl.ResourceBindingMap {
	m := hlsl.ResourceBindingMap{}
	for name, ri := range f.resources {
		bind := f.bindings[name]
		bind.Space = ri.SourceSpace
		bind.BindPoint = ri.SourceBindPoint
		m[name] = bind
	}
	return m
}

// freshResources returns a copy of the reflection info with record IDs
// not yet bound.
func (f *fixture) freshResources() map[string]*ResourceInfo {
	out := make(map[string]*ResourceInfo, len(f.resources))
	for name, ri := range f.resources {
		out[name] = NewResourceInfo(ri.Class, ri.SourceSpace, ri.SourceBindPoint)
	}
	return out
}

func fixtureLines(data string) [][]string {
	var out [][]string
	for _, line := range strings.Split(data, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, fields)
		}
	}
	return out
}

func fixtureUint(t *testing.T, s string) uint32 {
	t.Helper()
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		t.Fatalf("bad number %q: %v", s, err)
	}
	return uint32(v)
}

func fixtureClass(t *testing.T, s string) hlsl.RegisterType {
	t.Helper()
	switch s {
	case "b":
		return hlsl.RegisterTypeB
	case "t":
		return hlsl.RegisterTypeT
	case "s":
		return hlsl.RegisterTypeS
	case "u":
		return hlsl.RegisterTypeU
	}
	t.Fatalf("bad register class %q", s)
	return 0
}
