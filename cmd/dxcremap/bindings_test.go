package main

import (
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/gogpu/dxcbind/hlsl"
)

func TestParseBindings(t *testing.T) {
	input := `
# textures
g_Texture   TextureSRV      1 5
g_Textures  srv             0 10 4
Constants   cbv             0 0
g_Output    TextureUAV      1 4 1
`
	got, err := parseBindings(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseBindings: %v", err)
	}
	want := hlsl.ResourceBindingMap{
		"g_Texture":  {Space: 1, BindPoint: 5, ArraySize: 1, Kind: hlsl.ResourceKindTextureSRV},
		"g_Textures": {Space: 0, BindPoint: 10, ArraySize: 4, Kind: hlsl.ResourceKindTextureSRV},
		"Constants":  {Space: 0, BindPoint: 0, ArraySize: 1, Kind: hlsl.ResourceKindConstantBuffer},
		"g_Output":   {Space: 1, BindPoint: 4, ArraySize: 1, Kind: hlsl.ResourceKindTextureUAV},
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("parseBindings differs:\n%s", strings.Join(diff, "\n"))
	}
}

func TestParseBindings_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "g_Texture srv 0"},
		{"unknown kind", "g_Texture image 0 0"},
		{"bad space", "g_Texture srv x 0"},
		{"negative register", "g_Texture srv 0 -1"},
		{"duplicate", "a srv 0 0\na srv 0 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBindings(strings.NewReader(tt.input)); err == nil {
				t.Errorf("parseBindings(%q) succeeded", tt.input)
			}
		})
	}
}

func TestMacroList(t *testing.T) {
	var m macroList
	for _, s := range []string{"USE_SHADOWS", "QUALITY=2"} {
		if err := m.Set(s); err != nil {
			t.Fatalf("Set(%q): %v", s, err)
		}
	}
	if err := m.Set("=1"); err == nil {
		t.Error("Set(\"=1\") succeeded")
	}
	want := macroList{{Name: "USE_SHADOWS"}, {Name: "QUALITY", Definition: "2"}}
	if diff := pretty.Diff(m, want); len(diff) > 0 {
		t.Errorf("macros differ: %v", diff)
	}
	if got := m.String(); got != "USE_SHADOWS=,QUALITY=2" {
		t.Errorf("String() = %q", got)
	}
}
