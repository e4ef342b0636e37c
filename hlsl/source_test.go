// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "testing"

func TestBuildSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
		macros []Macro
		extra  string
		want   string
	}{
		{
			name:   "source only",
			source: "float4 main() : SV_Target { return 0; }",
			want:   "float4 main() : SV_Target { return 0; }",
		},
		{
			name:   "macros",
			source: "void main() {}",
			macros: []Macro{{"USE_FOG", "1"}, {"DXCOMPILER", ""}},
			want:   "#define USE_FOG 1\n#define DXCOMPILER\nvoid main() {}",
		},
		{
			name:   "extra definitions get a newline",
			source: "void main() {}",
			extra:  "#define PLATFORM_WIN32 1",
			macros: []Macro{{"A", "2"}},
			want:   "#define PLATFORM_WIN32 1\n#define A 2\nvoid main() {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSource(tt.source, tt.macros, tt.extra)
			if got != tt.want {
				t.Errorf("BuildSource() = %q, want %q", got, tt.want)
			}
		})
	}
}
