// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "testing"

func TestShaderModel_String(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want string
	}{
		{"SM 5.0", ShaderModel5_0, "SM 5.0"},
		{"SM 5.1", ShaderModel5_1, "SM 5.1"},
		{"SM 6.0", ShaderModel6_0, "SM 6.0"},
		{"SM 6.1", ShaderModel6_1, "SM 6.1"},
		{"SM 6.2", ShaderModel6_2, "SM 6.2"},
		{"SM 6.3", ShaderModel6_3, "SM 6.3"},
		{"SM 6.4", ShaderModel6_4, "SM 6.4"},
		{"SM 6.5", ShaderModel6_5, "SM 6.5"},
		{"SM 6.6", ShaderModel6_6, "SM 6.6"},
		{"SM 6.7", ShaderModel6_7, "SM 6.7"},
		{"SM 6.8", ShaderModel6_8, "SM 6.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.String()
			if got != tt.want {
				t.Errorf("ShaderModel.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShaderModel_ProfileSuffix(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want string
	}{
		{"SM 5.0 suffix", ShaderModel5_0, "5_0"},
		{"SM 5.1 suffix", ShaderModel5_1, "5_1"},
		{"SM 6.0 suffix", ShaderModel6_0, "6_0"},
		{"SM 6.5 suffix", ShaderModel6_5, "6_5"},
		{"SM 6.7 suffix", ShaderModel6_7, "6_7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.ProfileSuffix()
			if got != tt.want {
				t.Errorf("ShaderModel.ProfileSuffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShaderModel_Version(t *testing.T) {
	tests := []struct {
		name      string
		sm        ShaderModel
		wantMajor uint8
		wantMinor uint8
	}{
		{"SM 5.0", ShaderModel5_0, 5, 0},
		{"SM 5.1", ShaderModel5_1, 5, 1},
		{"SM 6.0", ShaderModel6_0, 6, 0},
		{"SM 6.3", ShaderModel6_3, 6, 3},
		{"SM 6.8", ShaderModel6_8, 6, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sm.Major != tt.wantMajor {
				t.Errorf("Major = %d, want %d", tt.sm.Major, tt.wantMajor)
			}
			if tt.sm.Minor != tt.wantMinor {
				t.Errorf("Minor = %d, want %d", tt.sm.Minor, tt.wantMinor)
			}
		})
	}
}

func TestShaderModel_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b ShaderModel
		want int
	}{
		{"equal", ShaderModel6_3, ShaderModel6_3, 0},
		{"minor lower", ShaderModel6_2, ShaderModel6_3, -1},
		{"minor higher", ShaderModel6_5, ShaderModel6_3, 1},
		{"major lower", ShaderModel5_1, ShaderModel6_0, -1},
		{"major higher", ShaderModel6_0, ShaderModel5_1, 1},
		{"zero is lowest", ShaderModel{}, ShaderModel5_0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestShaderModel_Clamp(t *testing.T) {
	floor, ceiling := ShaderModel6_0, ShaderModel6_5

	tests := []struct {
		name string
		sm   ShaderModel
		want ShaderModel
	}{
		{"below floor is raised", ShaderModel5_1, ShaderModel6_0},
		{"above ceiling is lowered", ShaderModel6_6, ShaderModel6_5},
		{"unspecified takes ceiling", ShaderModel{}, ShaderModel6_5},
		{"in range is kept", ShaderModel6_3, ShaderModel6_3},
		{"floor is kept", ShaderModel6_0, ShaderModel6_0},
		{"ceiling is kept", ShaderModel6_5, ShaderModel6_5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sm.Clamp(floor, ceiling); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.sm, got, tt.want)
			}
		})
	}
}

func TestParseShaderModel(t *testing.T) {
	tests := []struct {
		in      string
		want    ShaderModel
		wantErr bool
	}{
		{"6.5", ShaderModel6_5, false},
		{"6_0", ShaderModel6_0, false},
		{"sm_6_3", ShaderModel6_3, false},
		{"SM6.6", ShaderModel6_6, false},
		{"6", ShaderModel{}, true},
		{"6.", ShaderModel{}, true},
		{"x.y", ShaderModel{}, true},
		{"", ShaderModel{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseShaderModel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseShaderModel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseShaderModel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsDXIL(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 5.0 no DXIL", ShaderModel5_0, false},
		{"SM 5.1 no DXIL", ShaderModel5_1, false},
		{"SM 6.0 DXIL", ShaderModel6_0, true},
		{"SM 6.5 DXIL", ShaderModel6_5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsDXIL()
			if got != tt.want {
				t.Errorf("SupportsDXIL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsWaveOps(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 5.1 no wave ops", ShaderModel5_1, false},
		{"SM 6.0 wave ops", ShaderModel6_0, true},
		{"SM 6.5 wave ops", ShaderModel6_5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsWaveOps()
			if got != tt.want {
				t.Errorf("SupportsWaveOps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsMeshShaders(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 6.4 no mesh", ShaderModel6_4, false},
		{"SM 6.5 mesh", ShaderModel6_5, true},
		{"SM 6.6 mesh", ShaderModel6_6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsMeshShaders()
			if got != tt.want {
				t.Errorf("SupportsMeshShaders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsRayTracing(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 6.2 no ray tracing", ShaderModel6_2, false},
		{"SM 6.3 ray tracing", ShaderModel6_3, true},
		{"SM 6.5 ray tracing", ShaderModel6_5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsRayTracing()
			if got != tt.want {
				t.Errorf("SupportsRayTracing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_Supports64BitAtomics(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 6.5 no 64-bit atomics", ShaderModel6_5, false},
		{"SM 6.6 64-bit atomics", ShaderModel6_6, true},
		{"SM 6.7 64-bit atomics", ShaderModel6_7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.Supports64BitAtomics()
			if got != tt.want {
				t.Errorf("Supports64BitAtomics() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsFloat16(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 6.1 no float16", ShaderModel6_1, false},
		{"SM 6.2 float16", ShaderModel6_2, true},
		{"SM 6.5 float16", ShaderModel6_5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsFloat16()
			if got != tt.want {
				t.Errorf("SupportsFloat16() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_SupportsVariableRateShading(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want bool
	}{
		{"SM 6.3 no VRS", ShaderModel6_3, false},
		{"SM 6.4 VRS", ShaderModel6_4, true},
		{"SM 6.6 VRS", ShaderModel6_6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.SupportsVariableRateShading()
			if got != tt.want {
				t.Errorf("SupportsVariableRateShading() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShaderModel_IsZero(t *testing.T) {
	if !(ShaderModel{}).IsZero() {
		t.Error("zero ShaderModel should report IsZero")
	}
	if ShaderModel6_0.IsZero() {
		t.Error("SM 6.0 should not report IsZero")
	}
}
