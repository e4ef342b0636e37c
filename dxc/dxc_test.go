// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc_test

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxc/dxctest"
	"github.com/gogpu/dxcbind/dxil"
	"github.com/gogpu/dxcbind/hlsl"
)

func newCompiler(t *testing.T, lib *dxctest.Library, target dxc.Target) (*dxc.Compiler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts := lib.Options(target)
	opts.Logger = log.New(&buf, "", 0)
	return dxc.New(opts), &buf
}

const pixelSource = `
Texture2D g_Texture;
SamplerState g_Sampler;
float4 main(float2 uv : TEXCOORD) : SV_Target { return g_Texture.Sample(g_Sampler, uv); }
`

func compilePixel(t *testing.T, c *dxc.Compiler) []byte {
	t.Helper()
	out, err := c.Compile(dxc.CompileAttribs{
		Source:     []byte(pixelSource),
		SourceName: "pixel.hlsl",
		EntryPoint: "main",
		Profile:    "ps_6_0",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return out.Bytecode
}

func TestCompiler_Unavailable(t *testing.T) {
	var buf bytes.Buffer
	opts := dxc.DefaultOptions()
	opts.Logger = log.New(&buf, "", 0)
	opts.Open = func(name string) (dxc.Library, error) {
		return nil, errors.Newf("cannot open %s", name)
	}
	c := dxc.New(opts)

	for i := 0; i < 3; i++ {
		_, err := c.Compile(dxc.CompileAttribs{Source: []byte("x"), EntryPoint: "main", Profile: "ps_6_0"})
		if !dxc.IsKind(err, dxc.ErrUnavailable) {
			t.Fatalf("Compile error = %v, want ErrUnavailable", err)
		}
	}
	if c.IsLoaded() {
		t.Error("IsLoaded() = true for a failed load")
	}
	if got := c.MaxShaderModel(); got != dxc.MinShaderModel {
		t.Errorf("MaxShaderModel() = %s, want %s", got, dxc.MinShaderModel)
	}
	if n := strings.Count(buf.String(), "failed to load dxcompiler"); n != 1 {
		t.Errorf("load failure logged %d times, want once:\n%s", n, buf.String())
	}
}

func TestCompiler_NoLoader(t *testing.T) {
	c := dxc.New(dxc.Options{Logger: log.New(io.Discard, "", 0)})
	if _, err := c.Version(); !dxc.IsKind(err, dxc.ErrUnavailable) {
		t.Errorf("Version error = %v, want ErrUnavailable", err)
	}
}

func TestCompiler_ConcurrentFirstUse(t *testing.T) {
	lib := dxctest.New()
	c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			if !c.IsLoaded() {
				return errors.New("compiler is not loaded")
			}
			_, err := c.Compile(dxc.CompileAttribs{Source: []byte(pixelSource), EntryPoint: "main", Profile: "ps_6_0"})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if opened := lib.Opened(); len(opened) != 1 || opened[0] != "dxcompiler" {
		t.Errorf("Opened() = %v, want [dxcompiler]", opened)
	}
}

func TestCompiler_LibraryName(t *testing.T) {
	tests := []struct {
		name   string
		target dxc.Target
		custom string
		want   string
	}{
		{"direct3d12", dxc.TargetDirect3D12, "", "dxcompiler"},
		{"vulkan", dxc.TargetVulkan, "", "spv_dxcompiler"},
		{"custom", dxc.TargetDirect3D12, "dxcompiler_1_8", "dxcompiler_1_8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := dxctest.New()
			opts := lib.Options(tt.target)
			opts.LibraryName = tt.custom
			opts.Logger = log.New(io.Discard, "", 0)
			dxc.New(opts).IsLoaded()
			if opened := lib.Opened(); len(opened) != 1 || opened[0] != tt.want {
				t.Errorf("Opened() = %v, want [%s]", opened, tt.want)
			}
		})
	}
}

func TestCompiler_Version(t *testing.T) {
	lib := dxctest.New()
	lib.SetVersion(dxc.Version{Major: 1, Minor: 5})
	c, buf := newCompiler(t, lib, dxc.TargetDirect3D12)

	v, err := c.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != (dxc.Version{Major: 1, Minor: 5}) {
		t.Errorf("Version() = %s, want 1.5", v)
	}
	if got := c.MaxShaderModel(); got != hlsl.ShaderModel6_5 {
		t.Errorf("MaxShaderModel() = %s, want %s", got, hlsl.ShaderModel6_5)
	}
	if !strings.Contains(buf.String(), "loaded dxcompiler, version 1.5") {
		t.Errorf("log = %q, want the loaded version", buf.String())
	}
}

func TestCompile_Signs(t *testing.T) {
	for _, inPlace := range []bool{false, true} {
		lib := dxctest.New()
		lib.SignInPlace = inPlace
		c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)

		bc := compilePixel(t, c)
		if !dxil.IsDXILBytecode(bc) {
			t.Errorf("inPlace=%v: output is not DXIL", inPlace)
		}
		if !dxctest.IsSigned(bc) {
			t.Errorf("inPlace=%v: output is not signed", inPlace)
		}
	}
}

func TestCompile_VulkanIsNotValidated(t *testing.T) {
	lib := dxctest.New()
	lib.ValidationLog = "must not validate"
	c, _ := newCompiler(t, lib, dxc.TargetVulkan)

	out, err := c.Compile(dxc.CompileAttribs{Source: []byte(pixelSource), EntryPoint: "main", Profile: "ps_6_0"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if dxctest.IsSigned(out.Bytecode) {
		t.Error("SPIR-V output was signed")
	}
}

func TestCompile_Failures(t *testing.T) {
	t.Run("compilation", func(t *testing.T) {
		c, _ := newCompiler(t, dxctest.New(), dxc.TargetDirect3D12)
		_, err := c.Compile(dxc.CompileAttribs{
			Source:     []byte("\n#error broken\n"),
			SourceName: "broken.hlsl",
			EntryPoint: "main",
			Profile:    "ps_6_0",
		})
		var e *dxc.Error
		if !errors.As(err, &e) || e.Kind != dxc.ErrCompilationFailed {
			t.Fatalf("Compile error = %v, want ErrCompilationFailed", err)
		}
		if !strings.Contains(e.Log, "broken.hlsl:2:2: error") {
			t.Errorf("Log = %q, want the compiler diagnostic", e.Log)
		}
	})

	t.Run("validation", func(t *testing.T) {
		lib := dxctest.New()
		lib.ValidationLog = "error: Container part 'Program Hash' does not match"
		c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)
		_, err := c.Compile(dxc.CompileAttribs{Source: []byte(pixelSource), EntryPoint: "main", Profile: "ps_6_0"})
		var e *dxc.Error
		if !errors.As(err, &e) || e.Kind != dxc.ErrValidationFailed {
			t.Fatalf("Compile error = %v, want ErrValidationFailed", err)
		}
		if e.Log != lib.ValidationLog {
			t.Errorf("Log = %q, want %q", e.Log, lib.ValidationLog)
		}
	})

	t.Run("warnings on success", func(t *testing.T) {
		lib := dxctest.New()
		lib.CompileLog = "pixel.hlsl:4:1: warning: implicit truncation"
		c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)
		out, err := c.Compile(dxc.CompileAttribs{Source: []byte(pixelSource), EntryPoint: "main", Profile: "ps_6_0"})
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if out.Log != lib.CompileLog {
			t.Errorf("Log = %q, want %q", out.Log, lib.CompileLog)
		}
	})
}

func TestCompile_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		attrs dxc.CompileAttribs
	}{
		{"no source", dxc.CompileAttribs{EntryPoint: "main", Profile: "ps_6_0"}},
		{"no entry point", dxc.CompileAttribs{Source: []byte("x"), Profile: "ps_6_0"}},
		{"no profile", dxc.CompileAttribs{Source: []byte("x"), EntryPoint: "main"}},
		{"unnamed define", dxc.CompileAttribs{Source: []byte("x"), EntryPoint: "main", Profile: "ps_6_0",
			Defines: []dxc.Define{{Value: "1"}}}},
		{"empty argument", dxc.CompileAttribs{Source: []byte("x"), EntryPoint: "main", Profile: "ps_6_0",
			Args: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCompiler(t, dxctest.New(), dxc.TargetDirect3D12)
			if _, err := c.Compile(tt.attrs); !errors.IsAssertionFailure(err) {
				t.Errorf("Compile error = %v, want an assertion failure", err)
			}
		})
	}
}

func TestCompileShader(t *testing.T) {
	lib := dxctest.New()
	c, buf := newCompiler(t, lib, dxc.TargetDirect3D12)

	_, err := c.CompileShader(dxc.ShaderCreateInfo{
		Name:       "raygen",
		Source:     "[shader(\"raygeneration\")] void RayGen() {}",
		EntryPoint: "RayGen",
		Kind:       hlsl.ShaderKindRayGen,
		Macros:     []hlsl.Macro{{Name: "USE_SHADOWS", Definition: "1"}},
	}, hlsl.ShaderModel6_3, "#define EXTRA 1\n")
	if err != nil {
		t.Fatalf("CompileShader: %v", err)
	}

	reqs := lib.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Profile != "lib_6_3" {
		t.Errorf("Profile = %q, want lib_6_3", req.Profile)
	}
	if diff := pretty.Diff(req.Defines, []dxc.Define{{Name: "DXCOMPILER"}}); len(diff) > 0 {
		t.Errorf("Defines differ: %v", diff)
	}
	if diff := pretty.Diff(req.Args, []string{"-Zpc", "-O3"}); len(diff) > 0 {
		t.Errorf("Args differ: %v", diff)
	}
	src := string(req.Source)
	if !strings.Contains(src, "#define USE_SHADOWS 1") || !strings.Contains(src, "#define EXTRA 1") {
		t.Errorf("macros missing from source:\n%s", src)
	}
	if strings.Contains(buf.String(), "grading") {
		t.Errorf("unexpected shader model adjustment: %s", buf.String())
	}
}

func TestCompileShader_ClampsModel(t *testing.T) {
	lib := dxctest.New()
	lib.SetVersion(dxc.Version{Major: 1, Minor: 5})
	c, buf := newCompiler(t, lib, dxc.TargetDirect3D12)

	for _, sm := range []hlsl.ShaderModel{hlsl.ShaderModel5_1, hlsl.ShaderModel6_6, {}} {
		if _, err := c.CompileShader(dxc.ShaderCreateInfo{Source: pixelSource, Kind: hlsl.ShaderKindPixel}, sm, ""); err != nil {
			t.Fatalf("CompileShader(%s): %v", sm, err)
		}
	}
	var profiles []string
	for _, req := range lib.Requests() {
		profiles = append(profiles, req.Profile)
	}
	if diff := pretty.Diff(profiles, []string{"ps_6_0", "ps_6_5", "ps_6_5"}); len(diff) > 0 {
		t.Errorf("profiles differ: %v", diff)
	}
	for _, want := range []string{"upgrading 5_1 to 6_0", "downgrading 6_6"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q does not mention %q", buf.String(), want)
		}
	}
}

func TestCompileShader_FromFile(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/pixel.hlsl":  {Data: []byte(pixelSource)},
		"shaders/common.hlsl": {Data: []byte("#define COMMON 1\n")},
	}
	lib := dxctest.New()
	lib.RequireIncludes("./shaders/common.hlsl", "shaders/common.hlsl")
	c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)

	_, err := c.CompileShader(dxc.ShaderCreateInfo{
		FilePath: "shaders/pixel.hlsl",
		Kind:     hlsl.ShaderKindPixel,
		Includes: dxc.FSStreamFactory(fsys),
	}, hlsl.ShaderModel6_0, "")
	if err != nil {
		t.Fatalf("CompileShader: %v", err)
	}
	req := lib.Requests()[0]
	if !strings.Contains(string(req.Source), "g_Texture.Sample") {
		t.Errorf("source was not loaded from the file system:\n%s", req.Source)
	}
	if req.SourceName != "shaders/pixel.hlsl" {
		t.Errorf("SourceName = %q, want the file path", req.SourceName)
	}
}

func TestCompileShader_IncludeErrors(t *testing.T) {
	opens := 0
	factory := dxc.StreamFactoryFunc(func(name string) (io.ReadCloser, error) {
		opens++
		if name == "exists.hlsli" {
			return io.NopCloser(strings.NewReader("")), nil
		}
		return nil, errors.Newf("no file %s", name)
	})

	tests := []struct {
		name    string
		include string
		cause   error
	}{
		{"not found", "missing.hlsli", dxc.ErrIncludeNotFound},
		{"encoding", "fehlt_€.hlsli", dxc.ErrIncludeNameEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := dxctest.New()
			lib.RequireIncludes("exists.hlsli", tt.include)
			c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)
			_, err := c.CompileShader(dxc.ShaderCreateInfo{Source: pixelSource, Kind: hlsl.ShaderKindPixel, Includes: factory}, hlsl.ShaderModel6_0, "")
			if !dxc.IsKind(err, dxc.ErrInclude) {
				t.Fatalf("CompileShader error = %v, want ErrInclude", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("CompileShader error = %v, want cause %v", err, tt.cause)
			}
		})
	}

	t.Run("cached", func(t *testing.T) {
		opens = 0
		lib := dxctest.New()
		lib.RequireIncludes("exists.hlsli", "./exists.hlsli", "exists.hlsli")
		c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)
		_, err := c.CompileShader(dxc.ShaderCreateInfo{Source: pixelSource, Kind: hlsl.ShaderKindPixel, Includes: factory}, hlsl.ShaderModel6_0, "")
		if err != nil {
			t.Fatalf("CompileShader: %v", err)
		}
		if opens != 1 {
			t.Errorf("include opened %d times, want 1", opens)
		}
	})
}

func TestCompileShader_MissingSource(t *testing.T) {
	c, _ := newCompiler(t, dxctest.New(), dxc.TargetDirect3D12)
	_, err := c.CompileShader(dxc.ShaderCreateInfo{Kind: hlsl.ShaderKindPixel}, hlsl.ShaderModel6_0, "")
	if !errors.IsAssertionFailure(err) {
		t.Errorf("CompileShader error = %v, want an assertion failure", err)
	}
	_, err = c.CompileShader(dxc.ShaderCreateInfo{Source: pixelSource}, hlsl.ShaderModel6_0, "")
	if !errors.IsAssertionFailure(err) {
		t.Errorf("CompileShader without a kind = %v, want an assertion failure", err)
	}
}

func TestCompileShader_BadMacro(t *testing.T) {
	lib := dxctest.New()
	c, _ := newCompiler(t, lib, dxc.TargetDirect3D12)
	_, err := c.CompileShader(dxc.ShaderCreateInfo{
		Name:   "fog.hlsl",
		Source: pixelSource,
		Kind:   hlsl.ShaderKindPixel,
		Macros: []hlsl.Macro{{Name: "float", Definition: "half"}},
	}, hlsl.ShaderModel6_0, "")
	if !errors.IsAssertionFailure(err) {
		t.Fatalf("CompileShader error = %v, want an assertion failure", err)
	}
	if n := len(lib.Requests()); n != 0 {
		t.Errorf("compiler saw %d requests, want 0", n)
	}
}
