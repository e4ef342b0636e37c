package dxcbind

import (
	"io"
	"log"
	"testing"

	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxc/dxctest"
	"github.com/gogpu/dxcbind/hlsl"
)

func TestCompiler_Shared(t *testing.T) {
	d3d := Compiler(dxc.TargetDirect3D12)
	if d3d != Compiler(dxc.TargetDirect3D12) {
		t.Error("Compiler returned different instances for the same target")
	}
	if d3d == Compiler(dxc.TargetVulkan) {
		t.Error("Compiler shares an instance between targets")
	}
	if got := Compiler(dxc.TargetVulkan).Target(); got != dxc.TargetVulkan {
		t.Errorf("Target() = %s, want Vulkan", got)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions(dxc.TargetVulkan)
	if opts.Target != dxc.TargetVulkan {
		t.Errorf("Target = %s, want Vulkan", opts.Target)
	}
	if opts.Open == nil {
		t.Error("Open is not set")
	}
	if opts.Debug {
		t.Error("Debug is set by default")
	}
}

func TestRemapAll(t *testing.T) {
	lib := dxctest.New()
	opts := lib.Options(dxc.TargetDirect3D12)
	opts.Logger = log.New(io.Discard, "", 0)
	c := dxc.New(opts)

	compile := func(entry, profile string) []byte {
		out, err := c.Compile(dxc.CompileAttribs{Source: []byte("//"), EntryPoint: entry, Profile: profile})
		if err != nil {
			t.Fatalf("Compile(%s): %v", entry, err)
		}
		return out.Bytecode
	}
	pixel := hlsl.ResourceBindingMap{
		"g_Texture": {Space: 1, BindPoint: 5, ArraySize: 1, Kind: hlsl.ResourceKindTextureSRV},
		"Constants": {Space: 0, BindPoint: 0, ArraySize: 1, Kind: hlsl.ResourceKindConstantBuffer},
		"g_Sampler": {Space: 2, BindPoint: 7, ArraySize: 1, Kind: hlsl.ResourceKindSampler},
	}
	raygen := hlsl.ResourceBindingMap{
		"g_Output": {Space: 1, BindPoint: 4, ArraySize: 1, Kind: hlsl.ResourceKindTextureUAV},
		"g_Scene":  {Space: 0, BindPoint: 8, ArraySize: 1, Kind: hlsl.ResourceKindAccelerationStructure},
	}

	var jobs []RemapJob
	for i := 0; i < 8; i++ {
		jobs = append(jobs,
			RemapJob{Bindings: pixel, Bytecode: compile("main", "ps_6_0")},
			RemapJob{Bindings: raygen, Bytecode: compile("RayGen", "lib_6_3")})
	}

	out, err := RemapAll(c, jobs)
	if err != nil {
		t.Fatalf("RemapAll: %v", err)
	}
	if len(out) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(out), len(jobs))
	}
	for i, b := range out {
		refl, err := c.Reflect(b)
		if err != nil {
			t.Fatalf("job %d: Reflect: %v", i, err)
		}
		for name, want := range jobs[i].Bindings {
			bd, err := refl.ResourceBindingDescByName(name)
			if err != nil {
				t.Fatalf("job %d: %s: %v", i, name, err)
			}
			if bd.Space != want.Space || bd.BindPoint != want.BindPoint {
				t.Errorf("job %d: %s at space %d register %d, want %d/%d",
					i, name, bd.Space, bd.BindPoint, want.Space, want.BindPoint)
			}
		}
	}

	jobs = append(jobs, RemapJob{Bindings: pixel, Bytecode: []byte("garbage")})
	if _, err := RemapAll(c, jobs); !dxc.IsKind(err, dxc.ErrDisassemblyFailed) {
		t.Errorf("RemapAll error = %v, want ErrDisassemblyFailed", err)
	}
}
