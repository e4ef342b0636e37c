// Package dxcbind compiles HLSL with the DirectX Shader Compiler and
// relocates the resource bindings of compiled DXIL.
//
// The package keeps one lazily loaded compiler per target, backed by the
// dxc tools found on PATH (see dxc/dxcexec):
//
//	out, err := dxcbind.Compile(dxc.TargetDirect3D12, dxc.ShaderCreateInfo{
//	    Name:       "blit",
//	    Source:     src,
//	    EntryPoint: "PSMain",
//	    Kind:       hlsl.ShaderKindPixel,
//	}, hlsl.ShaderModel6_0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	remapped, err := dxcbind.Remap(bindings, out.Bytecode)
//
// For control over loading, logging and debug information create a
// dxc.Compiler directly.
package dxcbind

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxc/dxcexec"
	"github.com/gogpu/dxcbind/hlsl"
)

var (
	compilersMu sync.Mutex
	compilers   = map[dxc.Target]*dxc.Compiler{}
)

// DefaultOptions returns the options of the shared compiler for target.
func DefaultOptions(target dxc.Target) dxc.Options {
	opts := dxc.DefaultOptions()
	opts.Target = target
	opts.Open = dxcexec.Open(dxcexec.DefaultConfig())
	return opts
}

// Compiler returns the shared compiler for target. Nothing is loaded
// until the compiler is first used.
func Compiler(target dxc.Target) *dxc.Compiler {
	compilersMu.Lock()
	defer compilersMu.Unlock()
	c, ok := compilers[target]
	if !ok {
		c = dxc.New(DefaultOptions(target))
		compilers[target] = c
	}
	return c
}

// Compile compiles a shader with the shared compiler for target.
func Compile(target dxc.Target, ci dxc.ShaderCreateInfo, model hlsl.ShaderModel) (*dxc.Output, error) {
	return Compiler(target).CompileShader(ci, model, "")
}

// Remap relocates the resource bindings of DXIL bytecode with the shared
// Direct3D12 compiler.
func Remap(bindings hlsl.ResourceBindingMap, bytecode []byte) ([]byte, error) {
	return Compiler(dxc.TargetDirect3D12).RemapResourceBindings(bindings, bytecode)
}

// RemapJob is one shader of a batch remap.
type RemapJob struct {
	Bindings hlsl.ResourceBindingMap
	Bytecode []byte
}

// RemapAll remaps every job on its own goroutine, at most GOMAXPROCS at
// a time. Results are in job order. The first failure is returned once
// all started jobs have finished.
func RemapAll(c *dxc.Compiler, jobs []RemapJob) ([][]byte, error) {
	out := make([][]byte, len(jobs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			b, err := c.RemapResourceBindings(job.Bindings, job.Bytecode)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
