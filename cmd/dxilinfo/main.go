// dxilinfo - DXIL container inspector
// Prints the container parts and, with -reflect, the resource bindings
// and signatures reported by the compiler.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/gogpu/dxcbind"
	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxil"
)

var (
	reflect = flag.Bool("reflect", false, "print reflected resource bindings and signatures (needs dxc)")
	dis     = flag.Bool("dis", false, "print the disassembly (needs dxc)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dxilinfo [-reflect] [-dis] <file.dxil>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := printContainer(os.Stdout, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !*reflect && !*dis {
		return
	}

	opts := dxcbind.DefaultOptions(dxc.TargetDirect3D12)
	opts.Logger = log.New(io.Discard, "", 0)
	c := dxc.New(opts)
	if *reflect {
		refl, err := c.Reflect(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printReflection(os.Stdout, refl)
	}
	if *dis {
		text, err := c.Disassemble(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		fmt.Print(text)
	}
}

func printContainer(w io.Writer, data []byte) error {
	c, err := dxil.ParseContainer(data)
	if err != nil {
		return err
	}
	signed := "unsigned"
	if c.Digest != [16]byte{} {
		signed = hex.EncodeToString(c.Digest[:])
	}
	fmt.Fprintf(w, "; DXIL container\n")
	fmt.Fprintf(w, "; Version: %d.%d\n", c.Major, c.Minor)
	fmt.Fprintf(w, "; Digest: %s\n", signed)
	fmt.Fprintf(w, "; Size: %d\n", len(data))
	fmt.Fprintf(w, "; Parts: %d\n", len(c.Parts))
	for i, p := range c.Parts {
		fmt.Fprintf(w, ";   %2d %s %8d bytes\n", i, p.FourCC, len(p.Data))
	}
	return nil
}

func count(n uint32) string {
	if n == 0 || n == math.MaxUint32 {
		return "unbounded"
	}
	return fmt.Sprint(n)
}

func printReflection(w io.Writer, refl dxc.ShaderReflection) {
	desc, err := refl.Desc()
	if err != nil {
		fmt.Fprintf(w, "; Desc: %v\n", err)
		return
	}
	kind := desc.ProgramType().ShaderKind()
	fmt.Fprintf(w, ";\n; Shader: %s %s\n", kind, desc.ShaderModel())
	fmt.Fprintf(w, "; Creator: %s\n", desc.Creator)
	fmt.Fprintf(w, "; Instructions: %d\n", desc.InstructionCount)

	fmt.Fprintf(w, ";\n; Resource Bindings:\n")
	fmt.Fprintf(w, "; %-30s %-30s %6s %8s %10s\n", "Name", "Type", "Space", "Register", "Count")
	for i := uint32(0); i < desc.BoundResources; i++ {
		bd, err := refl.ResourceBindingDesc(i)
		if err != nil {
			fmt.Fprintf(w, "; %d: %v\n", i, err)
			continue
		}
		class, _ := bd.Type.RegisterType()
		fmt.Fprintf(w, "; %-30s %-30s %6d %7s%d %10s\n", bd.Name, bd.Type, bd.Space, class, bd.BindPoint, count(bd.BindCount))
	}

	for i := uint32(0); i < desc.ConstantBuffers; i++ {
		cb, err := refl.ConstantBufferByIndex(i)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, ";\n; cbuffer %s (%d bytes)\n", cb.Name, cb.Size)
		for _, v := range cb.Variables {
			fmt.Fprintf(w, ";   %-24s %-20s offset %d\n", v.Name, v.Type, v.StartOffset)
		}
	}

	printSignature(w, "Input", desc.InputParameters, refl.InputParameterDesc)
	printSignature(w, "Output", desc.OutputParameters, refl.OutputParameterDesc)
	if size, err := refl.ThreadGroupSize(); err == nil && size != [3]uint32{} {
		fmt.Fprintf(w, ";\n; Thread group: %d x %d x %d\n", size[0], size[1], size[2])
	}
}

func printSignature(w io.Writer, name string, n uint32, param func(uint32) (dxc.SignatureParameterDesc, error)) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, ";\n; %s signature:\n", name)
	for i := uint32(0); i < n; i++ {
		p, err := param(i)
		if err != nil {
			fmt.Fprintf(w, ";   %d: %v\n", i, err)
			continue
		}
		fmt.Fprintf(w, ";   %-20s %2d  mask %04b  register %d\n", p.SemanticName, p.SemanticIndex, p.Mask, int32(p.Register))
	}
}
