// Command dxcremap compiles HLSL shaders with the DirectX Shader Compiler
// and relocates their resource bindings.
//
// Usage:
//
//	dxcremap [options] <input.hlsl>...
//
// Examples:
//
//	dxcremap -T pixel -E PSMain blit.hlsl                  # Compile to blit.dxil
//	dxcremap -T compute -bindings cs.bind -o out *.hlsl    # Compile and remap into out/
//	dxcremap -stats -j 8 shaders/*.hlsl                    # Report per-stage timings
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/dxcbind"
	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/hlsl"
)

var (
	output   = flag.String("o", "", "output file for a single input, or output directory (default: next to the input)")
	entry    = flag.String("E", "main", "entry point")
	kind     = flag.String("T", "pixel", "shader kind: vertex, pixel, geometry, hull, domain, compute, mesh, amplification, raygen, ...")
	model    = flag.String("sm", "", "shader model, e.g. 6.5 (default: highest supported, or 6.5 with -bindings)")
	include  = flag.String("I", "", "include directory (default: directory of each input)")
	bindings = flag.String("bindings", "", "binding map file; one 'name kind space register count' per line")
	debug    = flag.Bool("debug", false, "compile with debug information and without optimization")
	vulkan   = flag.Bool("vulkan", false, "produce SPIR-V instead of DXIL")
	stats    = flag.Bool("stats", false, "print per-stage timings")
	jobs     = flag.Int("j", runtime.GOMAXPROCS(0), "number of inputs processed concurrently")
	verbose  = flag.Bool("v", false, "log compiler messages")
	version  = flag.Bool("version", false, "print version")
	macros   macroList
)

const dxcremapVersion = "0.1.0-dev"

func init() {
	flag.Var(&macros, "D", "preprocessor definition NAME[=VALUE]; may be repeated")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("dxcremap version %s\n", dxcremapVersion)
		return
	}

	inputs := flag.Args()
	if len(inputs) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	cfg, err := newConfig(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	timings := &timings{}
	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for _, in := range inputs {
		g.Go(func() error {
			return cfg.process(in, timings)
		})
	}
	err = g.Wait()
	if *stats {
		timings.print(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	compiler *dxc.Compiler
	kind     hlsl.ShaderKind
	model    hlsl.ShaderModel
	bindings hlsl.ResourceBindingMap
	outDir   string
	outFile  string
}

func newConfig(inputs []string) (*config, error) {
	cfg := &config{}
	var err error
	if cfg.kind, err = hlsl.ParseShaderKind(*kind); err != nil {
		return nil, err
	}
	if *model != "" {
		if cfg.model, err = hlsl.ParseShaderModel(*model); err != nil {
			return nil, err
		}
	}
	if *bindings != "" {
		f, err := os.Open(*bindings)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg.bindings, err = parseBindings(f); err != nil {
			return nil, errors.Wrapf(err, "%s", *bindings)
		}
		// Binding handles of SM 6.6 and later cannot be remapped.
		if cfg.model.IsZero() {
			cfg.model = hlsl.ShaderModel6_5
		}
	}

	switch {
	case *output == "":
	case len(inputs) == 1 && !isDir(*output):
		cfg.outFile = *output
	default:
		if err := os.MkdirAll(*output, 0o755); err != nil {
			return nil, err
		}
		cfg.outDir = *output
	}

	target := dxc.TargetDirect3D12
	if *vulkan {
		target = dxc.TargetVulkan
		if cfg.bindings != nil {
			return nil, errors.New("resource bindings of SPIR-V cannot be remapped")
		}
	}
	opts := dxcbind.DefaultOptions(target)
	opts.Debug = *debug
	opts.Logger = log.New(io.Discard, "", 0)
	if *verbose {
		opts.Logger = log.New(os.Stderr, "", 0)
	}
	cfg.compiler = dxc.New(opts)
	return cfg, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (cfg *config) outputPath(input string) string {
	if cfg.outFile != "" {
		return cfg.outFile
	}
	ext := ".dxil"
	if cfg.compiler.Target() == dxc.TargetVulkan {
		ext = ".spv"
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if cfg.outDir != "" {
		return filepath.Join(cfg.outDir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

func (cfg *config) process(input string, t *timings) error {
	source, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	dir := *include
	if dir == "" {
		dir = filepath.Dir(input)
	}

	start := hrtime.Now()
	out, err := cfg.compiler.CompileShader(dxc.ShaderCreateInfo{
		Name:       input,
		Source:     string(source),
		EntryPoint: *entry,
		Kind:       cfg.kind,
		Macros:     macros,
		Includes:   dxc.FSStreamFactory(os.DirFS(dir)),
	}, cfg.model, "")
	t.add(stageCompile, hrtime.Since(start))
	if err != nil {
		return err
	}
	if out.Log != "" {
		fmt.Fprintln(os.Stderr, out.Log)
	}

	bytecode := out.Bytecode
	if cfg.bindings != nil {
		start = hrtime.Now()
		bytecode, err = cfg.compiler.RemapResourceBindings(cfg.bindings, bytecode)
		t.add(stageRemap, hrtime.Since(start))
		if err != nil {
			return errors.Wrapf(err, "%s", input)
		}
	}

	path := cfg.outputPath(input)
	if err := os.WriteFile(path, bytecode, 0o644); err != nil {
		return err
	}
	fmt.Printf("Successfully compiled %s to %s (%d bytes)\n", input, path, len(bytecode))
	return nil
}

// macroList collects repeated -D flags.
type macroList []hlsl.Macro

func (m *macroList) String() string {
	var parts []string
	for _, d := range *m {
		parts = append(parts, d.Name+"="+d.Definition)
	}
	return strings.Join(parts, ",")
}

func (m *macroList) Set(s string) error {
	name, value, _ := strings.Cut(s, "=")
	if name == "" {
		return errors.Newf("empty macro name in %q", s)
	}
	*m = append(*m, hlsl.Macro{Name: name, Definition: value})
	return nil
}

type stage int

const (
	stageCompile stage = iota
	stageRemap
	numStages
)

var stageNames = [numStages]string{"compile", "remap"}

type timings struct {
	mu    sync.Mutex
	total [numStages]time.Duration
	count [numStages]int
	worst [numStages]time.Duration
}

func (t *timings) add(s stage, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total[s] += d
	t.count[s]++
	t.worst[s] = max(t.worst[s], d)
}

func (t *timings) print(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for s := stage(0); s < numStages; s++ {
		if t.count[s] == 0 {
			continue
		}
		avg := t.total[s] / time.Duration(t.count[s])
		fmt.Fprintf(w, "%-8s %4d shaders  total %10v  avg %10v  max %10v\n",
			stageNames[s], t.count[s], t.total[s], avg, t.worst[s])
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: dxcremap [options] <input.hlsl>...\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  dxcremap -T pixel -E PSMain blit.hlsl                Compile to blit.dxil\n")
	fmt.Fprintf(os.Stderr, "  dxcremap -bindings ps.bind -o out blit.hlsl tone.hlsl Compile and remap into out/\n")
	fmt.Fprintf(os.Stderr, "  dxcremap -stats shaders/*.hlsl                       Report per-stage timings\n")
}
