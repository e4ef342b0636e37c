// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dxcexec implements dxc.Library by running the dxc, dxa and dxv
// executables of the DirectX Shader Compiler.
//
// Every call runs in its own session directory, so a Library is safe for
// concurrent use.
package dxcexec

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sys/execabs"

	"github.com/gogpu/dxcbind/dxc"
	"github.com/gogpu/dxcbind/dxil"
)

// Open returns a dxc.OpenFunc that starts the tools of cfg. The default
// library names of both targets select cfg.Compiler; any other name is
// taken as the path of the compiler executable.
func Open(cfg Config) dxc.OpenFunc {
	return func(name string) (dxc.Library, error) {
		compiler := cfg.Compiler
		if name != dxc.TargetDirect3D12.DefaultLibraryName() && name != dxc.TargetVulkan.DefaultLibraryName() {
			compiler = name
		}
		return New(cfg, compiler)
	}
}

// Library runs the compiler tools.
type Library struct {
	cfg Config

	compiler  string
	assembler string
	validator string

	versionOnce sync.Once
	version     dxc.Version
	versionErr  error
}

// New locates the tools of cfg, using compiler as the dxc executable.
// The compiler must exist; the assembler and validator are optional.
func New(cfg Config, compiler string) (*Library, error) {
	if compiler == "" {
		compiler = cfg.Compiler
	}
	exe, err := execabs.LookPath(compiler)
	if err != nil {
		return nil, errors.Wrapf(err, "dxcexec: compiler %q not found", compiler)
	}
	l := &Library{cfg: cfg, compiler: exe}
	if cfg.Assembler != "" {
		l.assembler, _ = execabs.LookPath(cfg.Assembler)
	}
	if cfg.Validator != "" {
		l.validator, _ = execabs.LookPath(cfg.Validator)
	}
	return l, nil
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// Version runs "dxc --version" once and reports the result.
func (l *Library) Version() (dxc.Version, error) {
	l.versionOnce.Do(func() {
		out, err := execabs.Command(l.compiler, "--version").CombinedOutput()
		if err != nil {
			l.versionErr = errors.Wrapf(err, "dxcexec: %s --version: %s", l.compiler, bytes.TrimSpace(out))
			return
		}
		l.version, l.versionErr = parseVersion(string(out))
	})
	return l.version, l.versionErr
}

func parseVersion(s string) (dxc.Version, error) {
	// "dxcompiler.dll: 1.7 - 1.7.2308.12 (...)" or "libdxcompiler.so: 1.8(dev;...)"
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return dxc.Version{}, errors.Newf("dxcexec: no version in %q", strings.TrimSpace(s))
	}
	major, _ := strconv.ParseUint(m[1], 10, 32)
	minor, _ := strconv.ParseUint(m[2], 10, 32)
	return dxc.Version{Major: uint32(major), Minor: uint32(minor)}, nil
}

// session is the scratch directory of one call.
type session struct {
	dir string
}

func (l *Library) newSession() (*session, error) {
	dir, err := os.MkdirTemp(l.cfg.WorkDir, "dxcbind-")
	if err != nil {
		return nil, errors.Wrap(err, "dxcexec: creating session directory")
	}
	return &session{dir: dir}, nil
}

func (s *session) close() {
	_ = os.RemoveAll(s.dir)
}

// file returns a fresh file name with the given extension.
func (s *session) file(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+ext)
}

func (s *session) write(ext string, data []byte) (string, error) {
	name := s.file(ext)
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return "", errors.Wrap(err, "dxcexec: writing session file")
	}
	return name, nil
}

// run executes a tool. A non-zero exit status is a failed Result, not an
// error.
func (s *session) run(tool string, args ...string) (*dxc.Result, error) {
	cmd := execabs.Command(tool, args...) //nolint:gosec // G204: tool paths come from Config
	cmd.Dir = s.dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	res := &dxc.Result{Log: strings.TrimSpace(out.String())}
	var exitErr *execabs.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.Failed = true
	case err != nil:
		return nil, errors.Wrapf(err, "dxcexec: running %s", filepath.Base(tool))
	}
	return res, nil
}

// readOutput fills res.Output from a file the tool wrote.
func readOutput(res *dxc.Result, name string) (*dxc.Result, error) {
	if res.Failed {
		return res, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "dxcexec: reading tool output")
	}
	res.Output = data
	return res, nil
}

// Compile runs dxc on the request source. Includes are resolved up front
// and written into the session directory.
func (l *Library) Compile(req *dxc.CompileRequest) (*dxc.Result, error) {
	s, err := l.newSession()
	if err != nil {
		return nil, err
	}
	defer s.close()

	if req.Includes != nil {
		if err := writeIncludes(s.dir, req.Source, req.Includes); err != nil {
			return nil, err
		}
	}
	src, err := s.write(".hlsl", req.Source)
	if err != nil {
		return nil, err
	}
	out := s.file(".bin")

	args := []string{"-T", req.Profile, "-E", req.EntryPoint, "-Fo", out}
	args = append(args, req.Args...)
	for _, d := range req.Defines {
		if d.Value == "" {
			args = append(args, "-D", d.Name)
		} else {
			args = append(args, "-D", d.Name+"="+d.Value)
		}
	}
	args = append(args, "-I", s.dir, src)

	res, err := s.run(l.compiler, args...)
	if err != nil {
		return nil, err
	}
	if req.SourceName != "" {
		res.Log = strings.ReplaceAll(res.Log, src, req.SourceName)
	}
	return readOutput(res, out)
}

var includePattern = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*([<"])([^">\r\n]+)[">]`)

// writeIncludes copies every file reachable through #include directives
// into dir, mirroring the layout the stream factory exposes. Directives
// are found without preprocessing, so a file that cannot be loaded or
// resolves outside dir is skipped; dxc reports it if it is really needed.
func writeIncludes(dir string, source []byte, h dxc.IncludeHandler) error {
	type pending struct {
		name string
		data []byte
	}
	loaded := map[string]bool{}
	queue := []pending{{data: source}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range includePattern.FindAllSubmatch(cur.data, -1) {
			for _, rel := range includeCandidates(cur.name, string(m[2]), m[1][0] == '"') {
				ok, tried := loaded[rel]
				if tried {
					if ok {
						break
					}
					continue
				}
				data, err := h.LoadSource(rel)
				loaded[rel] = err == nil
				if err != nil {
					continue
				}
				target := filepath.Join(dir, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
					return errors.Wrap(err, "dxcexec: creating include directory")
				}
				if err := os.WriteFile(target, data, 0o600); err != nil {
					return errors.Wrap(err, "dxcexec: writing include file")
				}
				queue = append(queue, pending{name: rel, data: data})
				break
			}
		}
	}
	return nil
}

// includeCandidates lists the root-relative paths dxc searches for an
// include directive in file includer, in search order. Quoted includes
// look next to the including file first. Paths leaving the root are
// dropped.
func includeCandidates(includer, name string, quoted bool) []string {
	rel := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(rel) {
		return nil
	}
	var out []string
	if dir := path.Dir(includer); quoted && includer != "" && dir != "." {
		out = append(out, path.Join(dir, rel))
	}
	out = append(out, rel)

	kept := out[:0]
	for _, p := range out {
		if p != ".." && !strings.HasPrefix(p, "../") && !slices.Contains(kept, p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Disassemble runs "dxc -dumpbin".
func (l *Library) Disassemble(bytecode []byte) (*dxc.Result, error) {
	s, err := l.newSession()
	if err != nil {
		return nil, err
	}
	defer s.close()

	in, err := s.write(".bin", bytecode)
	if err != nil {
		return nil, err
	}
	out := s.file(".ll")
	res, err := s.run(l.compiler, "-dumpbin", in, "-Fc", out)
	if err != nil {
		return nil, err
	}
	return readOutput(res, out)
}

// Assemble runs dxa.
func (l *Library) Assemble(text []byte) (*dxc.Result, error) {
	if l.assembler == "" {
		return nil, errors.Newf("dxcexec: assembler %q not found", l.cfg.Assembler)
	}
	s, err := l.newSession()
	if err != nil {
		return nil, err
	}
	defer s.close()

	in, err := s.write(".ll", text)
	if err != nil {
		return nil, err
	}
	out := s.file(".bin")
	res, err := s.run(l.assembler, "-o", out, in)
	if err != nil {
		return nil, err
	}
	return readOutput(res, out)
}

// Validate runs dxv. Without a validator, bytecode that carries a digest
// is accepted unchanged.
func (l *Library) Validate(bytecode []byte) (*dxc.Result, error) {
	if l.validator == "" {
		c, err := dxil.ParseContainer(bytecode)
		if err != nil {
			return &dxc.Result{Failed: true, Log: err.Error()}, nil
		}
		if c.Digest == [16]byte{} {
			return &dxc.Result{Failed: true, Log: "bytecode is not signed and no validator is available"}, nil
		}
		return &dxc.Result{}, nil
	}

	s, err := l.newSession()
	if err != nil {
		return nil, err
	}
	defer s.close()

	in, err := s.write(".bin", bytecode)
	if err != nil {
		return nil, err
	}
	out := s.file(".bin")
	res, err := s.run(l.validator, in, "-o", out)
	if err != nil {
		return nil, err
	}
	return readOutput(res, out)
}
