package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/hlsl"
)

// parseBindings reads a binding map. Each non-empty line that does not
// start with '#' holds "name kind space register [count]".
func parseBindings(r io.Reader) (hlsl.ResourceBindingMap, error) {
	m := hlsl.ResourceBindingMap{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 4 && len(f) != 5 {
			return nil, errors.Newf("line %d: want 'name kind space register [count]', got %q", line, text)
		}
		kind, ok := hlsl.ParseResourceKind(f[1])
		if !ok {
			return nil, errors.Newf("line %d: unknown resource kind %q", line, f[1])
		}
		space, err := parseUint(f[2])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: space", line)
		}
		register, err := parseUint(f[3])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: register", line)
		}
		bind := hlsl.DefaultBindInfo(kind).WithSpace(space).WithBindPoint(register)
		if len(f) == 5 {
			count, err := parseUint(f[4])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: count", line)
			}
			bind = bind.WithArraySize(count)
		}
		if _, dup := m[f[0]]; dup {
			return nil, errors.Newf("line %d: duplicate resource %q", line, f[0])
		}
		m[f[0]] = bind
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
