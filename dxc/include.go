// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// StreamFactory opens shader source and include files by name.
type StreamFactory interface {
	Open(name string) (io.ReadCloser, error)
}

// StreamFactoryFunc adapts a function to a StreamFactory.
type StreamFactoryFunc func(name string) (io.ReadCloser, error)

// Open calls f.
func (f StreamFactoryFunc) Open(name string) (io.ReadCloser, error) {
	return f(name)
}

// FSStreamFactory returns a StreamFactory reading from fsys.
func FSStreamFactory(fsys fs.FS) StreamFactory {
	return StreamFactoryFunc(func(name string) (io.ReadCloser, error) {
		return fsys.Open(path.Clean(strings.ReplaceAll(name, "\\", "/")))
	})
}

// includeHandler resolves includes for one compilation. Every file is
// loaded at most once.
type includeHandler struct {
	factory StreamFactory

	mu     sync.Mutex
	loaded map[string][]byte

	// failed lists resolution failures in request order.
	failed []includeFailure
}

type includeFailure struct {
	name string
	err  error
}

func newIncludeHandler(factory StreamFactory) *includeHandler {
	return &includeHandler{factory: factory, loaded: make(map[string][]byte)}
}

// normalizeIncludeName strips the "./" or ".\" the compiler prepends to
// relative include names. Names must be encodable in a single-byte
// (Latin-1) code page.
func normalizeIncludeName(name string) (string, error) {
	if name == "" {
		return "", ErrIncludeNameEncoding
	}
	// Invalid UTF-8 decodes to U+FFFD and is rejected too.
	for _, r := range name {
		if r > 0xff {
			return "", errors.Wrapf(ErrIncludeNameEncoding, "%q", name)
		}
	}
	if strings.HasPrefix(name, "./") || strings.HasPrefix(name, ".\\") {
		name = name[2:]
	}
	if name == "" {
		return "", ErrIncludeNameEncoding
	}
	return name, nil
}

// LoadSource implements IncludeHandler.
func (h *includeHandler) LoadSource(name string) ([]byte, error) {
	data, err := h.load(name)
	if err != nil {
		h.mu.Lock()
		h.failed = append(h.failed, includeFailure{name: name, err: err})
		h.mu.Unlock()
	}
	return data, err
}

// failure returns the resolution failure a failed compilation reported.
// Backends may probe several candidate paths for one directive, so only
// a failure whose name the log mentions counts. With no log the first
// failure is returned.
func (h *includeHandler) failure(log string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.failed) == 0 {
		return nil
	}
	if log == "" {
		return h.failed[0].err
	}
	for _, f := range h.failed {
		name := strings.TrimPrefix(strings.TrimPrefix(f.name, "./"), ".\\")
		if strings.Contains(log, name) {
			return f.err
		}
	}
	return nil
}

func (h *includeHandler) load(name string) ([]byte, error) {
	name, err := normalizeIncludeName(name)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	data, ok := h.loaded[name]
	h.mu.Unlock()
	if ok {
		return data, nil
	}

	r, err := h.factory.Open(name)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, ErrIncludeNotFound), "failed to open include file '%s'", name)
	}
	defer r.Close()
	data, err = io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read include file '%s'", name)
	}

	h.mu.Lock()
	h.loaded[name] = data
	h.mu.Unlock()
	return data, nil
}
