// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"log"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/hlsl"
)

// MinShaderModel is the lowest shader model DXC compiles.
var MinShaderModel = hlsl.ShaderModel6_0

// Compiler wraps a lazily loaded native compiler.
//
// The library is loaded by the first call that needs it. Loading happens
// once; a failed load is reported once and every later call fails fast
// with ErrUnavailable. A Compiler is safe for concurrent use; every call
// is an independent session.
type Compiler struct {
	opts Options

	once     sync.Once
	lib      Library
	version  Version
	maxModel hlsl.ShaderModel
	loadErr  error
}

// New creates a compiler. Nothing is loaded until first use.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Target returns the IR the compiler produces.
func (c *Compiler) Target() Target {
	return c.opts.Target
}

func (c *Compiler) logger() *log.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return log.Default()
}

// library returns the loaded library, loading it on first use.
func (c *Compiler) library() (Library, error) {
	c.once.Do(c.load)
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.lib, nil
}

func (c *Compiler) load() {
	name := c.opts.libraryName()
	if c.opts.Open == nil {
		c.loadErr = newError(ErrUnavailable, nil, "no loader configured for %s", name)
		c.logger().Printf("dxc: %s is not available: no loader configured", name)
		return
	}
	lib, err := c.opts.Open(name)
	if err == nil && lib == nil {
		err = errors.New("loader returned no library")
	}
	if err != nil {
		c.loadErr = newError(ErrUnavailable, err, "failed to load %s", name)
		c.logger().Printf("dxc: failed to load %s: %v", name, err)
		return
	}
	c.lib = lib
	c.maxModel = MinShaderModel
	if v, err := lib.Version(); err != nil {
		c.logger().Printf("dxc: loaded %s, version unknown: %v", name, err)
	} else {
		c.version = v
		c.maxModel = MaxShaderModelFor(v)
		c.logger().Printf("dxc: loaded %s, version %s", name, v)
	}
}

// IsLoaded loads the library if needed and reports whether it is available.
func (c *Compiler) IsLoaded() bool {
	_, err := c.library()
	return err == nil
}

// Version returns the version of the loaded compiler.
func (c *Compiler) Version() (Version, error) {
	if _, err := c.library(); err != nil {
		return Version{}, err
	}
	return c.version, nil
}

// MaxShaderModel returns the highest shader model the compiler supports,
// or MinShaderModel when it is unavailable or too old to tell.
func (c *Compiler) MaxShaderModel() hlsl.ShaderModel {
	if _, err := c.library(); err != nil {
		return MinShaderModel
	}
	return c.maxModel
}

// MaxShaderModelFor maps a compiler version to the highest shader model it
// compiles. Versions newer than the last known one are assumed to support
// one model more.
func MaxShaderModelFor(v Version) hlsl.ShaderModel {
	switch {
	case v.Major == 1 && (v.Minor == 2 || v.Minor == 3):
		return hlsl.ShaderModel6_1
	case v.Major == 1 && v.Minor == 4:
		return hlsl.ShaderModel6_4
	case v.Major == 1 && v.Minor == 5:
		return hlsl.ShaderModel6_5
	case v.Major == 1 && v.Minor == 6:
		return hlsl.ShaderModel6_6
	case v.Major == 1 && v.Minor == 7:
		return hlsl.ShaderModel6_7
	case v.AtLeast(1, 8):
		return hlsl.ShaderModel6_8
	default:
		return hlsl.ShaderModel6_0
	}
}

// resolveShaderModel clamps a requested model to what the compiler supports.
func (c *Compiler) resolveShaderModel(requested hlsl.ShaderModel) hlsl.ShaderModel {
	ceiling := c.maxModel
	resolved := requested.Clamp(MinShaderModel, ceiling)
	switch {
	case requested.IsZero():
	case requested.Less(MinShaderModel):
		c.logger().Printf("dxc: only shader model %s and newer is supported; upgrading %s to %s",
			MinShaderModel.ProfileSuffix(), requested.ProfileSuffix(), resolved.ProfileSuffix())
	case ceiling.Less(requested):
		c.logger().Printf("dxc: the maximum supported shader model is %s; downgrading %s",
			ceiling.ProfileSuffix(), requested.ProfileSuffix())
	}
	return resolved
}
