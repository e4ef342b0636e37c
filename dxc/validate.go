// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxc

import (
	"github.com/cockroachdb/errors"
)

// ValidateAndSign runs the validator over DXIL bytecode and returns the
// signed binary. On failure the error carries the validator log.
// SPIR-V has no signing step and is returned unchanged.
func (c *Compiler) ValidateAndSign(bytecode []byte) ([]byte, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	if len(bytecode) == 0 {
		return nil, errors.AssertionFailedf("bytecode must not be empty")
	}
	if c.opts.Target != TargetDirect3D12 {
		return bytecode, nil
	}
	return c.validateAndSign(lib, bytecode)
}

func (c *Compiler) validateAndSign(lib Library, bytecode []byte) ([]byte, error) {
	// The validator may sign in place, so it works on a private copy.
	compiled := append([]byte(nil), bytecode...)
	res, err := lib.Validate(compiled)
	if err != nil {
		return nil, newError(ErrValidationFailed, err, "failed to run the validator")
	}
	if res.Failed {
		return nil, newLogError(ErrValidationFailed, res.Log, "validation failed")
	}
	if res.Log != "" {
		c.logger().Printf("dxc: validator: %s", res.Log)
	}
	if res.Output != nil {
		return res.Output, nil
	}
	return compiled, nil
}
