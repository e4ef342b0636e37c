// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "strings"

// Macro is a preprocessor definition prepended to shader source.
type Macro struct {
	Name       string
	Definition string
}

// BuildSource assembles the text handed to the compiler: extra
// definitions first, then one #define per macro, then the shader source.
func BuildSource(source string, macros []Macro, extraDefinitions string) string {
	var sb strings.Builder
	sb.Grow(len(extraDefinitions) + len(source) + 32*len(macros))

	if extraDefinitions != "" {
		sb.WriteString(extraDefinitions)
		if !strings.HasSuffix(extraDefinitions, "\n") {
			sb.WriteByte('\n')
		}
	}
	for _, m := range macros {
		sb.WriteString("#define ")
		sb.WriteString(m.Name)
		if m.Definition != "" {
			sb.WriteByte(' ')
			sb.WriteString(m.Definition)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(source)
	return sb.String()
}
