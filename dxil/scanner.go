// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"strconv"
	"strings"
)

// scanner is a cursor over editable disassembly text.
//
// The expect* primitives either consume the expected token or return an
// error matching ErrNoMatch and leave the cursor where it was. Edits made
// through replace and insert keep the cursor pointing at the same text.
type scanner struct {
	text string
	pos  int
}

// span is a half-open byte range of the text holding a number.
type span struct {
	start, end int
	value      int64
}

func newScanner(text string) *scanner {
	return &scanner{text: text}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.text)
}

// peek returns the byte under the cursor, or 0 at the end of the text.
func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) hasPrefix(lit string) bool {
	return strings.HasPrefix(s.text[s.pos:], lit)
}

// acceptLiteral consumes lit if the text at the cursor starts with it.
func (s *scanner) acceptLiteral(lit string) bool {
	if !s.hasPrefix(lit) {
		return false
	}
	s.pos += len(lit)
	return true
}

// expectLiteral consumes lit or fails.
func (s *scanner) expectLiteral(lit string) error {
	if !s.acceptLiteral(lit) {
		return &mismatchError{pos: s.pos, want: strconv.Quote(lit)}
	}
	return nil
}

// expectOneOf consumes the first literal the text starts with and returns
// its index.
func (s *scanner) expectOneOf(lits ...string) (int, error) {
	for i, lit := range lits {
		if s.acceptLiteral(lit) {
			return i, nil
		}
	}
	return -1, &mismatchError{pos: s.pos, want: "one of " + strings.Join(lits, ", ")}
}

// expectInteger consumes a run of "+-0123456789" and parses it as a
// signed decimal integer.
func (s *scanner) expectInteger() (span, error) {
	start := s.pos
	end := start
	for end < len(s.text) && isNumberSymbol(s.text[end]) {
		end++
	}
	if end == start {
		return span{}, &mismatchError{pos: start, want: "integer"}
	}
	v, err := strconv.ParseInt(s.text[start:end], 10, 64)
	if err != nil {
		return span{}, &mismatchError{pos: start, want: "integer"}
	}
	s.pos = end
	return span{start: start, end: end, value: v}, nil
}

// expectUnsigned consumes a run of decimal digits.
func (s *scanner) expectUnsigned() (span, error) {
	start := s.pos
	end := start
	for end < len(s.text) && isDigit(s.text[end]) {
		end++
	}
	if end == start {
		return span{}, &mismatchError{pos: start, want: "unsigned integer"}
	}
	v, err := strconv.ParseUint(s.text[start:end], 10, 32)
	if err != nil {
		return span{}, &mismatchError{pos: start, want: "unsigned integer"}
	}
	s.pos = end
	return span{start: start, end: end, value: int64(v)}, nil
}

// expectTypedInteger consumes "<typ> <integer>", e.g. "i32 -1".
func (s *scanner) expectTypedInteger(typ string) (span, error) {
	save := s.pos
	if err := s.expectLiteral(typ + " "); err != nil {
		return span{}, err
	}
	n, err := s.expectInteger()
	if err != nil {
		s.pos = save
		return span{}, err
	}
	return n, nil
}

// expectField consumes ", <typ> <integer>", the shape of every integer
// field of a metadata record.
func (s *scanner) expectField(typ string) (span, error) {
	save := s.pos
	if err := s.expectLiteral(", "); err != nil {
		return span{}, err
	}
	n, err := s.expectTypedInteger(typ)
	if err != nil {
		s.pos = save
		return span{}, err
	}
	return n, nil
}

// skipWhile advances past bytes matching pred, stopping at limit.
func (s *scanner) skipWhile(limit int, pred func(byte) bool) {
	for s.pos < limit && s.pos < len(s.text) && pred(s.text[s.pos]) {
		s.pos++
	}
}

// seek moves the cursor to the next occurrence of lit at or after the
// cursor. It reports false and leaves the cursor alone if there is none.
func (s *scanner) seek(lit string) bool {
	i := strings.Index(s.text[s.pos:], lit)
	if i < 0 {
		return false
	}
	s.pos += i
	return true
}

// lastIndex returns the offset of the last occurrence of lit that starts
// before limit, or -1.
func (s *scanner) lastIndex(lit string, limit int) int {
	if limit > len(s.text) {
		limit = len(s.text)
	}
	return strings.LastIndex(s.text[:limit], lit)
}

// nextArgument advances to the comma ending the current call argument.
// It reports false when the argument list, the line or the text ends first.
func (s *scanner) nextArgument() bool {
	for ; s.pos < len(s.text); s.pos++ {
		switch s.text[s.pos] {
		case ',':
			return true
		case ')', '\n':
			return false
		}
	}
	return false
}

// replace substitutes text[start:end] with repl and returns the change in
// length. A cursor at or after end moves with the text.
func (s *scanner) replace(start, end int, repl string) int {
	s.text = s.text[:start] + repl + s.text[end:]
	delta := len(repl) - (end - start)
	if s.pos >= end {
		s.pos += delta
	} else if s.pos > start {
		s.pos = start + len(repl)
	}
	return delta
}

// insert places str at offset at. A cursor at or after at moves with the text.
func (s *scanner) insert(at int, str string) {
	s.text = s.text[:at] + str + s.text[at:]
	if s.pos >= at {
		s.pos += len(str)
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNumberSymbol(c byte) bool {
	return isDigit(c) || c == '+' || c == '-'
}

func isWordSymbol(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

// formatField renders a 32-bit field value the way the disassembler does:
// values with the top bit set are printed as negative numbers.
func formatField(v uint32) string {
	return strconv.FormatInt(int64(int32(v)), 10)
}
