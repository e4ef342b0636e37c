// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// FourCC is a four-character code identifying a container or a part.
type FourCC [4]byte

func (f FourCC) String() string {
	return string(f[:])
}

// Well-known four-character codes.
var (
	FourCCContainer     = FourCC{'D', 'X', 'B', 'C'}
	FourCCDXIL          = FourCC{'D', 'X', 'I', 'L'}
	FourCCDebugInfo     = FourCC{'I', 'L', 'D', 'B'}
	FourCCDebugName     = FourCC{'I', 'L', 'D', 'N'}
	FourCCFeatureInfo   = FourCC{'S', 'F', 'I', '0'}
	FourCCInputSig      = FourCC{'I', 'S', 'G', '1'}
	FourCCOutputSig     = FourCC{'O', 'S', 'G', '1'}
	FourCCPatchConstSig = FourCC{'P', 'S', 'G', '1'}
	FourCCRuntimeData   = FourCC{'R', 'D', 'A', 'T'}
	FourCCRootSignature = FourCC{'R', 'T', 'S', '0'}
	FourCCPipelineState = FourCC{'P', 'S', 'V', '0'}
	FourCCShaderHash    = FourCC{'H', 'A', 'S', 'H'}
	FourCCShaderStats   = FourCC{'S', 'T', 'A', 'T'}
)

// ContainerVersionMajor is the only container major version understood.
const ContainerVersionMajor = 1

const (
	containerHeaderSize = 32 // FourCC, digest[16], major, minor, size, part count
	partHeaderSize      = 8  // FourCC, size
)

// Part is one part of a container.
type Part struct {
	FourCC FourCC
	Data   []byte
}

// Container is a parsed DXIL container. Part data aliases the parsed buffer.
type Container struct {
	Digest [16]byte
	Major  uint16
	Minor  uint16
	Parts  []Part
}

// Part returns the data of the first part with the given code.
func (c *Container) Part(fcc FourCC) ([]byte, bool) {
	for _, p := range c.Parts {
		if p.FourCC == fcc {
			return p.Data, true
		}
	}
	return nil, false
}

type containerHeader struct {
	fourCC    FourCC
	digest    [16]byte
	major     uint16
	minor     uint16
	size      uint32
	partCount uint32
}

func readHeader(b []byte) (containerHeader, bool) {
	if len(b) < containerHeaderSize {
		return containerHeader{}, false
	}
	var h containerHeader
	copy(h.fourCC[:], b[0:4])
	copy(h.digest[:], b[4:20])
	h.major = binary.LittleEndian.Uint16(b[20:])
	h.minor = binary.LittleEndian.Uint16(b[22:])
	h.size = binary.LittleEndian.Uint32(b[24:])
	h.partCount = binary.LittleEndian.Uint32(b[28:])
	return h, true
}

// partOffsets returns the part offset table, or false if it does not fit.
func partOffsets(b []byte, count uint32) ([]uint32, bool) {
	end := uint64(containerHeaderSize) + 4*uint64(count)
	if end > uint64(len(b)) {
		return nil, false
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(b[containerHeaderSize+4*i:])
	}
	return offsets, true
}

// IsDXILBytecode reports whether b is a DXIL container holding a DXIL
// program part. Malformed input is reported as false.
func IsDXILBytecode(b []byte) bool {
	h, ok := readHeader(b)
	if !ok || h.fourCC != FourCCContainer || h.major != ContainerVersionMajor {
		return false
	}
	offsets, ok := partOffsets(b, h.partCount)
	if !ok {
		return false
	}
	for _, off := range offsets {
		if uint64(off)+partHeaderSize > uint64(len(b)) {
			return false
		}
		if FourCC(b[off:off+4]) == FourCCDXIL {
			return true
		}
	}
	return false
}

// ParseContainer parses the header and part table of a DXIL container.
func ParseContainer(b []byte) (*Container, error) {
	h, ok := readHeader(b)
	if !ok {
		return nil, errors.Newf("container is too short: %d bytes", len(b))
	}
	if h.fourCC != FourCCContainer {
		return nil, errors.Newf("invalid container magic %q", h.fourCC.String())
	}
	if h.major != ContainerVersionMajor {
		return nil, errors.Newf("unsupported container version %d.%d", h.major, h.minor)
	}
	offsets, ok := partOffsets(b, h.partCount)
	if !ok {
		return nil, errors.Newf("part table of %d entries does not fit in %d bytes", h.partCount, len(b))
	}
	c := &Container{Digest: h.digest, Major: h.major, Minor: h.minor, Parts: make([]Part, 0, len(offsets))}
	for i, off := range offsets {
		if uint64(off)+partHeaderSize > uint64(len(b)) {
			return nil, errors.Newf("part %d header at offset %d is out of bounds", i, off)
		}
		size := binary.LittleEndian.Uint32(b[off+4:])
		start := uint64(off) + partHeaderSize
		if start+uint64(size) > uint64(len(b)) {
			return nil, errors.Newf("part %d data of %d bytes is out of bounds", i, size)
		}
		c.Parts = append(c.Parts, Part{
			FourCC: FourCC(b[off : off+4]),
			Data:   b[start : start+uint64(size)],
		})
	}
	return c, nil
}

// BuildContainer serializes parts into a version 1.0 container with a
// zero digest. Signing fills in the digest.
func BuildContainer(parts ...Part) []byte {
	size := containerHeaderSize + 4*len(parts)
	for _, p := range parts {
		size += partHeaderSize + len(p.Data)
	}
	b := make([]byte, 0, size)
	b = append(b, FourCCContainer[:]...)
	b = append(b, make([]byte, 16)...)
	b = binary.LittleEndian.AppendUint16(b, ContainerVersionMajor)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint32(b, uint32(size))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(parts)))

	off := containerHeaderSize + 4*len(parts)
	for _, p := range parts {
		b = binary.LittleEndian.AppendUint32(b, uint32(off))
		off += partHeaderSize + len(p.Data)
	}
	for _, p := range parts {
		b = append(b, p.FourCC[:]...)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(p.Data)))
		b = append(b, p.Data...)
	}
	return b
}
