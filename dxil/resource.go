// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dxil

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/dxcbind/hlsl"
)

// NoRecordID marks a resource whose declaration record has not been found yet.
const NoRecordID = math.MaxUint32

// ResourceInfo is what the remapper learns about one resource of the
// binding map: the binding the compiler chose (from reflection) and the
// declaration record that holds it (from the text scan).
type ResourceInfo struct {
	SourceBindPoint uint32
	SourceSpace     uint32
	RecordID        uint32
	Class           hlsl.RegisterType
}

// NewResourceInfo returns the information reflection provides about a
// resource. The record identifier is filled in while patching.
func NewResourceInfo(class hlsl.RegisterType, space, bindPoint uint32) *ResourceInfo {
	return &ResourceInfo{
		SourceBindPoint: bindPoint,
		SourceSpace:     space,
		RecordID:        NoRecordID,
		Class:           class,
	}
}

// bindRecord ties the resource to a declaration record. Once set, the
// record identifier never changes.
func (ri *ResourceInfo) bindRecord(name string, id uint32) error {
	if ri.RecordID != NoRecordID && ri.RecordID != id {
		return patchError(name, "record ID", nil,
			"resource is already tied to record %d, found conflicting record %d", ri.RecordID, id)
	}
	ri.RecordID = id
	return nil
}

// contains reports whether index falls into the source register range
// of an arraySize-element resource.
func (ri *ResourceInfo) contains(index, arraySize uint32) bool {
	return index >= ri.SourceBindPoint && uint64(index) < uint64(ri.SourceBindPoint)+uint64(arraySize)
}

// classForHandle maps the resource class operand of dx.op.createHandle
// (SRV=0, UAV=1, CBV=2, Sampler=3) to a register type.
func classForHandle(class int64) (hlsl.RegisterType, error) {
	switch class {
	case 0:
		return hlsl.RegisterTypeT, nil
	case 1:
		return hlsl.RegisterTypeU, nil
	case 2:
		return hlsl.RegisterTypeB, nil
	case 3:
		return hlsl.RegisterTypeS, nil
	default:
		return hlsl.RegisterTypeB, errors.Newf("unknown resource class %d", class)
	}
}
