package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DescriptorBytes is the width of one encoded descriptor component
const DescriptorBytes = 8

// Descriptor is a fixed-length face feature vector produced by the extractor
type Descriptor []float64

// Dim returns the descriptor dimensionality
func (d Descriptor) Dim() int {
	return len(d)
}

// Clone returns a copy that does not share the backing array
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// Float32 converts the descriptor for libraries working in single precision
func (d Descriptor) Float32() []float32 {
	out := make([]float32, len(d))
	for i, v := range d {
		out[i] = float32(v)
	}
	return out
}

// DescriptorFromFloat32 widens a single precision vector
func DescriptorFromFloat32(v []float32) Descriptor {
	out := make(Descriptor, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Encode serializes the descriptor as consecutive little-endian IEEE-754 float64 values.
// The layout matches a numpy float64 array's tobytes() on little-endian hosts.
func (d Descriptor) Encode() []byte {
	buf := make([]byte, len(d)*DescriptorBytes)
	for i, v := range d {
		binary.LittleEndian.PutUint64(buf[i*DescriptorBytes:], math.Float64bits(v))
	}
	return buf
}

// DecodeDescriptor is the inverse of Descriptor.Encode
func DecodeDescriptor(raw []byte) (Descriptor, error) {
	if len(raw) == 0 || len(raw)%DescriptorBytes != 0 {
		return nil, ErrInvalidDescriptor.WithError(
			fmt.Errorf("blob length %d is not a positive multiple of %d", len(raw), DescriptorBytes))
	}

	d := make(Descriptor, len(raw)/DescriptorBytes)
	for i := range d {
		d[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*DescriptorBytes:]))
	}
	return d, nil
}
