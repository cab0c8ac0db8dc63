// Package sszerrors holds the error taxonomies shared by the codec,
// Merkleizer and proof engine, following the teacher's errIndexOutOfBounds
// pattern: a concrete struct carrying context, wrapping an exported sentinel
// via Unwrap so callers can errors.Is/errors.As against the sentinel while
// still getting a contextual message.
package sszerrors

import (
	"errors"
	"fmt"
)

// Serialization sentinels.
var (
	ErrMaximumEncodedLengthExceeded = errors.New("ssz: maximum encoded length exceeded")
	ErrInvalidInstance              = errors.New("ssz: invalid instance for type")
	ErrInvalidType                  = errors.New("ssz: invalid type")
	ErrInsufficientVariableLengths  = errors.New("ssz: insufficient variable length bound")
)

// Deserialization sentinels.
var (
	ErrExpectedFurtherInput = errors.New("ssz: expected further input")
	ErrAdditionalInput      = errors.New("ssz: additional input remaining")
	ErrInvalidByte          = errors.New("ssz: invalid byte")
	ErrOffsetNotIncreasing  = errors.New("ssz: offsets must be strictly increasing")
	ErrOffsetOutOfBounds    = errors.New("ssz: offset out of bounds")
)

// Merkleization / proof sentinels.
var (
	ErrInvalidBound            = errors.New("ssz: invalid bound")
	ErrInvalidPath             = errors.New("ssz: invalid generalized-index path")
	ErrInvalidPathElement      = errors.New("ssz: invalid path element for type")
	ErrInvalidProof            = errors.New("ssz: invalid proof")
	ErrInvalidDescriptor       = errors.New("ssz: invalid compact proof descriptor")
	ErrInvalidGeneralizedIndex = errors.New("ssz: invalid generalized index")
	ErrInvalidDepth            = errors.New("ssz: invalid tree depth")
	ErrInvalidIndex            = errors.New("ssz: index out of bounds for type")
	ErrNoChildren              = errors.New("ssz: type has no children to descend into")
)

// SerializeError reports a failure to encode a value, mirroring ssz-rs's
// SerializeError enum (MaximumEncodedLengthExceeded/InvalidInstance/
// InvalidType/InsufficientVariableLengths).
type SerializeError struct {
	sentinel error
	msg      string
}

func (e *SerializeError) Error() string { return e.msg }
func (e *SerializeError) Unwrap() error { return e.sentinel }

func NewMaximumEncodedLengthExceeded(size int) error {
	return &SerializeError{
		sentinel: ErrMaximumEncodedLengthExceeded,
		msg:      fmt.Sprintf("ssz: encoded length %d exceeds the 2^32 byte maximum", size),
	}
}

func NewInsufficientVariableLengths(provided, minBound int) error {
	return &SerializeError{
		sentinel: ErrInsufficientVariableLengths,
		msg:      fmt.Sprintf("ssz: %d variable-length values provided, need at least %d", provided, minBound),
	}
}

// DeserializeError reports a failure to decode a byte slice, mirroring
// ssz-rs's DeserializeError enum.
type DeserializeError struct {
	sentinel error
	msg      string
}

func (e *DeserializeError) Error() string { return e.msg }
func (e *DeserializeError) Unwrap() error { return e.sentinel }

func NewExpectedFurtherInput(provided, expected int) error {
	return &DeserializeError{
		sentinel: ErrExpectedFurtherInput,
		msg:      fmt.Sprintf("ssz: expected at least %d bytes, got %d", expected, provided),
	}
}

func NewAdditionalInput(provided, expected int) error {
	return &DeserializeError{
		sentinel: ErrAdditionalInput,
		msg:      fmt.Sprintf("ssz: expected exactly %d bytes, got %d", expected, provided),
	}
}

func NewInvalidByte(b byte) error {
	return &DeserializeError{
		sentinel: ErrInvalidByte,
		msg:      fmt.Sprintf("ssz: invalid byte 0x%02x", b),
	}
}

func NewOffsetNotIncreasing(prev, next uint32) error {
	return &DeserializeError{
		sentinel: ErrOffsetNotIncreasing,
		msg:      fmt.Sprintf("ssz: offset %d does not exceed preceding offset %d", next, prev),
	}
}

func NewOffsetOutOfBounds(offset uint32, length int) error {
	return &DeserializeError{
		sentinel: ErrOffsetOutOfBounds,
		msg:      fmt.Sprintf("ssz: offset %d exceeds input length %d", offset, length),
	}
}

// MerkleizationError reports a failure to compute a type's chunk layout or
// hash-tree-root, mirroring ssz-rs's MerkleizationError / TypeError::InvalidBound.
type MerkleizationError struct {
	sentinel error
	msg      string
}

func (e *MerkleizationError) Error() string { return e.msg }
func (e *MerkleizationError) Unwrap() error { return e.sentinel }

func NewInvalidBound(bound uint64) error {
	return &MerkleizationError{
		sentinel: ErrInvalidBound,
		msg:      fmt.Sprintf("ssz: invalid bound %d for bitvector/vector/list type", bound),
	}
}

// ProofError reports a failure in generalized-index computation or proof
// construction/verification.
type ProofError struct {
	sentinel error
	msg      string
}

func (e *ProofError) Error() string { return e.msg }
func (e *ProofError) Unwrap() error { return e.sentinel }

func NewInvalidPath(path string) error {
	return &ProofError{
		sentinel: ErrInvalidPath,
		msg:      fmt.Sprintf("ssz: invalid path %q for type", path),
	}
}

// NewInvalidPathElement reports a path element that cannot apply to the
// type it was matched against (e.g. a field name where an index was
// expected, or Length where neither a list nor a bitlist is current).
func NewInvalidPathElement(elem string) error {
	return &ProofError{
		sentinel: ErrInvalidPathElement,
		msg:      fmt.Sprintf("ssz: invalid path element %s for current type", elem),
	}
}

// NewInvalidIndex reports an Index(i) path element whose i falls outside
// the addressed vector/list's bound.
func NewInvalidIndex(index int, bound uint64) error {
	return &ProofError{
		sentinel: ErrInvalidIndex,
		msg:      fmt.Sprintf("ssz: index %d out of bounds (bound %d)", index, bound),
	}
}

// NewInvalidGeneralizedIndex reports a generalized index that does not
// correspond to any node reachable from the tree it was looked up in.
func NewInvalidGeneralizedIndex(index uint64) error {
	return &ProofError{
		sentinel: ErrInvalidGeneralizedIndex,
		msg:      fmt.Sprintf("ssz: invalid generalized index %d", index),
	}
}

// NewInvalidDepth reports a generalized index whose depth cannot be
// satisfied by the tree it is being resolved against.
func NewInvalidDepth(depth int) error {
	return &ProofError{
		sentinel: ErrInvalidDepth,
		msg:      fmt.Sprintf("ssz: invalid tree depth %d", depth),
	}
}

// NewNoChildren reports an attempt to descend a path into a type that has
// no fields or elements to descend into (a basic type or an empty container).
func NewNoChildren(typeName string) error {
	return &ProofError{
		sentinel: ErrNoChildren,
		msg:      fmt.Sprintf("ssz: type %s has no children to descend into", typeName),
	}
}

func NewInvalidProof(reason string) error {
	return &ProofError{
		sentinel: ErrInvalidProof,
		msg:      fmt.Sprintf("ssz: invalid proof: %s", reason),
	}
}

func NewInvalidDescriptor(reason string) error {
	return &ProofError{
		sentinel: ErrInvalidDescriptor,
		msg:      fmt.Sprintf("ssz: invalid compact proof descriptor: %s", reason),
	}
}
