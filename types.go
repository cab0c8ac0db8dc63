package ssz

import "fmt"

type TypeName string

const (
	TypeUint8   TypeName = "uint8"
	TypeUint16  TypeName = "uint16"
	TypeUint32  TypeName = "uint32"
	TypeUint64  TypeName = "uint64"
	TypeUint128 TypeName = "uint128"
	TypeUint256 TypeName = "uint256"

	TypeBoolean TypeName = "boolean"

	TypeContainer TypeName = "container"

	TypeVector TypeName = "vector"
	TypeList   TypeName = "list"

	TypeBitVector TypeName = "bitvector"
	TypeBitList   TypeName = "bitlist"

	TypeUnion TypeName = "union"

	// This is a special type that is not an ssz type, but rather a ref to another type in the schema
	TypeRef TypeName = "ref"
)

// IsAlwaysFixed reports whether every value of this type has the same
// encoded length regardless of its contents (§4.1's size_hint is nonzero
// for these). Basic types, bitvectors and vectors/bitvectors of fixed-size
// element types fall here; containers and unions depend on their children.
func (t TypeName) IsAlwaysFixed() bool {
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean, TypeBitVector:
		return true
	default:
		return false
	}
}

// IsAlwaysVariable reports whether every value of this type is variable-size
// regardless of its children (§4.1: lists and bitlists are unconditionally
// variable since their element count is part of the encoding; unions carry
// a selector plus a variable-size-capable body).
func (t TypeName) IsAlwaysVariable() bool {
	switch t {
	case TypeList, TypeBitList, TypeUnion:
		return true
	default:
		return false
	}
}

// IsSometimesVariable reports whether this type's variability depends on its
// children: vectors are fixed-size iff their element type is, and containers
// are fixed-size iff every field is.
func (t TypeName) IsSometimesVariable() bool {
	switch t {
	case TypeVector, TypeContainer:
		return true
	default:
		return false
	}
}

type Field struct {
	Name string   `json:"name"`
	Type TypeName `json:"type"`

	Size  uint64 `json:"size,omitempty"`
	Limit uint64 `json:"limit,omitempty"`

	Ref      string  `json:"ref,omitempty"`
	Children []Field `json:"children,omitempty"`
}

// IsVariable determines if a field is variable-size
func (f *Field) IsVariable(refs map[string]Field) (bool, error) {
	const maxIterations = 1000 // Sanity check to prevent infinite recursion
	return isVariable(f, refs, 0, maxIterations)
}

// isVariable is the internal implementation with iteration tracking
func isVariable(f *Field, refs map[string]Field, iterations, maxIterations int) (bool, error) {
	if iterations >= maxIterations {
		return false, fmt.Errorf("max iterations reached while checking IsVariable - possible circular reference")
	}

	switch f.Type {
	case TypeList, TypeBitList, TypeUnion:
		return true, nil
	case TypeContainer, TypeVector, TypeBitVector:
		for _, child := range f.Children {
			isVar, err := isVariable(&child, refs, iterations+1, maxIterations)
			if err != nil {
				return false, err
			}
			if isVar {
				return true, nil
			}
		}
	case TypeRef:
		if f.Ref == "" {
			return false, fmt.Errorf("field has type 'ref' but no ref specified")
		}
		refField, ok := refs[f.Ref]
		if !ok {
			return false, fmt.Errorf("ref type '%s' not found", f.Ref)
		}
		return isVariable(&refField, refs, iterations+1, maxIterations)
	}
	return false, nil
}

// basicWidth returns the byte width of a basic TypeName, or 0 if t is not basic.
func basicWidth(t TypeName) uint64 {
	switch t {
	case TypeUint8, TypeBoolean:
		return 1
	case TypeUint16:
		return 2
	case TypeUint32:
		return 4
	case TypeUint64:
		return 8
	case TypeUint128:
		return 16
	case TypeUint256:
		return 32
	default:
		return 0
	}
}

// ItemLength is the per-spec §4.1 item_length: bytes consumed per element in
// a packed layout, 1..32 for basic types and 32 (one chunk) for composites.
func (f *Field) ItemLength(refs map[string]Field) (uint64, error) {
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean:
		return basicWidth(f.Type), nil
	case TypeRef:
		refField, ok := refs[f.Ref]
		if !ok {
			return 0, fmt.Errorf("ref type '%s' not found", f.Ref)
		}
		return refField.ItemLength(refs)
	default:
		return 32, nil
	}
}

// SizeHint is the per-spec §4.1 size_hint: the encoded byte length when the
// field is fixed-size, else 0.
func (f *Field) SizeHint(refs map[string]Field) (uint64, error) {
	isVar, err := f.IsVariable(refs)
	if err != nil {
		return 0, err
	}
	if isVar {
		return 0, nil
	}
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean:
		return basicWidth(f.Type), nil
	case TypeBitVector:
		return (f.Size + 7) / 8, nil
	case TypeVector:
		var elemSize uint64
		if len(f.Children) > 0 {
			sz, err := f.Children[0].SizeHint(refs)
			if err != nil {
				return 0, err
			}
			elemSize = sz
		} else {
			elemSize = 32
		}
		return f.Size * elemSize, nil
	case TypeContainer:
		var total uint64
		for _, child := range f.Children {
			sz, err := child.SizeHint(refs)
			if err != nil {
				return 0, err
			}
			total += sz
		}
		return total, nil
	case TypeRef:
		refField, ok := refs[f.Ref]
		if !ok {
			return 0, fmt.Errorf("ref type '%s' not found", f.Ref)
		}
		return refField.SizeHint(refs)
	default:
		return 0, nil
	}
}

// ChunkCount is the per-spec §4.1 chunk_count: the number of Merkle leaves
// this field contributes before padding to a power of two.
func (f *Field) ChunkCount(refs map[string]Field) (uint64, error) {
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean:
		return 1, nil
	case TypeBitVector:
		return (f.Size + 255) / 256, nil
	case TypeBitList:
		return (f.Limit + 255) / 256, nil
	case TypeVector, TypeList:
		bound := f.Size
		if f.Type == TypeList {
			bound = f.Limit
		}
		if len(f.Children) == 0 {
			return bound, nil
		}
		elem := f.Children[0]
		if elem.Type == TypeRef {
			refField, ok := refs[elem.Ref]
			if !ok {
				return 0, fmt.Errorf("ref type '%s' not found", elem.Ref)
			}
			elem = refField
		}
		switch elem.Type {
		case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean:
			itemLen, err := elem.ItemLength(refs)
			if err != nil {
				return 0, err
			}
			return (bound*itemLen + 31) / 32, nil
		default:
			return bound, nil
		}
	case TypeContainer, TypeUnion:
		return uint64(len(f.Children)), nil
	case TypeRef:
		refField, ok := refs[f.Ref]
		if !ok {
			return 0, fmt.Errorf("ref type '%s' not found", f.Ref)
		}
		return refField.ChunkCount(refs)
	default:
		return 0, fmt.Errorf("field '%s' has unknown type '%s'", f.Name, f.Type)
	}
}

// IsValid validates the field and all its subfields
func (f *Field) IsValid(refs map[string]Field) error {
	const maxIterations = 1000 // Sanity check to prevent infinite recursion
	return isValid(f, refs, 0, maxIterations)
}

// isValid is the internal implementation with iteration tracking
func isValid(f *Field, refs map[string]Field, iterations, maxIterations int) error {
	if iterations >= maxIterations {
		return fmt.Errorf("max iterations reached while validating field '%s' - possible circular reference", f.Name)
	}

	// Validate field name
	if f.Name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	// Validate based on type
	switch f.Type {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean:
		// Basic types are always valid
		return nil


	case TypeVector, TypeBitVector:
		// Fixed-size types must have Size specified
		if f.Size == 0 {
			return fmt.Errorf("field '%s' of type '%s' must have non-zero size", f.Name, f.Type)
		}
		// Validate children for container vectors
		if f.Type == TypeVector && len(f.Children) > 0 {
			for i, child := range f.Children {
				if err := isValid(&child, refs, iterations+1, maxIterations); err != nil {
					return fmt.Errorf("field '%s' child[%d]: %w", f.Name, i, err)
				}
			}
		}
		return nil

	case TypeList, TypeBitList:
		// Variable-size types must have Limit specified
		if f.Limit == 0 {
			return fmt.Errorf("field '%s' of type '%s' must have non-zero limit", f.Name, f.Type)
		}
		// Validate children for container lists
		if f.Type == TypeList && len(f.Children) > 0 {
			for i, child := range f.Children {
				if err := isValid(&child, refs, iterations+1, maxIterations); err != nil {
					return fmt.Errorf("field '%s' child[%d]: %w", f.Name, i, err)
				}
			}
		}
		return nil

	case TypeContainer:
		// Containers must have children
		if len(f.Children) == 0 {
			return fmt.Errorf("field '%s' of type 'container' must have children", f.Name)
		}
		// Validate all children
		for i, child := range f.Children {
			if err := isValid(&child, refs, iterations+1, maxIterations); err != nil {
				return fmt.Errorf("field '%s' child[%d]: %w", f.Name, i, err)
			}
		}
		return nil

	case TypeUnion:
		// Unions must have children
		if len(f.Children) == 0 {
			return fmt.Errorf("field '%s' of type 'union' must have children", f.Name)
		}
		// Validate all children
		for i, child := range f.Children {
			if err := isValid(&child, refs, iterations+1, maxIterations); err != nil {
				return fmt.Errorf("field '%s' child[%d]: %w", f.Name, i, err)
			}
		}
		return nil

	case TypeRef:
		// Refs must have a reference
		if f.Ref == "" {
			return fmt.Errorf("field '%s' has type 'ref' but no ref specified", f.Name)
		}
		// Check if ref exists
		refField, ok := refs[f.Ref]
		if !ok {
			return fmt.Errorf("field '%s' references type '%s' which is not found", f.Name, f.Ref)
		}
		// Validate the referenced field
		return isValid(&refField, refs, iterations+1, maxIterations)

	default:
		return fmt.Errorf("field '%s' has unknown type '%s'", f.Name, f.Type)
	}
}
