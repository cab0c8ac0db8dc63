package proof

import (
	"fmt"

	"github.com/gfx-labs/ssz"
	"github.com/gfx-labs/ssz/flexssz"
	"github.com/gfx-labs/ssz/sszerrors"
)

// PathElement is one step of a symbolic path into a value's Merkle tree:
// a container field name, a vector/list element index, or Length (valid
// only immediately after a list or bitlist).
type PathElement struct {
	Field  string
	Index  int
	Length bool
}

// Field builds a PathElement selecting a container field by name.
func Field(name string) PathElement { return PathElement{Field: name} }

// Index builds a PathElement selecting the i-th element of a vector or list.
func Index(i int) PathElement { return PathElement{Index: i, Field: indexMarker} }

// LengthOf builds the PathElement selecting a list or bitlist's length node.
func LengthOf() PathElement { return PathElement{Length: true} }

// indexMarker distinguishes a zero-value Index(0) from a zero-value Field("")
// without adding a discriminant field that every caller would have to set.
const indexMarker = "\x00index"

func (p PathElement) isIndex() bool { return !p.Length && p.Field == indexMarker }

// Path is an ordered sequence of PathElements, e.g. Field("a"), Index(3).
type Path []PathElement

// GeneralizedIndexForPath walks typeInfo per spec §4.4 and returns the
// generalized index of the node addressed by path.
func GeneralizedIndexForPath(typeInfo *flexssz.TypeInfo, path Path) (GeneralizedIndex, error) {
	root := GeneralizedIndex(1)
	cur := typeInfo

	for _, elem := range path {
		if isBasicType(cur) {
			return 0, sszerrors.NewNoChildren(string(cur.Type))
		}

		if elem.Length {
			if cur.Type != ssz.TypeList && cur.Type != ssz.TypeBitList {
				return 0, sszerrors.NewInvalidPathElement("Length is only valid on a list or bitlist")
			}
			root = root.Child(true)
			cur = &flexssz.TypeInfo{Type: ssz.TypeUint64}
			continue
		}

		switch cur.Type {
		case ssz.TypeContainer:
			if elem.isIndex() || elem.Field == "" {
				return 0, sszerrors.NewInvalidPathElement("container access requires a field name")
			}
			pos := -1
			for i, f := range cur.Fields {
				if f.Name == elem.Field {
					pos = i
					break
				}
			}
			if pos < 0 {
				return 0, sszerrors.NewInvalidPath(fmt.Sprintf("no such field %q", elem.Field))
			}
			k := uint64(len(cur.Fields))
			root = GeneralizedIndex(uint64(root)*NextPow2(k) + uint64(pos))
			cur = cur.Fields[pos].Type

		case ssz.TypeVector, ssz.TypeList:
			if !elem.isIndex() {
				return 0, sszerrors.NewInvalidPathElement("field access on a vector/list requires an index")
			}
			bound := uint64(cur.Length)
			if elem.Index < 0 || uint64(elem.Index) >= bound {
				return 0, sszerrors.NewInvalidIndex(elem.Index, bound)
			}
			elemType := cur.ElementType
			if cur.Type == ssz.TypeList {
				root = root.Child(false)
			}
			basic := isBasicType(elemType)
			if basic {
				itemLen := uint64(basicByteWidth(elemType.Type))
				chunkPos := uint64(elem.Index) * itemLen / 32
				cc := chunkCountOf(cur)
				root = GeneralizedIndex(uint64(root)*NextPow2(cc) + chunkPos)
				return root, nil
			}
			root = GeneralizedIndex(uint64(root)*NextPow2(bound) + uint64(elem.Index))
			cur = elemType

		default:
			return 0, sszerrors.NewInvalidPath(fmt.Sprintf("cannot descend into type %s", cur.Type))
		}
	}

	return root, nil
}

func isBasicType(t *flexssz.TypeInfo) bool {
	switch t.Type {
	case ssz.TypeUint8, ssz.TypeUint16, ssz.TypeUint32, ssz.TypeUint64, ssz.TypeUint128, ssz.TypeUint256, ssz.TypeBoolean:
		return true
	default:
		return false
	}
}

func basicByteWidth(t ssz.TypeName) int {
	switch t {
	case ssz.TypeUint8, ssz.TypeBoolean:
		return 1
	case ssz.TypeUint16:
		return 2
	case ssz.TypeUint32:
		return 4
	case ssz.TypeUint64:
		return 8
	case ssz.TypeUint128:
		return 16
	case ssz.TypeUint256:
		return 32
	default:
		return 0
	}
}

// chunkCountOf mirrors flexssz's internal chunkCount for a vector/list of
// basic elements: ceil(N * item_length / 32).
func chunkCountOf(t *flexssz.TypeInfo) uint64 {
	bound := uint64(t.Length)
	itemLen := uint64(basicByteWidth(t.ElementType.Type))
	return (bound*itemLen + 31) / 32
}
