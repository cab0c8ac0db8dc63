package ssz

import "testing"

func TestTypeNameClassification(t *testing.T) {
	fixed := []TypeName{TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeUint128, TypeUint256, TypeBoolean, TypeBitVector}
	for _, tn := range fixed {
		if !tn.IsAlwaysFixed() {
			t.Errorf("%s.IsAlwaysFixed() = false, want true", tn)
		}
		if tn.IsAlwaysVariable() {
			t.Errorf("%s.IsAlwaysVariable() = true, want false", tn)
		}
	}

	alwaysVar := []TypeName{TypeList, TypeBitList, TypeUnion}
	for _, tn := range alwaysVar {
		if !tn.IsAlwaysVariable() {
			t.Errorf("%s.IsAlwaysVariable() = false, want true", tn)
		}
		if tn.IsAlwaysFixed() {
			t.Errorf("%s.IsAlwaysFixed() = true, want false", tn)
		}
	}

	sometimes := []TypeName{TypeVector, TypeContainer}
	for _, tn := range sometimes {
		if !tn.IsSometimesVariable() {
			t.Errorf("%s.IsSometimesVariable() = false, want true", tn)
		}
		if tn.IsAlwaysFixed() || tn.IsAlwaysVariable() {
			t.Errorf("%s should be neither always-fixed nor always-variable", tn)
		}
	}
}

func TestFieldItemLength(t *testing.T) {
	f := Field{Type: TypeUint32}
	n, err := f.ItemLength(nil)
	if err != nil {
		t.Fatalf("ItemLength: %v", err)
	}
	if n != 4 {
		t.Errorf("ItemLength(uint32) = %d, want 4", n)
	}

	container := Field{Type: TypeContainer}
	n, err = container.ItemLength(nil)
	if err != nil {
		t.Fatalf("ItemLength: %v", err)
	}
	if n != 32 {
		t.Errorf("ItemLength(container) = %d, want 32", n)
	}
}

func TestFieldSizeHintFixedContainer(t *testing.T) {
	f := Field{
		Type: TypeContainer,
		Children: []Field{
			{Name: "a", Type: TypeUint32},
			{Name: "d", Type: TypeBoolean},
		},
	}
	n, err := f.SizeHint(nil)
	if err != nil {
		t.Fatalf("SizeHint: %v", err)
	}
	if n != 5 {
		t.Errorf("SizeHint(Foo{a,d}) = %d, want 5", n)
	}
}

func TestFieldSizeHintVariableIsZero(t *testing.T) {
	f := Field{
		Type:  TypeList,
		Limit: 128,
		Children: []Field{
			{Type: TypeUint16},
		},
	}
	n, err := f.SizeHint(nil)
	if err != nil {
		t.Fatalf("SizeHint: %v", err)
	}
	if n != 0 {
		t.Errorf("SizeHint(list) = %d, want 0", n)
	}
}

func TestFieldChunkCountListOfBasic(t *testing.T) {
	// list<u16,128>: item_length=2, chunk_count = ceil(128*2/32) = 8.
	f := Field{
		Type:  TypeList,
		Limit: 128,
		Children: []Field{
			{Type: TypeUint16},
		},
	}
	n, err := f.ChunkCount(nil)
	if err != nil {
		t.Fatalf("ChunkCount: %v", err)
	}
	if n != 8 {
		t.Errorf("ChunkCount(list<u16,128>) = %d, want 8", n)
	}
}

func TestFieldChunkCountBitsUsesDistinctBounds(t *testing.T) {
	bitvector := Field{Type: TypeBitVector, Size: 512}
	n, err := bitvector.ChunkCount(nil)
	if err != nil {
		t.Fatalf("ChunkCount: %v", err)
	}
	if n != 2 {
		t.Errorf("ChunkCount(bitvector[512]) = %d, want 2", n)
	}

	bitlist := Field{Type: TypeBitList, Limit: 512}
	n, err = bitlist.ChunkCount(nil)
	if err != nil {
		t.Fatalf("ChunkCount: %v", err)
	}
	if n != 2 {
		t.Errorf("ChunkCount(bitlist limit=512) = %d, want 2", n)
	}
}

func TestFieldChunkCountContainer(t *testing.T) {
	f := Field{
		Type: TypeContainer,
		Children: []Field{
			{Type: TypeUint32}, {Type: TypeUint32}, {Type: TypeBoolean},
		},
	}
	n, err := f.ChunkCount(nil)
	if err != nil {
		t.Fatalf("ChunkCount: %v", err)
	}
	if n != 3 {
		t.Errorf("ChunkCount(container/3 fields) = %d, want 3", n)
	}
}
