package proof

import "testing"

func buildFourLeafTree(t *testing.T) *Node {
	t.Helper()
	tree, err := BuildTree([]*Node{leaf(1), leaf(2), leaf(3), leaf(4)}, 4)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return tree
}

func TestProveAndVerifySingleLeaf(t *testing.T) {
	tree := buildFourLeafTree(t)
	root := tree.Hash()

	for i := 0; i < 4; i++ {
		idx := GeneralizedIndex(4 + i)
		p, err := Prove(tree, idx)
		if err != nil {
			t.Fatalf("Prove(%d): %v", idx, err)
		}
		if p.Witness != root {
			t.Fatalf("witness mismatch for index %d", idx)
		}
		if !VerifyProof(p.Leaf, p.Branch, p.Index, p.Witness) {
			t.Errorf("VerifyProof failed for index %d", idx)
		}
	}
}

func TestVerifyProofRejectsWrongLeaf(t *testing.T) {
	tree := buildFourLeafTree(t)
	p, err := Prove(tree, GeneralizedIndex(4))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	wrongLeaf := leaf(99).Hash()
	if VerifyProof(wrongLeaf, p.Branch, p.Index, p.Witness) {
		t.Fatalf("VerifyProof should reject a tampered leaf")
	}
}

func TestVerifyProofRejectsWrongBranchLength(t *testing.T) {
	tree := buildFourLeafTree(t)
	p, err := Prove(tree, GeneralizedIndex(4))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if VerifyProof(p.Leaf, p.Branch[:len(p.Branch)-1], p.Index, p.Witness) {
		t.Fatalf("VerifyProof should reject a truncated branch")
	}
}
