package thicket

import "testing"

// markedQuad returns a quad whose color red channel identifies it.
func markedQuad(id float32) quad {
	var q quad
	for i := range q {
		q[i].Color = Color{R: id, A: 1}
	}
	return q
}

func batchIDs(b *batch) []float32 {
	ids := make([]float32, len(b.quads))
	for i, q := range b.quads {
		ids[i] = q[0].Color.R
	}
	return ids
}

func assertFloats(t *testing.T, name string, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestBatchTransparentSortedByDepth(t *testing.T) {
	var b batch
	for _, d := range []float32{5, 1, 3} {
		b.insert(true, d, markedQuad(d))
	}
	assertFloats(t, "depthKeys", b.depthKeys[b.opaqueInsertIndex:], []float32{1, 3, 5})
	assertFloats(t, "quads", batchIDs(&b), []float32{1, 3, 5})
}

func TestBatchOpaqueBeforeTransparent(t *testing.T) {
	var b batch
	b.insert(false, 9, markedQuad(100))
	b.insert(true, 2, markedQuad(2))
	b.insert(true, 1, markedQuad(1))

	assertFloats(t, "quads", batchIDs(&b), []float32{100, 1, 2})
	if b.opaqueInsertIndex != 1 {
		t.Errorf("opaqueInsertIndex = %d, want 1", b.opaqueInsertIndex)
	}
}

func TestBatchOpaqueReverseSubmissionOrder(t *testing.T) {
	var b batch
	b.insert(true, 0, markedQuad(50))
	for _, id := range []float32{1, 2, 3} {
		b.insert(false, 0, markedQuad(id))
	}
	assertFloats(t, "quads", batchIDs(&b), []float32{3, 2, 1, 50})
	if b.opaqueInsertIndex != 3 {
		t.Errorf("opaqueInsertIndex = %d, want 3", b.opaqueInsertIndex)
	}
}

func TestBatchTransparentEqualDepthKeepsOrder(t *testing.T) {
	var b batch
	b.insert(true, 1, markedQuad(1))
	b.insert(true, 1, markedQuad(2))
	b.insert(true, 0, markedQuad(3))
	b.insert(true, 1, markedQuad(4))
	assertFloats(t, "quads", batchIDs(&b), []float32{3, 1, 2, 4})
}

func TestBatchTransparentIgnoresOpaqueDepth(t *testing.T) {
	var b batch
	b.insert(false, 10, markedQuad(1))
	b.insert(true, 5, markedQuad(2))
	assertFloats(t, "quads", batchIDs(&b), []float32{1, 2})
}

// aliasTexture is a second GPUTexture value reporting an existing identity.
type aliasTexture struct {
	GPUTexture
}

func TestBatchSlotDeduplicatesByIdentity(t *testing.T) {
	var b batch
	a := NewHeadlessTexture(4, 4)
	c := NewHeadlessTexture(4, 4)

	if got := b.bind(a); got != 0 {
		t.Fatalf("bind(a) = %d, want 0", got)
	}
	if got := b.bind(c); got != 1 {
		t.Fatalf("bind(c) = %d, want 1", got)
	}
	if got := b.slotOf(aliasTexture{a}); got != 0 {
		t.Errorf("slotOf(alias of a) = %d, want 0", got)
	}
	if got := b.slotOf(NewHeadlessTexture(4, 4)); got != -1 {
		t.Errorf("slotOf(unbound) = %d, want -1", got)
	}
}

func TestBatchReset(t *testing.T) {
	var b batch
	b.insert(false, 0, markedQuad(1))
	b.insert(true, 0, markedQuad(2))
	b.bind(NewHeadlessTexture(1, 1))
	b.reset()

	if b.len() != 0 || len(b.depthKeys) != 0 || len(b.bindList) != 0 || b.opaqueInsertIndex != 0 {
		t.Errorf("reset left state: len=%d keys=%d binds=%d boundary=%d",
			b.len(), len(b.depthKeys), len(b.bindList), b.opaqueInsertIndex)
	}
}

func BenchmarkBatchInsertTransparent(b *testing.B) {
	var bt batch
	q := markedQuad(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if bt.len() == 1000 {
			bt.reset()
		}
		bt.insert(true, float32(i%97), q)
	}
}
