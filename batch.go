package thicket

import "slices"

// batch accumulates the quads of one draw call. Quads [0, opaqueInsertIndex)
// are opaque in reverse submission order; quads from opaqueInsertIndex on are
// transparent and sorted by ascending depth key.
type batch struct {
	quads             []quad
	depthKeys         []float32
	opaqueInsertIndex int
	bindList          []GPUTexture // index is the texture slot
}

func (b *batch) len() int {
	return len(b.quads)
}

// insert places q according to its opacity. Opaque quads are pushed to the
// front; transparent quads go before the first transparent quad with a
// greater depth key, or at the end.
func (b *batch) insert(transparent bool, depth float32, q quad) {
	if transparent {
		for i := b.opaqueInsertIndex; i < len(b.depthKeys); i++ {
			if depth < b.depthKeys[i] {
				b.quads = slices.Insert(b.quads, i, q)
				b.depthKeys = slices.Insert(b.depthKeys, i, depth)
				return
			}
		}
		b.quads = append(b.quads, q)
		b.depthKeys = append(b.depthKeys, depth)
		return
	}

	b.quads = slices.Insert(b.quads, 0, q)
	b.depthKeys = slices.Insert(b.depthKeys, 0, depth)
	b.opaqueInsertIndex++
}

// slotOf returns the slot tex is bound to, or -1. Textures are compared by
// RendererID so distinct wrappers of one GPU texture share a slot.
func (b *batch) slotOf(tex GPUTexture) int {
	id := tex.RendererID()
	for slot, t := range b.bindList {
		if t.RendererID() == id {
			return slot
		}
	}
	return -1
}

// bind appends tex to the bind list and returns its slot.
func (b *batch) bind(tex GPUTexture) int {
	b.bindList = append(b.bindList, tex)
	return len(b.bindList) - 1
}

// reset clears pending quads and bindings, keeping allocations.
func (b *batch) reset() {
	clear(b.quads)
	clear(b.bindList)
	b.quads = b.quads[:0]
	b.depthKeys = b.depthKeys[:0]
	b.bindList = b.bindList[:0]
	b.opaqueInsertIndex = 0
}
