package thicket

import "strconv"

// Entity is an opaque handle into a Scene's registry. The low 32 bits hold the
// slot index (1-based, so the zero value is never a live entity) and the high
// 32 bits the slot's generation, which changes every time the slot is freed.
type Entity uint64

// NoEntity is the null handle. It is never alive.
const NoEntity Entity = 0

const entityIndexBits = 32

func makeEntity(index, gen uint32) Entity {
	return Entity(uint64(gen)<<entityIndexBits | uint64(index))
}

func (e Entity) index() uint32 {
	return uint32(e)
}

func (e Entity) generation() uint32 {
	return uint32(uint64(e) >> entityIndexBits)
}

// Valid reports whether e is a non-null handle. It does not check liveness;
// use Scene.IsAlive for that.
func (e Entity) Valid() bool {
	return e.index() != 0
}

func (e Entity) String() string {
	if !e.Valid() {
		return "entity(none)"
	}
	return "entity(" + strconv.FormatUint(uint64(e.index()), 10) + "v" + strconv.FormatUint(uint64(e.generation()), 10) + ")"
}

// entityStore tracks slot generations and free slot indices.
type entityStore struct {
	gen   []uint32 // generation per slot, indexed by index-1
	alive []bool
	free  []uint32
	count int
}

func (s *entityStore) create() Entity {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.gen = append(s.gen, 0)
		s.alive = append(s.alive, false)
		index = uint32(len(s.gen))
	}
	s.alive[index-1] = true
	s.count++
	return makeEntity(index, s.gen[index-1])
}

func (s *entityStore) destroy(e Entity) bool {
	if !s.isAlive(e) {
		return false
	}
	i := e.index() - 1
	s.gen[i]++
	s.alive[i] = false
	s.free = append(s.free, e.index())
	s.count--
	return true
}

func (s *entityStore) isAlive(e Entity) bool {
	i := e.index()
	if i == 0 || int(i) > len(s.gen) {
		return false
	}
	return s.alive[i-1] && s.gen[i-1] == e.generation()
}

// each calls fn for every live entity in slot order.
func (s *entityStore) each(fn func(Entity)) {
	for i := range s.gen {
		if s.alive[i] {
			fn(makeEntity(uint32(i+1), s.gen[i]))
		}
	}
}

func (s *entityStore) clone() entityStore {
	return entityStore{
		gen:   append([]uint32(nil), s.gen...),
		alive: append([]bool(nil), s.alive...),
		free:  append([]uint32(nil), s.free...),
		count: s.count,
	}
}
