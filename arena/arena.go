// Package arena implements the scoped bulk allocator that backs a single
// model compilation: every name string, declared-table row, and AVL node
// lives in one Arena that is discarded in one shot when compilation ends.
//
// The original ParX compiler (mem_func.c) links together individually
// malloc'd MEM_LEAF slots and frees them one at a time in mem_free. Go is
// garbage collected, so there is nothing to individually free; Arena
// instead tracks how many slots and bytes it has handed out, the way the
// original tracked tptr->cnt and tptr->size, so FreeAll can still report
// the reclaimed size to the caller and so compile-time memory pressure
// stays observable.
package arena

// Arena hands out byte slices for compile-time-only data and accounts for
// how many it has handed out. The zero value is ready to use.
type Arena struct {
	slots int
	bytes int64
	dead  bool
}

// New returns a fresh Arena, equivalent to mem_tree().
func New() *Arena {
	return &Arena{}
}

// Alloc returns a zeroed byte slice of the requested size, equivalent to
// mem_slot. It never returns an error: Go's allocator either succeeds or
// the runtime itself aborts, so callers that need the compiler's
// OutOfMemory diagnostic must pre-check size against a budget before
// calling Alloc.
func (a *Arena) Alloc(size int) []byte {
	if a.dead {
		panic("arena: Alloc after FreeAll")
	}
	a.slots++
	a.bytes += int64(size)
	return make([]byte, size)
}

// AllocString copies s into a freshly arena-accounted byte slice and
// returns it as a string, interning the name/unit bytes the way the
// original compiler does by pointing PRX_OPD_S.name at arena storage.
func (a *Arena) AllocString(s string) string {
	buf := a.Alloc(len(s))
	copy(buf, s)
	return string(buf)
}

// Slots reports the number of allocations made so far.
func (a *Arena) Slots() int { return a.slots }

// Bytes reports the running byte total handed out so far.
func (a *Arena) Bytes() int64 { return a.bytes }

// FreeAll releases the arena's bookkeeping and returns the total number
// of bytes that had been allocated, mirroring mem_free's return value.
// After FreeAll the Arena must not be used again.
func (a *Arena) FreeAll() int64 {
	total := a.bytes
	a.slots = 0
	a.bytes = 0
	a.dead = true
	return total
}
