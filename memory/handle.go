package memory

import (
	"sync"
	"unsafe"
)

// Handle is an opaque token for an allocated block.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(slot int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

func (h Handle) slot() int      { return int(uint32(h)) - 1 }
func (h Handle) gen() uint32    { return uint32(h >> 32) }
func (h Handle) IsZero() bool   { return h == 0 }
func (h Handle) Uint64() uint64 { return uint64(h) }

type block struct {
	region []byte
	size   int
	gen    uint32
	live   bool
}

// registry maps handles to their mapped regions. A released slot keeps its
// bumped generation and goes on the free list for reuse.
type registry struct {
	blocks   []block
	freeList []int
	mu       sync.RWMutex
}

func newRegistry() *registry {
	return &registry{
		blocks:   make([]block, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

func (r *registry) insert(region []byte, size int) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.freeList); n > 0 {
		slot := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		b := &r.blocks[slot]
		b.region = region
		b.size = size
		b.live = true
		return makeHandle(slot, b.gen)
	}

	r.blocks = append(r.blocks, block{region: region, size: size, gen: 1, live: true})
	return makeHandle(len(r.blocks)-1, 1)
}

// lookup returns the block for h if h is live.
func (r *registry) lookup(h Handle) (block, bool) {
	if h == 0 {
		return block{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	slot := h.slot()
	if slot < 0 || slot >= len(r.blocks) {
		return block{}, false
	}
	b := r.blocks[slot]
	if !b.live || b.gen != h.gen() {
		return block{}, false
	}
	return b, true
}

// remove invalidates h and returns its block. found reports whether h was
// live. If check is non-nil it is consulted under the lock and a non-nil
// result leaves the block in place.
func (r *registry) remove(h Handle, check func(block) error) (b block, found bool, err error) {
	if h == 0 {
		return block{}, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := h.slot()
	if slot < 0 || slot >= len(r.blocks) {
		return block{}, false, nil
	}
	e := &r.blocks[slot]
	if !e.live || e.gen != h.gen() {
		return block{}, false, nil
	}
	if check != nil {
		if err := check(*e); err != nil {
			return block{}, true, err
		}
	}

	out := *e
	e.region = nil
	e.size = 0
	e.live = false
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	r.freeList = append(r.freeList, slot)
	return out, true, nil
}

// len returns the number of live blocks.
func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocks) - len(r.freeList)
}

// each iterates over live blocks until fn returns false.
func (r *registry) each(fn func(Handle, int) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, b := range r.blocks {
		if b.live {
			if !fn(makeHandle(i, b.gen), b.size) {
				return
			}
		}
	}
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

func isAligned(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%Alignment == 0
}
