package enginecore

import (
	"time"

	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

// Tracker is the lifecycle surface the host call layer drives.
type Tracker interface {
	Phase() lifecycle.Phase
	SetPhase(p lifecycle.Phase)
	Transition(p lifecycle.Phase) error

	AdvanceTick()
	AdvanceFrame()
	RecordEntitySpawn()
	RecordEntityDespawn()
	RecordChunkLoad()
	RecordChunkUnload()

	Ticks() uint64
	Frames() uint64
	Entities() uint64
	Chunks() uint64
	Uptime() time.Duration
}

// Allocator hands out off-heap blocks behind opaque handles
type Allocator interface {
	Allocate(size int) (memory.Handle, bool)
	Free(h memory.Handle)
	FreeSized(h memory.Handle, size int)
	AllocatedBytes() uint64
	AllocationCount() uint64
}

var (
	_ Tracker   = (*lifecycle.State)(nil)
	_ Allocator = (*memory.Allocator)(nil)
)
