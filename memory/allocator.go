package memory

import (
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/enginecore/errors"
)

const (
	// Alignment is the guaranteed alignment of every block.
	Alignment = 16

	// MaxBlockSize bounds a single request regardless of the ceiling.
	MaxBlockSize = 1 << 36
)

// Mode selects how releases are checked against the ledger.
type Mode uint8

const (
	// ModeLenient trusts caller-supplied sizes. Free does not touch the
	// byte counter.
	ModeLenient Mode = iota
	// ModeStrict checks sizes against the per-block record and makes Free
	// decrement the recorded size.
	ModeStrict
)

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "lenient"
}

// Config holds configuration for allocator creation
type Config struct {
	// Logger overrides the package logger.
	Logger *zap.Logger

	// Limit caps outstanding bytes. 0 means no ceiling.
	Limit uint64

	Mode Mode
}

// Stats is a point-in-time read of the allocator.
type Stats struct {
	Mode            Mode
	Limit           uint64
	AllocatedBytes  uint64
	AllocationCount uint64
	LiveBlocks      int

	// Reserved is the mapped byte total the ceiling is checked against.
	Reserved uint64
}

// Report is the outcome of the shutdown checkpoint.
type Report struct {
	AllocatedBytes  uint64
	AllocationCount uint64
}

// Leaked reports whether anything was outstanding at shutdown.
func (r Report) Leaked() bool {
	return r.AllocatedBytes != 0 || r.AllocationCount != 0
}

// Allocator hands out off-heap blocks and keeps the aggregate ledger.
// It is safe for concurrent use.
type Allocator struct {
	log      *zap.Logger
	blocks   *registry
	report   Report
	limit    uint64
	bytes    atomic.Uint64
	count    atomic.Uint64
	reserved atomic.Uint64
	closed   atomic.Bool
	gate     sync.RWMutex
	shutOnce sync.Once
	mode     Mode
}

// New creates an allocator with a zeroed ledger. A nil cfg uses defaults.
func New(cfg *Config) *Allocator {
	a := &Allocator{
		blocks: newRegistry(),
		log:    Logger(),
	}
	if cfg != nil {
		a.limit = cfg.Limit
		a.mode = cfg.Mode
		if cfg.Logger != nil {
			a.log = cfg.Logger
		}
	}
	return a
}

// Allocate returns a fresh block of size bytes. It returns (0, false) for a
// non-positive or unrepresentable size, when the ceiling would be exceeded,
// or when the operating system refuses the mapping.
func (a *Allocator) Allocate(size int) (Handle, bool) {
	h, err := a.AllocateErr(size)
	if err != nil {
		a.log.Debug("allocation refused", zap.Int("size", size), zap.Error(err))
		return 0, false
	}
	return h, true
}

// AllocateErr is Allocate with the failure reason.
func (a *Allocator) AllocateErr(size int) (Handle, error) {
	// Shutdown takes the write side, so no allocation straddles its report.
	a.gate.RLock()
	defer a.gate.RUnlock()

	if a.closed.Load() {
		return 0, errors.Closed(errors.PhaseAlloc, "allocator")
	}
	if size <= 0 {
		return 0, errors.InvalidSize(size)
	}
	if uint64(size) > MaxBlockSize || size > math.MaxInt-(Alignment-1) {
		return 0, errors.Overflow(errors.PhaseAlloc, size, "block size limit")
	}

	if err := a.reserve(uint64(size)); err != nil {
		return 0, err
	}
	a.bytes.Add(uint64(size))

	region, err := mapRegion(size)
	if err == nil && !isAligned(region) {
		_ = unmapRegion(region)
		err = errors.Unsupported(errors.PhaseAlloc, "mapping is not 16-byte aligned")
	}
	if err != nil {
		a.unreserve(size)
		a.bytes.Add(^uint64(size - 1))
		return 0, errors.AllocationFailed(size, Alignment, err)
	}

	h := a.blocks.insert(region, size)
	a.count.Add(1)
	return h, nil
}

// reserve admits size against the ceiling. The check uses the mapped total
// from the registry, not the caller-reported byte ledger.
func (a *Allocator) reserve(size uint64) error {
	if a.limit == 0 {
		a.reserved.Add(size)
		return nil
	}
	for {
		cur := a.reserved.Load()
		if cur > a.limit || size > a.limit-cur {
			return errors.LimitExceeded(size, cur, a.limit)
		}
		if a.reserved.CompareAndSwap(cur, cur+size) {
			return nil
		}
	}
}

func (a *Allocator) unreserve(size int) {
	a.reserved.Add(^uint64(size - 1))
}

// FreeSized releases a block obtained with exactly size bytes. Invalid
// handles are ignored. In lenient mode the byte counter drops by size as
// given; in strict mode a mismatched size keeps the block and logs a warning.
func (a *Allocator) FreeSized(h Handle, size int) {
	if err := a.ReleaseSized(h, size); err != nil {
		a.logRelease(h, err)
	}
}

// Free releases a block without its size. In lenient mode only the block
// count changes.
func (a *Allocator) Free(h Handle) {
	if err := a.Release(h); err != nil {
		a.logRelease(h, err)
	}
}

// ReleaseSized is FreeSized with the failure reason.
func (a *Allocator) ReleaseSized(h Handle, size int) error {
	if size < 0 {
		return errors.InvalidInput(errors.PhaseFree, "size", "negative size")
	}

	var check func(block) error
	if a.mode == ModeStrict {
		check = func(b block) error {
			if b.size != size {
				return errors.SizeMismatch(uint64(h), size, b.size)
			}
			return nil
		}
	}

	b, found, err := a.blocks.remove(h, check)
	if !found {
		return errors.InvalidHandle(errors.PhaseFree, uint64(h))
	}
	if err != nil {
		return err
	}

	a.unmap(h, b)
	a.unreserve(b.size)
	if size > 0 {
		a.bytes.Add(^uint64(size - 1))
	}
	a.count.Add(^uint64(0))
	return nil
}

// Release is Free with the failure reason.
func (a *Allocator) Release(h Handle) error {
	b, found, _ := a.blocks.remove(h, nil)
	if !found {
		return errors.InvalidHandle(errors.PhaseFree, uint64(h))
	}

	a.unmap(h, b)
	a.unreserve(b.size)
	if a.mode == ModeStrict {
		a.bytes.Add(^uint64(b.size - 1))
	}
	a.count.Add(^uint64(0))
	return nil
}

func (a *Allocator) unmap(h Handle, b block) {
	if err := unmapRegion(b.region); err != nil {
		a.log.Warn("unmap failed",
			zap.Uint64("handle", uint64(h)),
			zap.Int("size", b.size),
			zap.Error(err))
	}
}

func (a *Allocator) logRelease(h Handle, err error) {
	if errors.Is(err, &errors.Error{Phase: errors.PhaseFree, Kind: errors.KindInvalidHandle}) {
		a.log.Debug("release of unknown handle ignored", zap.Uint64("handle", uint64(h)))
		return
	}
	a.log.Warn("release rejected", zap.Uint64("handle", uint64(h)), zap.Error(err))
}

// Bytes returns the block's memory for its current owner.
// The slice is invalid after the block is released.
func (a *Allocator) Bytes(h Handle) ([]byte, bool) {
	b, ok := a.blocks.lookup(h)
	if !ok {
		return nil, false
	}
	return b.region[:b.size:b.size], true
}

// Valid reports whether h refers to a live block.
func (a *Allocator) Valid(h Handle) bool {
	_, ok := a.blocks.lookup(h)
	return ok
}

// AllocatedBytes returns the outstanding byte total.
func (a *Allocator) AllocatedBytes() uint64 {
	return a.bytes.Load()
}

// AllocationCount returns the outstanding block count.
func (a *Allocator) AllocationCount() uint64 {
	return a.count.Load()
}

// Mode returns the release checking mode.
func (a *Allocator) Mode() Mode {
	return a.mode
}

// Stats reads every counter once.
func (a *Allocator) Stats() Stats {
	return Stats{
		Mode:            a.mode,
		Limit:           a.limit,
		AllocatedBytes:  a.bytes.Load(),
		AllocationCount: a.count.Load(),
		LiveBlocks:      a.blocks.len(),
		Reserved:        a.reserved.Load(),
	}
}

// Shutdown stops further allocations and logs the leak diagnostic. Leaked
// blocks stay mapped. Later calls return the first report without logging.
func (a *Allocator) Shutdown() Report {
	a.shutOnce.Do(func() {
		a.gate.Lock()
		a.closed.Store(true)
		a.gate.Unlock()

		a.report = Report{
			AllocatedBytes:  a.bytes.Load(),
			AllocationCount: a.count.Load(),
		}
		if !a.report.Leaked() {
			a.log.Info("off-heap allocator shut down cleanly")
			return
		}

		a.log.Warn("off-heap leak detected",
			zap.Uint64("allocations", a.report.AllocationCount),
			zap.Uint64("bytes", a.report.AllocatedBytes),
			zap.Int("live_blocks", a.blocks.len()))

		if a.log.Core().Enabled(zap.DebugLevel) {
			a.blocks.each(func(h Handle, size int) bool {
				a.log.Debug("leaked block", zap.Uint64("handle", uint64(h)), zap.Int("size", size))
				return true
			})
		}
	})
	return a.report
}
