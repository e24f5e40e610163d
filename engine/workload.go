package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/enginecore/errors"
	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

const pausePoll = 5 * time.Millisecond

// Workload describes a simulated session: each tick, every mesh worker maps
// a chunk, builds a mesh buffer off-heap, and tears both down again.
type Workload struct {
	// Ticks to run. 0 runs until ctx is done.
	Ticks int

	// Workers per tick. 0 uses the configured mesh thread count.
	Workers int

	// BlockSize is the mesh buffer size in bytes.
	BlockSize int

	// LeakEvery skips the release of every n-th buffer. 0 never leaks.
	LeakEvery int

	// TickInterval paces ticks. 0 runs as fast as possible.
	TickInterval time.Duration
}

// Run drives w against the engine. A Ready engine is started first and no
// ticks advance while it is paused. Run returns when the ticks are done, ctx
// is cancelled, or an allocation fails; it does not shut the engine down.
func (e *Engine) Run(ctx context.Context, w Workload) error {
	switch e.state.Phase() {
	case lifecycle.Ready:
		if err := e.Start(); err != nil {
			return err
		}
	case lifecycle.Running, lifecycle.Paused:
	default:
		return ErrNotRunning
	}

	workers := w.Workers
	if workers <= 0 {
		workers = int(e.cfg.MeshThreads)
	}
	blockSize := w.BlockSize
	if blockSize <= 0 {
		blockSize = 4096
	}

	var pace <-chan time.Time
	if w.TickInterval > 0 {
		ticker := time.NewTicker(w.TickInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	var serial uint64
	for tick := 0; w.Ticks == 0 || tick < w.Ticks; {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if e.state.Phase() == lifecycle.Paused {
			if pace == nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(pausePoll):
				}
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < workers; i++ {
			serial++
			leak := w.LeakEvery > 0 && serial%uint64(w.LeakEvery) == 0
			g.Go(func() error {
				return e.meshJob(gctx, blockSize, leak)
			})
		}
		if err := g.Wait(); err != nil {
			e.log.Warn("tick aborted", zap.Int("tick", tick), zap.Error(err))
			return err
		}

		e.state.AdvanceTick()
		e.state.AdvanceFrame()
		tick++
	}
	return nil
}

func (e *Engine) meshJob(ctx context.Context, size int, leak bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h, err := e.alloc.AllocateErr(size)
	if err != nil {
		return err
	}
	e.state.RecordChunkLoad()
	e.state.RecordEntitySpawn()

	buf, ok := e.alloc.Bytes(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseAlloc, h.Uint64())
	}
	fillMesh(buf)

	if leak {
		e.log.Debug("mesh buffer leaked", zap.Uint64("handle", h.Uint64()))
		return nil
	}

	e.state.RecordEntityDespawn()
	e.state.RecordChunkUnload()
	e.alloc.FreeSized(h, size)
	return nil
}

// fillMesh writes a vertex-like pattern so the pages are actually touched.
func fillMesh(buf []byte) {
	for i := 0; i < len(buf); i += memory.Alignment {
		buf[i] = byte(i / memory.Alignment)
	}
}
