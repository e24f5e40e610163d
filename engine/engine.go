package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/enginecore/config"
	"github.com/wippyai/enginecore/errors"
	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

// Engine is the ownership-tracked context for one engine run.
type Engine struct {
	cfg      *config.Config
	state    *lifecycle.State
	alloc    *memory.Allocator
	log      *zap.Logger
	report   memory.Report
	shutOnce sync.Once
}

// New validates cfg, creates the state and allocator, and leaves the engine
// in the Ready phase. A nil cfg uses config.Default.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	state := lifecycle.NewState()
	if err := state.Transition(lifecycle.Initializing); err != nil {
		return nil, err
	}

	log := Logger().With(zap.String("run", state.RunID()))

	if err := cfg.Validate(); err != nil {
		state.SetPhase(lifecycle.Error)
		log.Error("invalid configuration", zap.Error(err))
		return nil, err
	}

	mode := memory.ModeLenient
	if cfg.StrictAllocator {
		mode = memory.ModeStrict
	}
	alloc := memory.New(&memory.Config{
		Limit:  cfg.OffheapLimit(),
		Mode:   mode,
		Logger: memory.Logger().With(zap.String("run", state.RunID())),
	})

	e := &Engine{
		cfg:   cfg,
		state: state,
		alloc: alloc,
		log:   log,
	}

	if err := state.Transition(lifecycle.Ready); err != nil {
		return nil, err
	}
	log.Info("engine ready",
		zap.String("render_mode", string(cfg.RenderMode)),
		zap.Uint64("offheap_limit", cfg.OffheapLimit()),
		zap.Stringer("allocator_mode", mode),
		zap.Uint32("mesh_threads", cfg.MeshThreads))
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// State returns the shared lifecycle state.
func (e *Engine) State() *lifecycle.State {
	return e.state
}

// Allocator returns the shared off-heap allocator.
func (e *Engine) Allocator() *memory.Allocator {
	return e.alloc
}

// Start moves Ready to Running.
func (e *Engine) Start() error {
	return e.transition(lifecycle.Running)
}

// Pause moves Running to Paused.
func (e *Engine) Pause() error {
	return e.transition(lifecycle.Paused)
}

// Resume moves Paused to Running.
func (e *Engine) Resume() error {
	return e.transition(lifecycle.Running)
}

// Fail records an unrecoverable error. Only a new Engine leaves Error.
func (e *Engine) Fail(cause error) {
	e.state.SetPhase(lifecycle.Error)
	e.log.Error("engine failed", zap.Error(cause))
}

func (e *Engine) transition(p lifecycle.Phase) error {
	if err := e.state.Transition(p); err != nil {
		e.log.Warn("rejected phase change", zap.Error(err))
		return err
	}
	e.log.Info("phase changed", zap.Stringer("phase", p))
	return nil
}

// Shutdown stops the engine and runs the allocator's leak checkpoint. It
// runs once; later calls return the first report. An engine in the Error
// phase stays there.
func (e *Engine) Shutdown() memory.Report {
	e.shutOnce.Do(func() {
		failed := e.state.Phase() == lifecycle.Error
		if !failed {
			if err := e.state.Transition(lifecycle.Stopping); err != nil {
				// Not yet started or mid-initialization; stopping is still allowed.
				e.state.SetPhase(lifecycle.Stopping)
			}
		}

		e.report = e.alloc.Shutdown()

		if !failed {
			e.state.SetPhase(lifecycle.Stopped)
		}
		snap := e.state.Snapshot()
		e.log.Info("engine stopped",
			zap.Stringer("phase", snap.Phase),
			zap.Duration("uptime", snap.Uptime),
			zap.Uint64("ticks", snap.Ticks),
			zap.Uint64("frames", snap.Frames),
			zap.Bool("leaked", e.report.Leaked()))
	})
	return e.report
}

// Close implements io.Closer. Leaks are reported through the log, never as
// an error.
func (e *Engine) Close() error {
	e.Shutdown()
	return nil
}

// ErrNotRunning is returned by Run when the engine cannot enter Running.
var ErrNotRunning = errors.New(errors.PhaseLifecycle, errors.KindNotInitialized).
	Detail("engine is not ready or running").
	Build()
