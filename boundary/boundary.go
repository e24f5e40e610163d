package boundary

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore"
	"github.com/wippyai/enginecore/engine"
	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

// ModuleName is the import namespace guests use.
const ModuleName = "enginecore"

// Transition results returned to guests.
const (
	TransitionOK       uint32 = 0
	TransitionRejected uint32 = 1
)

var (
	none = []api.ValueType{}
	i32  = []api.ValueType{api.ValueTypeI32}
	i64  = []api.ValueType{api.ValueTypeI64}
	i64s = []api.ValueType{api.ValueTypeI64, api.ValueTypeI64}
)

// Instantiate registers the enginecore host module in rt, bound to e.
func Instantiate(ctx context.Context, rt wazero.Runtime, e *engine.Engine) (api.Module, error) {
	mod, err := Builder(e).Build(ctx, rt)
	if err != nil {
		return nil, err
	}
	Logger().Debug("host module instantiated", zap.String("module", ModuleName))
	return mod, nil
}

// Builder returns the host module definition for e without instantiating it.
func Builder(e *engine.Engine) *HostModuleBuilder {
	return Bind(e.State(), e.Allocator())
}

// Bind defines the host module over any tracker and allocator.
func Bind(st enginecore.Tracker, al enginecore.Allocator) *HostModuleBuilder {
	b := NewHostModule(ModuleName)

	b.Func("get_phase", func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = api.EncodeI32(int32(st.Phase()))
	}, none, i32)

	b.Func("set_phase", func(_ context.Context, _ api.Module, stack []uint64) {
		st.SetPhase(lifecycle.Phase(api.DecodeI32(stack[0])))
	}, i32, none)

	b.Func("transition", func(_ context.Context, _ api.Module, stack []uint64) {
		to := lifecycle.Phase(api.DecodeI32(stack[0]))
		if err := st.Transition(to); err != nil {
			Logger().Debug("transition rejected", zap.Stringer("to", to), zap.Error(err))
			stack[0] = api.EncodeU32(TransitionRejected)
			return
		}
		stack[0] = api.EncodeU32(TransitionOK)
	}, i32, i32)

	b.Func("advance_tick", action(st.AdvanceTick), none, none)
	b.Func("advance_frame", action(st.AdvanceFrame), none, none)
	b.Func("entity_spawn", action(st.RecordEntitySpawn), none, none)
	b.Func("entity_despawn", action(st.RecordEntityDespawn), none, none)
	b.Func("chunk_load", action(st.RecordChunkLoad), none, none)
	b.Func("chunk_unload", action(st.RecordChunkUnload), none, none)

	b.Func("tick_count", counter(st.Ticks), none, i64)
	b.Func("frame_count", counter(st.Frames), none, i64)
	b.Func("entity_count", counter(st.Entities), none, i64)
	b.Func("chunk_count", counter(st.Chunks), none, i64)
	b.Func("uptime_ms", counter(func() uint64 {
		return uint64(st.Uptime().Milliseconds())
	}), none, i64)

	b.Func("alloc", func(_ context.Context, _ api.Module, stack []uint64) {
		size, ok := toSize(int64(stack[0]))
		if !ok {
			stack[0] = 0
			return
		}
		h, _ := al.Allocate(size)
		stack[0] = h.Uint64()
	}, i64, i64)

	b.Func("free", func(_ context.Context, _ api.Module, stack []uint64) {
		al.Free(memory.Handle(stack[0]))
	}, i64, none)

	b.Func("free_sized", func(_ context.Context, _ api.Module, stack []uint64) {
		size := int64(stack[1])
		if size < 0 || uint64(size) > uint64(math.MaxInt) {
			Logger().Warn("free_sized with invalid size",
				zap.Uint64("handle", stack[0]),
				zap.Int64("size", size))
			return
		}
		al.FreeSized(memory.Handle(stack[0]), int(size))
	}, i64s, none)

	b.Func("allocated_bytes", counter(al.AllocatedBytes), none, i64)
	b.Func("allocation_count", counter(al.AllocationCount), none, i64)

	return b
}

func action(fn func()) api.GoModuleFunc {
	return func(context.Context, api.Module, []uint64) { fn() }
}

func counter(fn func() uint64) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = fn()
	}
}

// toSize narrows a guest i64 to a positive int.
func toSize(v int64) (int, bool) {
	if v <= 0 || uint64(v) > uint64(math.MaxInt) {
		return 0, false
	}
	return int(v), true
}
