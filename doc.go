// Package enginecore is the native core of a voxel game engine: a lifecycle
// tracker with lock-free counters and an off-heap memory allocator with an
// aggregate ledger, both owned by an explicit engine context.
//
// # Architecture Overview
//
//	enginecore/          Root package with the Tracker and Allocator interfaces
//	├── engine/          Engine context: startup, shutdown, simulated workload
//	├── lifecycle/       Phase state machine and atomic counters
//	├── memory/          Off-heap blocks, handles, ledger, leak checkpoint
//	├── config/          Tuning knobs; JSON and TOML loading, validation
//	├── boundary/        wazero host module exposing the core to guests
//	├── errors/          Structured error types for debugging
//	└── cmd/enginectl/   CLI: run, dumpconfig, monitor
//
// # Quick Start
//
//	eng, err := engine.New(config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	h, ok := eng.Allocator().Allocate(4096)
//	if ok {
//	    buf, _ := eng.Allocator().Bytes(h)
//	    copy(buf, vertices)
//	    eng.Allocator().FreeSized(h, 4096)
//	}
//
// # Phases
//
// The lifecycle moves Uninitialized → Initializing → Ready → Running, may
// pause and resume, and ends in Stopping → Stopped. Error is reachable from
// anywhere. SetPhase stores without checking; Transition enforces the table.
//
// # Ledger
//
// The allocator keeps two atomic totals: outstanding bytes and outstanding
// blocks. In lenient mode FreeSized trusts the caller's size and Free only
// adjusts the block count. Strict mode checks sizes against the recorded
// block. At shutdown any non-zero total is logged as a leak.
//
// # Host Calls
//
// The boundary package exports every operation as a function of the
// "enginecore" host module. Handles cross as i64 tokens and 0 means an
// empty allocation.
//
// # Logging
//
// Each package logs through zap and is silent by default. engine.SetLogger
// configures engine, config, lifecycle and memory at once.
package enginecore
