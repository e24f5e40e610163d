// Package memory provides the off-heap allocator facade.
//
// Blocks are mapped directly from the operating system, outside the Go heap,
// so their lifetime is never subject to garbage collection. Callers hold an
// opaque Handle and must hand it back through Free or FreeSized; nothing is
// reclaimed automatically.
//
// # Ledger
//
// The allocator keeps two aggregate counters, outstanding bytes and
// outstanding block count, updated with a single atomic operation per call.
// In ModeLenient (the default) the byte counter trusts the size the caller
// passes to FreeSized, and Free leaves the byte counter untouched. Mixing the
// two, or passing a wrong size, desynchronizes the byte counter from reality.
// ModeStrict checks sizes against the per-block record instead:
//
//	alloc := memory.New(&memory.Config{Mode: memory.ModeStrict})
//	h, ok := alloc.Allocate(256)
//	err := alloc.ReleaseSized(h, 128) // size mismatch, block kept
//
// # Handles
//
// A Handle packs a slot index and a generation. Releasing a block bumps the
// slot's generation, so stale or double-freed handles fail validation and are
// ignored instead of touching another owner's block. Handle 0 is never valid.
//
// # Shutdown
//
// Shutdown is a diagnostic checkpoint: it logs a leak warning when either
// counter is nonzero and reports the totals. Leaked blocks stay mapped.
package memory
