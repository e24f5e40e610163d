// Package boundary exposes the engine core to a WebAssembly host runtime.
//
// Every lifecycle and allocator operation is exported as one function of a
// wazero host module named "enginecore". Guests import it like any other
// host module:
//
//	(import "enginecore" "alloc" (func $alloc (param i64) (result i64)))
//	(import "enginecore" "free_sized" (func $free (param i64 i64)))
//
// Handles cross the boundary as opaque i64 tokens; 0 is the empty result.
// Raw addresses never leave the host. A panic inside a call is recovered,
// logged, and turned into a zero result so no unwind crosses the seam.
//
//	rt := wazero.NewRuntime(ctx)
//	mod, err := boundary.Instantiate(ctx, rt, eng)
package boundary
