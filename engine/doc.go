// Package engine owns one engine run: its configuration, lifecycle state and
// off-heap allocator.
//
// An Engine replaces process-wide singletons. Every subsystem that needs the
// state or the allocator receives the Engine (or the piece it needs) by
// pointer, and teardown is tied to Engine.Shutdown rather than process exit.
//
//	eng, err := engine.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	if err := eng.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// New walks the state through Initializing to Ready. Start, Pause and Resume
// use checked transitions. Shutdown moves through Stopping to Stopped and
// runs the allocator's leak checkpoint exactly once.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Its accessors return shared pointers;
// the state and allocator are themselves concurrency-safe.
package engine
