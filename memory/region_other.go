//go:build !unix

package memory

import "unsafe"

// mapRegion falls back to an over-allocated heap slice trimmed to the block
// alignment. The registry entry keeps the slice reachable until release.
func mapRegion(size int) ([]byte, error) {
	buf := make([]byte, size+Alignment-1)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := int(alignUp(addr, Alignment) - addr)
	return buf[shift : shift+size : shift+size], nil
}

func unmapRegion([]byte) error { return nil }
