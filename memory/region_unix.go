//go:build unix

package memory

import (
	"golang.org/x/sys/unix"
)

// mapRegion maps an anonymous private region of size bytes. Mappings are
// page aligned, which satisfies the block alignment.
func mapRegion(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmapRegion(b []byte) error {
	return unix.Munmap(b)
}
