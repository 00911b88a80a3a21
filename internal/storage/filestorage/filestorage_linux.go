package filestorage

import (
	"os"

	"golang.org/x/sys/unix"
)

// Pieces arrive out of order, so the kernel should not read ahead of our writes.
func adviseRandomAccess(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
