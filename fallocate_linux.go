//go:build linux

package kmerhash

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a signature file so that writes
// through the memory map cannot SIGBUS on a full disk.
func fallocateFile(file *os.File, size int64) error {
	if err := unix.Fallocate(int(file.Fd()), 0, 0, size); err != nil {
		// NFS and some filesystems do not support fallocate
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// fallocate reserves blocks but does not set the file size
	return unix.Ftruncate(int(file.Fd()), size)
}
