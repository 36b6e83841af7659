//go:build linux

package kmerhash

import "golang.org/x/sys/unix"

// fadviseSequential hints to the kernel that a sequence file will be scanned
// front to back. Best-effort: errors are ignored.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}
