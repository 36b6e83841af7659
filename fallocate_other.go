//go:build !linux && !darwin

package kmerhash

import "os"

// fallocateFile sets the file size. Disk blocks may not be reserved on every
// filesystem.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
