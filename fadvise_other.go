//go:build !linux

package kmerhash

// fadviseSequential is a no-op outside Linux.
func fadviseSequential(fd int, offset, length int64) {}
