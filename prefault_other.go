//go:build !linux

package kmerhash

// prefaultRegion is a no-op outside Linux.
func prefaultRegion(data []byte) {}
