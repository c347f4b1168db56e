package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// acquireClearLock takes the advisory lock that keeps two kernlog processes
// from clearing the ring buffer at the same time.
func acquireClearLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire clear lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another kernlog instance is clearing the kernel log (lock %s)", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
