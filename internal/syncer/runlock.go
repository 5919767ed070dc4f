// internal/syncer/runlock.go
package syncer

import "sync"

// RunLock serializes sync runs across callers. The orchestrator itself has
// no internal mutex; the HTTP trigger and the scheduler share one RunLock
// and each acquires it before invoking SyncAll.
type RunLock struct {
	mu sync.Mutex
}

// TryAcquire takes the lock without blocking. Returns false when a run is
// already in progress.
func (l *RunLock) TryAcquire() bool {
	return l.mu.TryLock()
}

// Release frees the lock after a run completes.
func (l *RunLock) Release() {
	l.mu.Unlock()
}
