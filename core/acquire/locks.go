package acquire

import (
	"sync"
	"time"

	"tunecast/logger"
)

// jobState describes one in-flight acquisition.
type jobState struct {
	jobID     string
	startedAt time.Time
}

// jobLocks guarantees at most one active acquisition per track id. The map
// of active ids is guarded by a single coarse mutex; acquisition is a
// non-blocking try so a concurrent request for a busy id returns
// immediately instead of queueing.
type jobLocks struct {
	mu     sync.Mutex
	active map[string]*jobState
}

func newJobLocks() *jobLocks {
	return &jobLocks{active: make(map[string]*jobState)}
}

// tryAcquire claims the lock for id. It never blocks; false means another
// job already holds it.
func (l *jobLocks) tryAcquire(id, jobID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if running, exists := l.active[id]; exists {
		logger.Info("acquisition already running for track",
			logger.String("trackId", id),
			logger.String("runningJobId", running.jobID),
			logger.Duration("runningFor", time.Since(running.startedAt)))
		return false
	}

	l.active[id] = &jobState{jobID: jobID, startedAt: time.Now()}
	return true
}

// release frees the lock for id. Safe to call once per acquired lock on
// every exit path.
func (l *jobLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, exists := l.active[id]; exists {
		delete(l.active, id)
		logger.Debug("released acquisition lock",
			logger.String("trackId", id),
			logger.String("jobId", state.jobID),
			logger.Duration("held", time.Since(state.startedAt)))
	} else {
		logger.Warn("released an acquisition lock that was not held",
			logger.String("trackId", id))
	}
}
