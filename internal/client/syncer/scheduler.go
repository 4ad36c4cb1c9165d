package syncer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler debounces work per key. Scheduling a key that is already pending
// replaces its function and restarts its window, so only the latest call runs.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	pending map[string]*scheduled
	stopped bool
}

type scheduled struct {
	timer clockwork.Timer
	fn    func()
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock, pending: make(map[string]*scheduled)}
}

// Schedule runs fn once window has passed without another Schedule for key.
func (s *Scheduler) Schedule(key string, window time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}
	e := &scheduled{fn: fn}
	e.timer = s.clock.AfterFunc(window, func() { s.fire(key, e) })
	s.pending[key] = e
}

func (s *Scheduler) fire(key string, e *scheduled) {
	s.mu.Lock()
	if s.pending[key] != e {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()
	e.fn()
}

// Cancel drops the pending run of key and reports whether there was one.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Flush runs every pending function now, on the calling goroutine.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	due := make([]func(), 0, len(s.pending))
	for key, e := range s.pending {
		e.timer.Stop()
		due = append(due, e.fn)
		delete(s.pending, key)
	}
	s.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// Stop drops pending work; later calls to Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, key)
	}
}
