package debounce

import (
	"sync"
	"time"
)

type state uint8

const (
	stateIdle state = iota
	stateArmed
)

type entry struct {
	state state
	timer Timer
	fn    func()
	seq   uint64
}

// Scheduler debounces calls per key with a head and tail policy: the first
// call of a burst runs immediately, the last one runs again once delay has
// passed without further calls. A key returns to idle after its tail fired,
// so a lone call runs twice.
type Scheduler struct {
	clock Clock
	delay time.Duration

	mu   sync.Mutex
	keys map[string]*entry
}

// NewScheduler returns a scheduler using clock; a nil clock means RealClock.
func NewScheduler(delay time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		clock: clock,
		delay: delay,
		keys:  make(map[string]*entry),
	}
}

// Delay reports the quiet period.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Trigger records a call for key. fn runs synchronously when the key is idle
// and is kept as the pending tail otherwise.
func (s *Scheduler) Trigger(key string, fn func()) {
	s.mu.Lock()
	e := s.keys[key]
	head := e == nil || e.state == stateIdle
	if e == nil {
		e = &entry{}
		s.keys[key] = e
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.state = stateArmed
	e.fn = fn
	e.seq++
	seq := e.seq
	e.timer = s.clock.AfterFunc(s.delay, func() { s.fire(key, seq) })
	s.mu.Unlock()

	if head {
		fn()
	}
}

func (s *Scheduler) fire(key string, seq uint64) {
	s.mu.Lock()
	e := s.keys[key]
	// a stopped timer may still fire after losing the race with Trigger
	if e == nil || e.seq != seq || e.state != stateArmed {
		s.mu.Unlock()
		return
	}
	fn := e.fn
	delete(s.keys, key)
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Pending reports whether key has an armed tail.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.keys[key]
	return e != nil && e.state == stateArmed
}

// Forget cancels the pending tail of key and drops its state.
func (s *Scheduler) Forget(key string) {
	s.mu.Lock()
	if e := s.keys[key]; e != nil {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.keys, key)
	}
	s.mu.Unlock()
}

// Stop cancels every pending tail.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, e := range s.keys {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.keys, key)
	}
	s.mu.Unlock()
}

// Func wraps fn in a head and tail debouncer backed by the real clock.
func Func(fn func(), delay time.Duration) func() {
	return FuncWithClock(fn, delay, RealClock)
}

// FuncWithClock is Func with an explicit clock.
func FuncWithClock(fn func(), delay time.Duration, clock Clock) func() {
	s := NewScheduler(delay, clock)
	return func() { s.Trigger("", fn) }
}
