// Package engine implements the Controller façade (§4.H) and the
// single-threaded cooperative task loop (§5) that every socket callback,
// timer, and application handler invocation runs on.
package engine

import (
	"sync"
	"time"
)

// Loop serializes work from multiple goroutines (socket readers, acceptors,
// timers) onto one goroutine, matching the original engine's
// single-threaded cooperative model without a per-peer mutex. It implements
// both peer.Loop and registry.Loop.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run processes posted tasks until Stop is called. Intended to be the only
// goroutine that ever touches peer or registry state directly.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post schedules fn to run on the loop goroutine. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Schedule runs fn on the loop goroutine after d and returns a cancel
// function. Used by the registry for the keep-alive sweep timer.
func (l *Loop) Schedule(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, func() { l.Post(fn) })
	return timer.Stop
}

// Stop ends Run. Safe to call more than once.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}
