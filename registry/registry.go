// Package registry owns the set of active peers: master election and the
// periodic keep-alive expiry sweep (§4.D).
package registry

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/padl/surrogate/peer"
)

const (
	MinAliveTime = 1
	MaxAliveTime = 60
	DefaultAliveTime = 20
)

// Loop is the narrow surface the registry needs to schedule its expiry
// sweep on the engine's single dispatch goroutine.
type Loop interface {
	Post(func())
	Schedule(d time.Duration, fn func()) (cancel func())
}

// NotifyFunc delivers an API-internal port-status event to the application
// handler. portEvent is "PortError" or "PortClosed"; err is non-nil only
// for PortError.
type NotifyFunc func(p *peer.Peer, portEvent string, err error)

// Registry is an ordered list of peers plus master-election state.
type Registry struct {
	peers     []*peer.Peer
	master    *peer.Peer
	aliveTime int

	loop   Loop
	cancel func()
	notify NotifyFunc
}

// New creates a registry with the default 20-second alive time, matching
// Controller construction installing the timer before discoverability ever
// begins.
func New(loop Loop, notify NotifyFunc) *Registry {
	r := &Registry{loop: loop, aliveTime: DefaultAliveTime, notify: notify}
	r.rescheduleLocked()
	return r
}

// Add registers a newly accepted peer.
func (r *Registry) Add(p *peer.Peer) {
	r.peers = append(r.peers, p)
}

// Peers returns the live peer list. Callers must not retain it past the
// current task.
func (r *Registry) Peers() []*peer.Peer { return r.peers }

// Master returns the current master peer, or nil.
func (r *Registry) Master() *peer.Peer { return r.master }

// IsMaster reports whether p is the current master.
func (r *Registry) IsMaster(p *peer.Peer) bool { return r.master == p }

// SetMaster implements the SetMaster(1)/SetMaster(0) built-in handler
// semantics: becoming master transitions the peer to Connected; clearing
// master (only meaningful for the current master) transitions it to Ready.
func (r *Registry) SetMaster(p *peer.Peer, on bool) {
	if on {
		r.master = p
		p.Status = peer.Connected
		return
	}
	if r.master == p {
		r.master = nil
	}
	p.Status = peer.Ready
}

// AliveTime returns the current keep-alive period in seconds.
func (r *Registry) AliveTime() int { return r.aliveTime }

// SetAliveTime validates and installs a new keep-alive period, tearing
// down and reinstalling the expiry timer (§4.D, §3 invariant [1,60]).
func (r *Registry) SetAliveTime(seconds int) bool {
	if seconds < MinAliveTime || seconds > MaxAliveTime {
		return false
	}
	if seconds == r.aliveTime {
		return true
	}
	r.aliveTime = seconds
	r.rescheduleLocked()
	return true
}

func (r *Registry) rescheduleLocked() {
	if r.cancel != nil {
		r.cancel()
	}
	period := time.Duration(r.aliveTime) * time.Second
	var tick func()
	tick = func() {
		r.sweep()
		r.cancel = r.loop.Schedule(period, tick)
	}
	r.cancel = r.loop.Schedule(period, tick)
}

// sweep runs on the loop goroutine: close and drop every peer whose
// LastActivity is stale, including peers whose LastActivity is the zero
// Time (immediate expiry).
func (r *Registry) sweep() {
	now := time.Now()
	alive := r.peers[:0:0]
	// Iterate a copy: closePeer removes p from r.peers in place.
	for _, p := range append([]*peer.Peer(nil), r.peers...) {
		if p.LastActivity.IsZero() || now.Sub(p.LastActivity) >= time.Duration(r.aliveTime)*time.Second {
			r.closePeer(p)
			continue
		}
		alive = append(alive, p)
	}
	r.peers = alive
}

func (r *Registry) closePeer(p *peer.Peer) {
	if r.master == p {
		r.master = nil
	}
	p.Close()
}

// OnPeerError implements peer.Lifecycle: a stream error/EOF on the read
// half. Clears master if the erroring peer was master, emits PortError (if
// err is non-nil) or PortClosed to the application handler, and removes
// the peer so the next sweep is a no-op for it (it is dropped immediately
// here rather than waiting for the sweep, since its LastActivity is
// already zeroed).
func (r *Registry) OnPeerError(p *peer.Peer, err error) {
	if r.master == p {
		r.master = nil
	}
	if err != nil {
		r.notify(p, "PortError", err)
	} else {
		r.notify(p, "PortClosed", nil)
	}
	r.remove(p)
}

// OnPeerClosed implements peer.Lifecycle for an explicit Close() call.
func (r *Registry) OnPeerClosed(p *peer.Peer) {
	if r.master == p {
		r.master = nil
	}
	r.remove(p)
}

func (r *Registry) remove(p *peer.Peer) {
	for i, q := range r.peers {
		if q == p {
			r.peers = append(r.peers[:i], r.peers[i+1:]...)
			return
		}
	}
}

// Shutdown cancels the expiry timer and closes every peer, used by
// EndDiscoverability. Peers are closed one after another on the calling
// goroutine, then their read goroutines are awaited concurrently; Shutdown
// does not return until every one has actually exited, so a caller that
// follows Shutdown with BeginDiscoverability never races a straggling peer
// against the next connection it accepts.
func (r *Registry) Shutdown() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.master = nil
	peers := append([]*peer.Peer(nil), r.peers...)
	for _, p := range peers {
		p.Close()
	}
	var g errgroup.Group
	for _, p := range peers {
		p := p
		g.Go(func() error {
			p.Wait()
			return nil
		})
	}
	_ = g.Wait()
	r.peers = nil
}
