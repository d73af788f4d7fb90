package engine

import (
	"context"
	"net"
	"sync"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/logging"
)

// hostRestriction implements discovery.HostMatcher and control.HostMatcher.
// A literal IPv4 restriction resolves synchronously; a hostname restriction
// resolves asynchronously on a goroutine that posts its result back onto the
// controller's loop, replacing the original's manual retain/release dance
// around an in-flight resolver callback with ordinary Go reference
// semantics (the goroutine simply closes over the controller until it
// returns).
type hostRestriction struct {
	mu       sync.RWMutex
	resolved []net.IP
	pending  bool

	loop     *Loop
	resolver *net.Resolver
}

func newHostRestriction(loop *Loop) *hostRestriction {
	return &hostRestriction{loop: loop, resolver: net.DefaultResolver}
}

// Refresh re-evaluates the restriction from the current configuration,
// resolving names in the background per §4.E/§5 ("best-effort, re-resolves
// on every accept and probe" is relaxed here to a single background refresh
// triggered whenever configuration changes, so nothing is re-resolved per
// packet; see Allowed for what happens while a lookup is pending).
func (h *hostRestriction) Refresh(opts *config.Options) {
	host := opts.RestrictToSpecifiedHost
	if host == "" {
		h.mu.Lock()
		h.resolved = nil
		h.pending = false
		h.mu.Unlock()
		return
	}
	if ip := net.ParseIP(host); ip != nil {
		h.mu.Lock()
		h.resolved = []net.IP{ip}
		h.pending = false
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	h.pending = true
	h.mu.Unlock()

	go func() {
		addrs, err := h.resolver.LookupIPAddr(context.Background(), host)
		if err != nil {
			logging.DebugError("discovery", "resolving restrict_to_specified_host", err)
			h.loop.Post(func() {
				h.mu.Lock()
				h.resolved = nil
				h.pending = false
				h.mu.Unlock()
			})
			return
		}
		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			if v4 := a.IP.To4(); v4 != nil {
				ips = append(ips, v4)
			}
		}
		h.loop.Post(func() {
			h.mu.Lock()
			h.resolved = ips
			h.pending = false
			h.mu.Unlock()
		})
	}()
}

// Allowed implements discovery.HostMatcher and control.HostMatcher. While a
// name resolution is pending, nothing is allowed: a connection or probe
// that arrives before the lookup completes is rejected, not held until it
// completes. After a failed lookup no restriction is in force.
func (h *hostRestriction) Allowed(addr net.IP) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.resolved == nil && !h.pending {
		return true // no restriction configured
	}
	for _, ip := range h.resolved {
		if ip.Equal(addr) {
			return true
		}
	}
	return false
}

// ResolvedTargets implements discovery.HostMatcher for announcement/reply
// destination selection.
func (h *hostRestriction) ResolvedTargets() ([]net.IP, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.resolved == nil && !h.pending {
		return nil, false
	}
	out := make([]net.IP, len(h.resolved))
	copy(out, h.resolved)
	return out, true
}
