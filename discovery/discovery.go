// Package discovery implements the UDP discovery responder (§4.E): device
// probes, NTP-echo, and EnumerateDevices announcements/replies.
package discovery

import (
	"net"
	"strings"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/logging"
)

const (
	RequestPort = 10002
	ReplyPort   = 10004
)

var ntpEchoPrefix = []byte{0x0A, 0x00, 'N', 'T', 'P', ' ', 'E', 'c', 'h', 'o'}

// HostMatcher answers whether addr is a permitted peer under the current
// restrict_to_specified_host setting, including asynchronously resolved
// names (§4.E, §5).
type HostMatcher interface {
	Allowed(addr net.IP) bool
	// ResolvedTargets returns the concrete addresses an announcement or
	// restricted reply should be unicast to when a hostname restriction is
	// active. Returns ok=false when no restriction applies.
	ResolvedTargets() (addrs []net.IP, ok bool)
}

// Responder owns the discovery-request UDP socket.
type Responder struct {
	Options  *config.Options
	Hosts    HostMatcher
	DeviceID int32

	conn *ipv4.PacketConn
	raw  *net.UDPConn
}

func NewResponder(opts *config.Options, hosts HostMatcher, deviceID int32) *Responder {
	return &Responder{Options: opts, Hosts: hosts, DeviceID: deviceID}
}

// Open binds the discovery-request socket with packet-info enabled so the
// inbound datagram's destination address can be recovered for reply
// source-address selection.
func (r *Responder) Open() error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: RequestPort})
	if err != nil {
		return err
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true); err != nil {
		conn.Close()
		return err
	}
	r.raw = conn
	r.conn = pc
	return nil
}

// Close invalidates the discovery socket, which guarantees no further
// Serve callbacks fire (§5 cancellation).
func (r *Responder) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

// Serve reads datagrams until the socket is closed or errors. Each
// recognized payload is handled by posting a closure onto post so the
// controller's single loop goroutine runs the reaction.
func (r *Responder) Serve(post func(func())) {
	buf := make([]byte, 2048)
	for {
		n, cm, src, err := r.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		udpSrc, _ := src.(*net.UDPAddr)
		var dst net.IP
		if cm != nil {
			dst = cm.Dst
		}
		post(func() { r.handle(data, udpSrc, dst) })
	}
}

func (r *Responder) handle(data []byte, src *net.UDPAddr, dst net.IP) {
	if src == nil {
		return
	}
	if r.Hosts != nil && !r.Hosts.Allowed(src.IP) {
		logging.DebugLog("discovery", "probe from %s rejected by host restriction", src)
		return
	}
	switch {
	case len(data) >= 10 && string(data[:10]) == string(ntpEchoPrefix):
		r.echo(data, src)
	case len(data) >= 6 && string(data[:6]) == "?edev\r":
		r.reply(src, dst, false)
	}
}

func (r *Responder) echo(data []byte, src *net.UDPAddr) {
	if _, err := r.conn.WriteTo(data, nil, src); err != nil {
		logging.DebugError("discovery", "ntp echo", err)
	}
}

// Announce sends an unsolicited EnumerateDevices notification to every
// address the current restriction and interface set resolves to.
func (r *Responder) Announce() {
	r.reply(nil, nil, true)
}

// reply implements the §4.E destination-selection algorithm. src is the
// requester (nil for a broadcast announcement); dst is the inbound packet's
// recovered destination (nil for an announcement).
func (r *Responder) reply(src *net.UDPAddr, dst net.IP, announce bool) {
	msg := buildEnumerateDevices(r.DeviceID, r.Options, announce)

	if r.Hosts != nil {
		if targets, ok := r.Hosts.ResolvedTargets(); ok {
			for _, ip := range targets {
				r.unicast(msg, &net.UDPAddr{IP: ip, Port: ReplyPort}, dst)
			}
			return
		}
	}

	if r.Options.LocalInterfaceAddress != "" || src == nil {
		r.broadcastViaInterfaces(msg, dst)
		return
	}

	r.unicast(msg, &net.UDPAddr{IP: src.IP, Port: ReplyPort}, dst)
}

// unicast sends a single reply on a fresh socket explicitly bound to srcIP
// before send: the packet-info-recovered source hint has no effect on an
// unbound socket, so the bind has to happen first (§4.E).
func (r *Responder) unicast(msg []byte, dest *net.UDPAddr, srcIP net.IP) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: srcIP, Port: 0})
	if err != nil {
		logging.DebugError("discovery", "unicast reply bind", err)
		return
	}
	defer conn.Close()
	if _, err := conn.WriteToUDP(msg, dest); err != nil {
		logging.DebugError("discovery", "unicast reply write", err)
	}
}

// broadcastViaInterfaces enumerates IPv4, up, non-loopback, non-cellular
// interfaces and sends one broadcast reply sourced from each matching one.
func (r *Responder) broadcastViaInterfaces(msg []byte, dst net.IP) {
	ifaces, err := net.Interfaces()
	if err != nil {
		logging.DebugError("discovery", "interface enumeration", err)
		return
	}
	want := r.Options.LocalInterfaceAddress
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if strings.HasPrefix(ifi.Name, "pdp") {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if dst != nil && !dst.Equal(ip4) {
				continue
			}
			if want != "" && want != ip4.String() {
				continue
			}
			r.sendBroadcastFrom(msg, ip4)
		}
	}
}

// sendBroadcastFrom binds a fresh socket to src and broadcasts msg to
// 255.255.255.255:10004, matching the source-must-be-bound-before-send
// requirement noted in §4.E.
func (r *Responder) sendBroadcastFrom(msg []byte, src net.IP) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: src, Port: 0})
	if err != nil {
		logging.DebugError("discovery", "broadcast bind", err)
		return
	}
	defer conn.Close()

	if err := setBroadcast(conn); err != nil {
		logging.DebugError("discovery", "SO_BROADCAST", err)
		return
	}

	dest := &net.UDPAddr{IP: net.IPv4bcast, Port: ReplyPort}
	if _, err := conn.WriteToUDP(msg, dest); err != nil {
		logging.DebugError("discovery", "broadcast write", err)
	}
}

func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
