package discovery

import (
	"net"
	"testing"
	"time"
)

func TestUnicastBindsToGivenSourceBeforeSend(t *testing.T) {
	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	r := &Responder{}
	dest := listener.LocalAddr().(*net.UDPAddr)
	srcIP := net.IPv4(127, 0, 0, 1)

	r.unicast([]byte("hello"), dest, srcIP)

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, from, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("payload = %q, want %q", buf[:n], "hello")
	}
	if !from.IP.Equal(srcIP) {
		t.Errorf("source IP = %v, want %v", from.IP, srcIP)
	}
}
