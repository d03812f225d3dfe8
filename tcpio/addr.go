package tcpio

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// toSockaddr converts a resolved *net.TCPAddr into the unix.Sockaddr
// the raw socket syscalls expect.
func toSockaddr(addr *net.TCPAddr) (unix.Sockaddr, error) {
	ip := addr.IP
	if ip == nil {
		ip = net.IPv4zero
	}
	if ip4 := ip.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}
	ip16 := ip.To16()
	if ip16 == nil {
		return nil, fmt.Errorf("tcpio: unsupported address %v", addr)
	}
	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	copy(sa.Addr[:], ip16)
	return &sa, nil
}

// sockaddrToAddr converts an accepted peer's unix.Sockaddr back into a
// *net.TCPAddr for callers.
func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(s.Addr[:]), Port: s.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(s.Addr[:]), Port: s.Port}
	default:
		return nil
	}
}
