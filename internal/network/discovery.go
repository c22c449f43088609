// Package network finds the address phones on the LAN should use to reach
// this host.
package network

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"padlink/internal/access"
)

// GetLocalIP returns the address of the interface used for the default route
func GetLocalIP() (string, error) {
	// UDP dial sends no packets; it only resolves the outbound interface
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// GetLocalIPs returns all available local IPv4 addresses
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip = ip.To4()
			if ip == nil {
				continue // not an ipv4 address
			}
			ips = append(ips, ip.String())
		}
	}
	return ips, nil
}

// PreferredIP picks the address to advertise: the first private-range
// interface address, else the default-route address, else loopback.
func PreferredIP() string {
	if ips, err := GetLocalIPs(); err == nil {
		if ip, ok := firstPrivate(ips); ok {
			return ip
		}
	}
	if ip, err := GetLocalIP(); err == nil {
		return ip
	}
	return "127.0.0.1"
}

func firstPrivate(ips []string) (string, bool) {
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			continue
		}
		if access.IsPrivate(addr) && !addr.IsLoopback() {
			return ip, true
		}
	}
	return "", false
}

// ServiceURL formats the URL a client browser should open
func ServiceURL(host string, port int) string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, strconv.Itoa(port)))
}

// AdvertisedHost returns bindHost unless it is a wildcard, in which case
// the preferred LAN address is used.
func AdvertisedHost(bindHost string) string {
	switch bindHost {
	case "", "0.0.0.0", "::", "[::]":
		return PreferredIP()
	}
	return bindHost
}
