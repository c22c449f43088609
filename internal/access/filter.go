// Package access admits only peers on the local network.
package access

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"go.uber.org/zap"
)

// IsPrivate reports whether addr is loopback or in a private-use block:
// 10/8, 172.16/12, 192.168/16 and fc00::/7.
func IsPrivate(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}

// Filter decides whether a remote peer may use the service
type Filter struct {
	extra  []netip.Prefix
	logger *zap.Logger
}

// NewFilter creates a filter that admits private-range addresses plus the
// given CIDR blocks.
func NewFilter(allowedNetworks []string, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Filter{logger: logger.Named("access")}
	for _, cidr := range allowedNetworks {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed network %q: %w", cidr, err)
		}
		f.extra = append(f.extra, prefix.Masked())
	}
	return f, nil
}

// AdmitAddr reports whether addr is allowed
func (f *Filter) AdmitAddr(addr netip.Addr) bool {
	if IsPrivate(addr) {
		return true
	}
	addr = addr.Unmap()
	for _, prefix := range f.extra {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// Admit reports whether the peer at remoteAddr ("ip:port", as found in
// http.Request.RemoteAddr) is allowed. Unparseable addresses are rejected.
func (f *Filter) Admit(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	// Zone identifiers ("fe80::1%eth0") are not part of the address
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return f.AdmitAddr(addr)
}

// Middleware rejects non-local peers before next runs. A rejected request
// never reaches a WebSocket upgrade.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.Admit(r.RemoteAddr) {
			f.logger.Warn("rejected non-local peer",
				zap.String("remote", r.RemoteAddr),
				zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
