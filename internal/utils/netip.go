package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the daemon sits behind a proxy.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// StripPort drops a trailing port from "host:port" or "[v6]:port".
func StripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}

// ClientIP is the address a request is attributed to for allow-lists and
// rate limiting. Proxy headers only count when trustProxy is set; a
// forwarded chain is attributed to its left-most hop.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if v = StripPort(strings.TrimSpace(v)); v != "" {
				return v
			}
		}
	}
	return StripPort(r.RemoteAddr)
}

// AddrSet is a set of single addresses and prefixes. Entries that parse as
// neither are skipped.
type AddrSet struct {
	prefixes []netip.Prefix
}

func NewAddrSet(entries []string) *AddrSet {
	s := &AddrSet{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			s.prefixes = append(s.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return s
}

// Len is the number of usable entries.
func (s *AddrSet) Len() int { return len(s.prefixes) }

// Contains reports whether ip falls in any entry. IPv4-mapped IPv6
// addresses match their IPv4 form.
func (s *AddrSet) Contains(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range s.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
