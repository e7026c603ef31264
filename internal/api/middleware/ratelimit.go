package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mcoot/redblue/internal/api/apierr"
	"github.com/mcoot/redblue/internal/metrics"
	"github.com/mcoot/redblue/internal/ratelimit"
)

// RateLimit rejects clients that exceed limiter's window for route with 429
func RateLimit(limiter ratelimit.Limiter, route string, ips *IPResolver, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), route, ips.ClientIP(r)) {
				m.RateLimited(route)
				apierr.WriteError(w, apierr.NewRateLimitedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPResolver finds the client address of a request. X-Forwarded-For is only
// read when the peer is a trusted proxy.
type IPResolver struct {
	trusted []netip.Prefix
}

// NewIPResolver creates a resolver trusting the given proxy ranges. With none,
// the peer address is always used.
func NewIPResolver(trusted []netip.Prefix) *IPResolver {
	return &IPResolver{trusted: trusted}
}

// ClientIP returns the peer address or, behind trusted proxies, the nearest
// X-Forwarded-For hop that is not itself trusted. A nil resolver trusts nobody.
func (r *IPResolver) ClientIP(req *http.Request) string {
	peer := remoteHost(req)
	if r == nil || !r.isTrusted(peer) {
		return peer
	}

	// Proxies append, so walk from the right
	hops := strings.Split(strings.Join(req.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			// A malformed hop cannot be trusted to name anyone further left
			return peer
		}
		if !r.isTrusted(hop) {
			return hop
		}
	}
	return peer
}

func (r *IPResolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range r.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
