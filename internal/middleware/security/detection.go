package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"financeiro/internal/log"
)

const (
	maxURLLength = 2048
	maxProxyHops = 5
)

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
	oddMethods    = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

	privateNets = []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"}
)

// DetectionMetrics is exposed on /metrics.
type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Detector counts requests that look like scans and works out the client
// address, trusting forwarding headers only from known proxies.
type Detector struct {
	flagged atomic.Int64
	proxies []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range privateNets {
		d.proxies = append(d.proxies, netip.MustParsePrefix(cidr))
	}
	return d
}

// AddTrustedProxy trusts forwarding headers sent from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("trusted proxy %q: %w", cidr, err)
	}
	d.proxies = append(d.proxies, p.Masked())
	return nil
}

// DetectSuspiciousRequest counts r when it looks like a probe. Nothing is
// blocked.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if !looksLikeProbe(r) {
		return false
	}
	d.flagged.Add(1)
	return true
}

func looksLikeProbe(r *http.Request) bool {
	if slices.Contains(oddMethods, r.Method) || len(r.URL.String()) > maxURLLength {
		return true
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxProxyHops {
		return true
	}

	target := strings.ToLower(r.URL.Path)
	q := strings.ToLower(r.URL.RawQuery)
	if plain, err := url.QueryUnescape(q); err == nil {
		q = plain
	}
	target += "?" + q
	for _, frag := range probeFragments {
		if strings.Contains(target, frag) {
			return true
		}
	}

	ua := strings.ToLower(r.UserAgent())
	return slices.ContainsFunc(scannerAgents, func(a string) bool {
		return strings.Contains(ua, a)
	})
}

// ExtractClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !d.trusted(peer) {
		return peer
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		candidate = strings.TrimSpace(candidate)
		if _, err := netip.ParseAddr(candidate); err == nil {
			return candidate
		}
	}
	return peer
}

func (d *Detector) trusted(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	return slices.ContainsFunc(d.proxies, func(p netip.Prefix) bool {
		return p.Contains(ip)
	})
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{SuspiciousRequests: d.flagged.Load()}
}

// Middleware logs suspicious requests and lets them through.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).WarnContext(r.Context(), "Suspicious request",
				log.NewFields().
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
					WithClientIP(d.ExtractClientIP(r)).ToSlice()...)
		}
		next.ServeHTTP(w, r)
	})
}
