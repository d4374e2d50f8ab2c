package stream

import (
	"net"
	"net/http"
	"sync"
)

// connLimiter caps concurrent feed connections per client IP and overall.
type connLimiter struct {
	mu       sync.Mutex
	conns    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newConnLimiter(maxPerIP, maxTotal int) *connLimiter {
	return &connLimiter{conns: make(map[string]int), maxPerIP: maxPerIP, maxTotal: maxTotal}
}

func (l *connLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total >= l.maxTotal || l.conns[ip] >= l.maxPerIP {
		return false
	}
	l.conns[ip]++
	l.total++
	return true
}

func (l *connLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[ip]--
	l.total--
	if l.conns[ip] <= 0 {
		delete(l.conns, ip)
	}
}

func (l *connLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conns[ip]
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
