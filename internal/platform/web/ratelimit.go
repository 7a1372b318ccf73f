// Package web holds HTTP middleware shared by the API server.
package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	cleanupInterval = 1 * time.Minute
	visitorTimeout  = 3 * time.Minute
)

// bucket is one visitor's token-bucket state. Each bucket has its own lock
// so refills for different IPs never contend.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// RateLimiter enforces a per-IP token bucket. Code runs are the only
// expensive endpoint, so the limiter wraps just that handler.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket

	// rate is tokens added per second; capacity is the burst size.
	rate     float64
	capacity float64
}

// NewRateLimiter creates a limiter and starts its background cleanup.
func NewRateLimiter(rate, capacity float64) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
	}

	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) getBucket(ip string) *bucket {
	rl.mu.RLock()
	b, exists := rl.buckets[ip]
	rl.mu.RUnlock()

	if exists {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, exists = rl.buckets[ip]; !exists {
		b = &bucket{
			tokens:     rl.capacity,
			lastRefill: time.Now(),
		}
		rl.buckets[ip] = b
	}

	return b
}

// Allow reports whether the IP may make another request, refilling its
// bucket lazily from the elapsed time.
func (rl *RateLimiter) Allow(ip string) bool {
	b := rl.getBucket(ip)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if refill := elapsed * rl.rate; refill > 0 {
		b.tokens += refill
		if b.tokens > rl.capacity {
			b.tokens = rl.capacity
		}
		b.lastRefill = now
	}

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}

	return false
}

// cleanupVisitors drops idle buckets so the map does not grow forever.
func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(cleanupInterval)

		rl.mu.Lock()
		for ip, b := range rl.buckets {
			b.mu.Lock()
			if time.Since(b.lastRefill) > visitorTimeout {
				delete(rl.buckets, ip)
			}
			b.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

// Middleware wraps an http.HandlerFunc to enforce the limit.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip = fwd
		} else if strings.Contains(ip, ":") {
			ip = strings.Split(ip, ":")[0]
		}

		if !rl.Allow(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too Many Requests"})
			return
		}

		next(w, r)
	}
}
