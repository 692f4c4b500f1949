package server

import (
	"sync"
	"time"
)

// RateLimiter implements per-client rate limiting using a sliding window algorithm
// Why sliding window: Prevents burst attacks while allowing consistent legitimate traffic
// Why per-client: One abusive client shouldn't affect others
type RateLimiter struct {
	maxRequests int                    // Maximum requests allowed per window
	window      time.Duration          // Time window for rate limiting
	requests    map[string][]time.Time // clientID -> timestamps of recent requests
	mu          sync.Mutex             // Protects concurrent access to requests map
}

// NewRateLimiter creates a new rate limiter
// maxRequests: number of requests allowed per window
// window: duration of the sliding window (e.g., 20 req/sec)
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow checks if a client is allowed to send a message
// Returns true if allowed, false if rate limited
func (r *RateLimiter) Allow(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	timestamps := r.requests[clientID]

	validTimestamps := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	if len(validTimestamps) >= r.maxRequests {
		r.requests[clientID] = validTimestamps
		return false
	}

	validTimestamps = append(validTimestamps, now)
	r.requests[clientID] = validTimestamps
	return true
}

// RemoveConnection immediately removes rate limit data for a client
// Should be called when a websocket disconnects
func (r *RateLimiter) RemoveConnection(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, clientID)
}

// ConnectionHealth tracks last activity time for each client
// Used for detecting dead/inactive connections
type ConnectionHealth struct {
	lastActivity map[string]time.Time // clientID -> last message time
	mu           sync.RWMutex         // Read-heavy workload, so RWMutex is better
}

// NewConnectionHealth creates a new connection health tracker
func NewConnectionHealth() *ConnectionHealth {
	return &ConnectionHealth{
		lastActivity: make(map[string]time.Time),
	}
}

// UpdateActivity records that a client is active
// Should be called on every message received
func (h *ConnectionHealth) UpdateActivity(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastActivity[clientID] = time.Now()
}

// GetInactiveConnections returns all clients inactive longer than timeout
// Used for batch health reporting
func (h *ConnectionHealth) GetInactiveConnections(timeout time.Duration) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	inactive := make([]string, 0)
	now := time.Now()

	for clientID, lastActivity := range h.lastActivity {
		if now.Sub(lastActivity) > timeout {
			inactive = append(inactive, clientID)
		}
	}

	return inactive
}

// RemoveConnection removes health tracking for a client
// Should be called when websocket disconnects
func (h *ConnectionHealth) RemoveConnection(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lastActivity, clientID)
}
