package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PatentCacheHits       uint64
	PatentCacheMisses     uint64
	SearchDurationCount   uint64
	SearchDurationTotalNs int64
	RateLimitRejections   uint64
	ProviderFailures      uint64
	PlatformFailures      uint64
	SessionsBridged       uint64
	MagicLinksRedeemed    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	patentCacheHits       uint64
	patentCacheMisses     uint64
	searchDurationCount   uint64
	searchDurationTotalNs int64
	rateLimitRejections   uint64
	providerFailures      uint64
	platformFailures      uint64
	sessionsBridged       uint64
	magicLinksRedeemed    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PatentCacheHits:       atomic.LoadUint64(&m.patentCacheHits),
		PatentCacheMisses:     atomic.LoadUint64(&m.patentCacheMisses),
		SearchDurationCount:   atomic.LoadUint64(&m.searchDurationCount),
		SearchDurationTotalNs: atomic.LoadInt64(&m.searchDurationTotalNs),
		RateLimitRejections:   atomic.LoadUint64(&m.rateLimitRejections),
		ProviderFailures:      atomic.LoadUint64(&m.providerFailures),
		PlatformFailures:      atomic.LoadUint64(&m.platformFailures),
		SessionsBridged:       atomic.LoadUint64(&m.sessionsBridged),
		MagicLinksRedeemed:    atomic.LoadUint64(&m.magicLinksRedeemed),
	}
}

// IncPatentCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncPatentCacheHit() {
	atomic.AddUint64(&m.patentCacheHits, 1)
}

// IncPatentCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncPatentCacheMiss() {
	atomic.AddUint64(&m.patentCacheMisses, 1)
}

// ObserveSearchDuration records a proxied search duration.
func (m *InMemoryRecorder) ObserveSearchDuration(duration time.Duration) {
	atomic.AddUint64(&m.searchDurationCount, 1)
	atomic.AddInt64(&m.searchDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimitRejection increments the quota rejection counter.
func (m *InMemoryRecorder) IncRateLimitRejection() {
	atomic.AddUint64(&m.rateLimitRejections, 1)
}

// IncUpstreamFailure increments the failure counter for an upstream.
func (m *InMemoryRecorder) IncUpstreamFailure(upstream string) {
	switch upstream {
	case "provider":
		atomic.AddUint64(&m.providerFailures, 1)
	case "platform":
		atomic.AddUint64(&m.platformFailures, 1)
	}
}

// IncSessionBridged increments the session bridge counter.
func (m *InMemoryRecorder) IncSessionBridged() {
	atomic.AddUint64(&m.sessionsBridged, 1)
}

// IncMagicLinkRedeemed increments the magic-link redemption counter.
func (m *InMemoryRecorder) IncMagicLinkRedeemed() {
	atomic.AddUint64(&m.magicLinksRedeemed, 1)
}
