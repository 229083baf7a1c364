// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Patent cache metrics
	IncPatentCacheHit()
	IncPatentCacheMiss()
	ObserveSearchDuration(duration time.Duration)

	// Quota enforcement metrics
	IncRateLimitRejection()

	// Upstream dependency metrics
	IncUpstreamFailure(upstream string) // upstream: "provider" or "platform"

	// Auth flow metrics
	IncSessionBridged()
	IncMagicLinkRedeemed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
