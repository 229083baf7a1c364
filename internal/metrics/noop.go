package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (NoopRecorder) IncPatentCacheHit()                  {}
func (NoopRecorder) IncPatentCacheMiss()                 {}
func (NoopRecorder) ObserveSearchDuration(time.Duration) {}
func (NoopRecorder) IncRateLimitRejection()              {}
func (NoopRecorder) IncUpstreamFailure(string)           {}
func (NoopRecorder) IncSessionBridged()                  {}
func (NoopRecorder) IncMagicLinkRedeemed()               {}
