package antispam

import (
	"context"
	"time"

	"dieselhub/internal/metrics"

	"github.com/rs/zerolog/log"
)

// NoDeviceKey is the device part of the key when the client sent no device id.
// All anonymous devices behind one IP share a bucket.
const NoDeviceKey = "no-device"

// Gate decides whether an order submission must pass a challenge first
type Gate struct {
	store     AttemptStore
	threshold int
	window    time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewGate creates a gate that challenges once threshold attempts fall inside window
func NewGate(store AttemptStore, threshold int, window time.Duration, m *metrics.Metrics) *Gate {
	return &Gate{
		store:     store,
		threshold: threshold,
		window:    window,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// AttemptKey builds the store key for an (ip, device) pair
func AttemptKey(ip, deviceID string) string {
	if deviceID == "" {
		deviceID = NoDeviceKey
	}
	return ip + "|" + deviceID
}

// ShouldChallenge prunes the key's attempts to the trailing window and reports
// whether the remaining count has reached the threshold. Store failures are
// logged and treated as no challenge.
func (g *Gate) ShouldChallenge(ctx context.Context, ip, deviceID string) bool {
	key := AttemptKey(ip, deviceID)
	count, err := g.store.Prune(ctx, key, g.now().Add(-g.window))
	if err != nil {
		g.metrics.IncAttemptStoreError()
		log.Error().Err(err).Str("key", key).Msg("Failed to read order attempts")
		return false
	}
	return count >= g.threshold
}

// RecordAttempt appends the current time to the key's attempts
func (g *Gate) RecordAttempt(ctx context.Context, ip, deviceID string) {
	key := AttemptKey(ip, deviceID)
	if err := g.store.Append(ctx, key, g.now()); err != nil {
		g.metrics.IncAttemptStoreError()
		log.Error().Err(err).Str("key", key).Msg("Failed to record order attempt")
	}
}

// Window returns the trailing window length
func (g *Gate) Window() time.Duration {
	return g.window
}
