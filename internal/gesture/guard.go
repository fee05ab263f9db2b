package gesture

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Source names a gesture source competing for the bearing.
type Source string

const (
	SourceDrag     Source = "drag"
	SourceTouch    Source = "touch"
	SourceCompass  Source = "compass"
	SourceShiftKey Source = "shiftKey"
)

// Guard lets at most one gesture source drive the bearing at a time.
// A holder that shows no activity for longer than the timeout is considered
// abandoned and loses the guard to the next source that asks.
type Guard struct {
	active   Source
	lastSeen time.Time
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
	rejected metric.Int64Counter
}

// NewGuard creates a free guard. A zero timeout never expires a holder.
func NewGuard(timeout time.Duration, now func() time.Time, logger *slog.Logger) *Guard {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	rejected, err := meter().Int64Counter(
		"gesture.guard.rejected",
		metric.WithDescription("Gesture starts rejected because another source was active"),
	)
	if err != nil {
		logger.Warn("failed to create guard counter", "error", err)
	}
	return &Guard{timeout: timeout, now: now, logger: logger, rejected: rejected}
}

// Acquire claims the guard for s. Re-acquiring by the current holder resets
// its session and always succeeds.
func (g *Guard) Acquire(s Source) bool {
	now := g.now()
	switch {
	case g.active == "" || g.active == s:
	case g.timeout > 0 && now.Sub(g.lastSeen) >= g.timeout:
		g.logger.Debug("releasing stale gesture", "source", g.active, "claimedBy", s, "idle", now.Sub(g.lastSeen))
	default:
		if g.rejected != nil {
			g.rejected.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("source", string(s)),
				attribute.String("holder", string(g.active)),
			))
		}
		return false
	}
	g.active = s
	g.lastSeen = now
	return true
}

// Touch records activity by s. It returns false when s no longer holds the guard.
func (g *Guard) Touch(s Source) bool {
	if g.active != s {
		return false
	}
	g.lastSeen = g.now()
	return true
}

// Release frees the guard if s holds it.
func (g *Guard) Release(s Source) {
	if g.active == s {
		g.active = ""
	}
}

// Active returns the current holder, or "" when free.
func (g *Guard) Active() Source {
	return g.active
}
