package timezone

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ZoneProvider reports the IANA zone name the remote calendar is configured
// with. Gateway adapters satisfy this.
type ZoneProvider interface {
	Timezone(ctx context.Context) (string, error)
}

// Normalizer resolves the calendar's zone once, caches it, and converts
// timestamps into it. Until detection succeeds it answers with UTC, which is
// always a safe default; a failed detection is logged and retried on the next
// access rather than surfaced to the caller.
type Normalizer struct {
	provider ZoneProvider
	logger   *slog.Logger

	mu       sync.Mutex
	loc      *time.Location
	detected bool
}

func NewNormalizer(provider ZoneProvider, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		provider: provider,
		logger:   logger,
		loc:      time.UTC,
	}
}

// Location returns the calendar's zone, detecting it on first use.
func (n *Normalizer) Location(ctx context.Context) *time.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.detected {
		return n.loc
	}
	n.detectLocked(ctx)
	return n.loc
}

// Refresh forces re-detection, e.g. after the gateway reports a different
// zone than the cached one. Unlike Location it surfaces the failure.
func (n *Normalizer) Refresh(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detected = false
	n.detectLocked(ctx)
	if !n.detected {
		return fmt.Errorf("timezone detection failed")
	}
	return nil
}

func (n *Normalizer) detectLocked(ctx context.Context) {
	name, err := n.provider.Timezone(ctx)
	if err != nil {
		n.logger.Warn("could not detect calendar timezone, using UTC", "error", err)
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		n.logger.Warn("calendar reported unknown timezone, using UTC", "zone", name, "error", err)
		return
	}
	n.loc = loc
	n.detected = true
	n.logger.Info("calendar timezone detected", "zone", name)
}

// ToZoned converts t into loc, preserving the instant.
func ToZoned(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// Layouts accepted by Parse for inputs that carry no zone of their own. A
// naive timestamp is attached to the calendar zone, not converted.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Parse interprets s as a timestamp in loc. Zoned inputs (RFC 3339) are
// converted to loc; naive inputs are attached to it; a bare date resolves to
// midnight in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}
