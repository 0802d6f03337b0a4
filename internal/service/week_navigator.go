package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/timetable"
)

// WeekNavigator serializes previous/next week navigation for one view. It
// is a mutual-exclusion latch, not a queue: a navigation request arriving
// while one is in flight is dropped. A generation counter guards against a
// stale load landing after the view has been reset or re-anchored.
type WeekNavigator struct {
	mu     sync.Mutex
	busy   bool
	gen    uint64
	anchor time.Time
	logger *zap.Logger
}

// NewWeekNavigator anchors a navigator at the week containing start.
func NewWeekNavigator(start time.Time, logger *zap.Logger) *WeekNavigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeekNavigator{anchor: timetable.StartOfWeek(start), logger: logger}
}

// Anchor returns the Monday of the currently displayed week.
func (n *WeekNavigator) Anchor() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.anchor
}

// Shift moves the anchor by deltaWeeks and runs load with the target week.
// It returns false when the request was dropped because a navigation was
// already in flight or its result went stale. The anchor only advances
// after load succeeds, so a failed load leaves the view on the last
// known-good week.
func (n *WeekNavigator) Shift(ctx context.Context, deltaWeeks int, load func(context.Context, time.Time) error) (bool, error) {
	n.mu.Lock()
	if n.busy {
		n.mu.Unlock()
		n.logger.Debug("week navigation dropped, one already in flight")
		return false, nil
	}
	n.busy = true
	n.gen++
	gen := n.gen
	target := n.anchor.AddDate(0, 0, 7*deltaWeeks)
	n.mu.Unlock()

	err := load(ctx, target)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.busy = false
	if gen != n.gen {
		// The view was re-anchored while the load was pending; the result
		// is discarded rather than the request having been aborted.
		n.logger.Debug("week navigation result discarded as stale")
		return false, nil
	}
	if err != nil {
		return true, err
	}
	n.anchor = target
	return true, nil
}

// Reset jumps the navigator to the week containing anchor and invalidates
// any in-flight navigation result.
func (n *WeekNavigator) Reset(anchor time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	n.anchor = timetable.StartOfWeek(anchor)
}
