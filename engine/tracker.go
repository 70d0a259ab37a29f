package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/optionspicker/internal/log"
	"github.com/nathoo/optionspicker/types"
)

// HistoryCapacity is the number of most recent selections kept.
const HistoryCapacity = 20

// Drawer is the part of the registry the tracker depends on.
type Drawer interface {
	Draw() (types.SelectionResult, error)
	Options() []types.Option
}

// Delays are the two presentation pauses around a draw.
type Delays struct {
	Start  time.Duration // before drawing, so a "starting" signal can show
	Result time.Duration // after drawing, so the result can play out
}

// DefaultDelays matches the wheel animation timing.
var DefaultDelays = Delays{Start: 100 * time.Millisecond, Result: time.Second}

// Tracker guards draws against re-entrancy and records their outcomes.
// Draw may run on another goroutine than the readers of history and counts.
type Tracker struct {
	drawer Drawer
	delays Delays

	selecting atomic.Bool

	mu      sync.Mutex
	history []types.SelectionResult
	counts  map[string]int

	onSelection []func(types.SelectionResult)
	onSelecting []func(bool)
}

// NewTracker creates a tracker drawing from d.
func NewTracker(d Drawer, delays Delays) *Tracker {
	return &Tracker{
		drawer:  d,
		delays:  delays,
		history: make([]types.SelectionResult, 0, HistoryCapacity),
		counts:  map[string]int{},
	}
}

// OnSelection registers fn to run after each completed draw.
func (t *Tracker) OnSelection(fn func(types.SelectionResult)) {
	t.onSelection = append(t.onSelection, fn)
}

// OnSelecting registers fn to run whenever the in-progress flag flips.
func (t *Tracker) OnSelecting(fn func(bool)) {
	t.onSelecting = append(t.onSelecting, fn)
}

// IsSelecting reports whether a draw is in progress.
func (t *Tracker) IsSelecting() bool {
	return t.selecting.Load()
}

// Draw performs one guarded weighted selection. A second call while one is
// outstanding fails with ErrConcurrentDraw. The in-progress flag is cleared
// and observers notified on every return path, cancellation included.
func (t *Tracker) Draw(ctx context.Context) (types.SelectionResult, error) {
	if !t.selecting.CompareAndSwap(false, true) {
		log.Debug(ctx, "draw rejected, another is in progress")
		return types.SelectionResult{}, types.ErrConcurrentDraw
	}
	t.notifySelecting(true)
	defer func() {
		t.selecting.Store(false)
		t.notifySelecting(false)
	}()

	if err := sleep(ctx, t.delays.Start); err != nil {
		return types.SelectionResult{}, err
	}

	result, err := t.drawer.Draw()
	if err != nil {
		return types.SelectionResult{}, err
	}
	t.record(result)

	log.Debug(ctx, "option selected",
		zap.String("option", result.Option.Name),
		zap.Float64("roll", result.RandomValue),
		zap.Float64("total_weight", result.TotalWeight),
		zap.Int("total_options", result.TotalOptions),
	)

	if err := sleep(ctx, t.delays.Result); err != nil {
		return types.SelectionResult{}, err
	}

	for _, fn := range t.onSelection {
		fn(result)
	}
	return result, nil
}

func (t *Tracker) record(result types.SelectionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, result)
	if len(t.history) > HistoryCapacity {
		t.history = append(t.history[:0], t.history[len(t.history)-HistoryCapacity:]...)
	}
	t.counts[result.Option.Name]++
}

func (t *Tracker) notifySelecting(v bool) {
	for _, fn := range t.onSelecting {
		fn(v)
	}
}

// History returns the recorded selections, oldest first.
func (t *Tracker) History() []types.SelectionResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.SelectionResult, len(t.history))
	copy(out, t.history)
	return out
}

// Last returns the most recent selection.
func (t *Tracker) Last() (types.SelectionResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return types.SelectionResult{}, false
	}
	return t.history[len(t.history)-1], true
}

// Counts returns a snapshot of cumulative selections per option name.
func (t *Tracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// ClearHistory empties the history. Counts are kept.
func (t *Tracker) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = t.history[:0]
}

// ResetStatistics empties both the history and the counts.
func (t *Tracker) ResetStatistics() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = t.history[:0]
	t.counts = map[string]int{}
}

// Fairness scores each current option as the absolute difference between
// its expected and observed share, in percentage points. Lower is fairer.
// The observed share divides the cumulative count by the history length.
func (t *Tracker) Fairness() map[string]float64 {
	t.mu.Lock()
	entries := len(t.history)
	counts := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	t.mu.Unlock()

	fairness := map[string]float64{}
	if entries == 0 {
		return fairness
	}

	options := t.drawer.Options()
	total := 0.0
	for _, o := range options {
		total += o.Weight
	}
	for _, o := range options {
		expected := o.Weight / total * 100
		actual := float64(counts[o.Name]) / float64(entries) * 100
		fairness[o.Name] = math.Abs(expected - actual)
	}
	return fairness
}

// sleep waits for d or until ctx is done. It checks ctx even when d is zero.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
