// Package engine provides the option registry, the weighted draw, and the
// selection tracker, wired together behind the Engine facade that also
// notifies option observers and produces share tokens.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathoo/optionspicker/engine/urlstate"
	"github.com/nathoo/optionspicker/internal/log"
	"github.com/nathoo/optionspicker/types"
)

// Config holds the engine's tunables.
type Config struct {
	Seed   int64 // zero picks a time-based seed
	Delays Delays
}

// Engine owns the registry and tracker. Its methods are safe to call from
// the goroutine running a spin and the one driving the front-end.
type Engine struct {
	RNG     *RNG
	Tracker *Tracker

	mu        sync.Mutex
	registry  *Registry
	observers []func([]types.Option)
}

// New creates an engine with an empty registry.
func New(cfg Config) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := NewRNG(seed)
	e := &Engine{
		RNG:      rng,
		registry: NewRegistry(rng),
	}
	e.Tracker = NewTracker(lockedDrawer{e}, cfg.Delays)
	return e
}

// lockedDrawer lets the tracker draw under the engine lock.
type lockedDrawer struct{ e *Engine }

func (d lockedDrawer) Draw() (types.SelectionResult, error) {
	d.e.mu.Lock()
	defer d.e.mu.Unlock()
	return d.e.registry.Draw()
}

func (d lockedDrawer) Options() []types.Option {
	return d.e.Options()
}

// OnOptionsChanged registers fn to receive the full option list after every
// successful mutation.
func (e *Engine) OnOptionsChanged(fn func([]types.Option)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// mutate runs fn under the lock and, if it succeeds and reports a change,
// notifies observers outside the lock.
func (e *Engine) mutate(fn func(r *Registry) (bool, error)) error {
	e.mu.Lock()
	changed, err := fn(e.registry)
	var snapshot []types.Option
	observers := e.observers
	if err == nil && changed {
		snapshot = e.registry.Options()
	}
	e.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	for _, fn := range observers {
		fn(snapshot)
	}
	return nil
}

// Options returns the current options in order.
func (e *Engine) Options() []types.Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Options()
}

// Len returns the number of options.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Len()
}

// TotalWeight returns the sum of option weights.
func (e *Engine) TotalWeight() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.TotalWeight()
}

// Get returns the option with the given ID.
func (e *Engine) Get(id uuid.UUID) (types.Option, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(id)
}

// Find returns the option whose name matches case-insensitively.
func (e *Engine) Find(name string) (types.Option, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Find(name)
}

// AddOption appends o. Names collide case-insensitively.
func (e *Engine) AddOption(o types.Option) error {
	return e.mutate(func(r *Registry) (bool, error) {
		return true, r.Add(o)
	})
}

// RemoveOption removes by ID. Unknown IDs are ignored and do not notify.
func (e *Engine) RemoveOption(id uuid.UUID) bool {
	removed := false
	_ = e.mutate(func(r *Registry) (bool, error) {
		removed = r.Remove(id)
		return removed, nil
	})
	return removed
}

// RemoveByName removes the option matching name case-insensitively.
func (e *Engine) RemoveByName(name string) (types.Option, error) {
	var removed types.Option
	err := e.mutate(func(r *Registry) (bool, error) {
		o, ok := r.Find(name)
		if !ok {
			return false, fmt.Errorf("%w: %q", types.ErrNotFound, name)
		}
		removed = o
		return r.Remove(o.ID), nil
	})
	return removed, err
}

// UpdateOption replaces the option sharing o's ID, keeping its position.
func (e *Engine) UpdateOption(o types.Option) error {
	return e.mutate(func(r *Registry) (bool, error) {
		return true, r.Update(o)
	})
}

// RenameOption gives the option called name a new name, keeping its ID,
// weight and position.
func (e *Engine) RenameOption(name, newName string) error {
	return e.mutate(func(r *Registry) (bool, error) {
		o, ok := r.Find(name)
		if !ok {
			return false, fmt.Errorf("%w: %q", types.ErrNotFound, name)
		}
		renamed, err := o.WithName(newName)
		if err != nil {
			return false, err
		}
		return true, r.Update(renamed)
	})
}

// ReweightOption changes the weight of the option called name.
func (e *Engine) ReweightOption(name string, weight float64) error {
	return e.mutate(func(r *Registry) (bool, error) {
		o, ok := r.Find(name)
		if !ok {
			return false, fmt.Errorf("%w: %q", types.ErrNotFound, name)
		}
		reweighted, err := o.WithWeight(weight)
		if err != nil {
			return false, err
		}
		return true, r.Update(reweighted)
	})
}

// ReplaceOptions swaps in a new option set. The set is validated in full
// first; on error the current options are left untouched.
func (e *Engine) ReplaceOptions(options []types.Option) error {
	scratch := NewRegistry(e.RNG)
	for _, o := range options {
		if err := scratch.Add(o); err != nil {
			return err
		}
	}
	return e.mutate(func(r *Registry) (bool, error) {
		r.options = scratch.options
		return true, nil
	})
}

// ClearOptions removes every option.
func (e *Engine) ClearOptions() {
	_ = e.mutate(func(r *Registry) (bool, error) {
		r.Clear()
		return true, nil
	})
}

// Token returns the URL state token for the current options.
func (e *Engine) Token() string {
	return urlstate.Serialize(e.Options())
}

// ShareURL returns base with the current token attached.
func (e *Engine) ShareURL(base string) string {
	return urlstate.ShareURL(base, e.Options())
}

// LoadToken replaces the options with those decoded from token. Malformed
// tokens load the default set; it reports whether the token was usable.
func (e *Engine) LoadToken(ctx context.Context, token string) bool {
	options, ok := urlstate.Deserialize(token)
	return e.loadDecoded(ctx, options, ok)
}

// LoadQuery is LoadToken for a raw query string or full URL.
func (e *Engine) LoadQuery(ctx context.Context, raw string) bool {
	options, ok := urlstate.FromQuery(raw)
	return e.loadDecoded(ctx, options, ok)
}

// LoadLink accepts either a bare token or a query string/URL carrying one.
// Tokens never contain a literal '?' or '=', which tells the two apart.
func (e *Engine) LoadLink(ctx context.Context, link string) bool {
	if strings.ContainsAny(link, "?=") {
		return e.LoadQuery(ctx, link)
	}
	return e.LoadToken(ctx, link)
}

func (e *Engine) loadDecoded(ctx context.Context, options []types.Option, ok bool) bool {
	if !ok {
		log.Debug(ctx, "state token unusable, loading defaults")
	}
	if err := e.ReplaceOptions(options); err != nil {
		log.Warn(ctx, "decoded options rejected, loading defaults", zap.Error(err))
		_ = e.ReplaceOptions(urlstate.Defaults())
		return false
	}
	log.Debug(ctx, "options loaded from token", zap.Int("count", len(options)))
	return ok
}

// Spin runs one tracked draw. Its log entries carry a fresh spin ID.
func (e *Engine) Spin(ctx context.Context) (types.SelectionResult, error) {
	ctx = log.With(ctx, zap.String("spin", uuid.NewString()))
	return e.Tracker.Draw(ctx)
}
