package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/optionspicker/types"
)

// Registry owns an ordered set of options with case-insensitive unique
// names. It is not safe for concurrent mutation; callers serialize access.
type Registry struct {
	options []types.Option
	rng     Source
	now     func() time.Time
}

// NewRegistry creates an empty registry drawing from rng.
func NewRegistry(rng Source) *Registry {
	return &Registry{
		rng: rng,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Options returns a copy of the options in insertion order.
func (r *Registry) Options() []types.Option {
	out := make([]types.Option, len(r.options))
	copy(out, r.options)
	return out
}

// Len returns the number of options.
func (r *Registry) Len() int {
	return len(r.options)
}

// TotalWeight returns the sum of all option weights.
func (r *Registry) TotalWeight() float64 {
	total := 0.0
	for _, o := range r.options {
		total += o.Weight
	}
	return total
}

// Add appends an option. Names collide case-insensitively.
func (r *Registry) Add(o types.Option) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if r.Contains(o.Name) {
		return fmt.Errorf("%w: %q already exists", types.ErrDuplicateName, o.Name)
	}
	r.options = append(r.options, o)
	return nil
}

// Remove deletes the option with the given ID. It reports whether an
// option was removed; an unknown ID is not an error.
func (r *Registry) Remove(id uuid.UUID) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.options = append(r.options[:i], r.options[i+1:]...)
	return true
}

// Update replaces the option sharing o.ID, keeping its position.
func (r *Registry) Update(o types.Option) error {
	if err := o.Validate(); err != nil {
		return err
	}
	i := r.indexOf(o.ID)
	if i < 0 {
		return fmt.Errorf("%w: id %s", types.ErrNotFound, o.ID)
	}
	for _, other := range r.options {
		if other.ID != o.ID && strings.EqualFold(other.Name, o.Name) {
			return fmt.Errorf("%w: %q already exists", types.ErrDuplicateName, o.Name)
		}
	}
	r.options[i] = o
	return nil
}

// Get returns the option with the given ID.
func (r *Registry) Get(id uuid.UUID) (types.Option, bool) {
	i := r.indexOf(id)
	if i < 0 {
		return types.Option{}, false
	}
	return r.options[i], true
}

// Find returns the option whose name matches case-insensitively.
func (r *Registry) Find(name string) (types.Option, bool) {
	name = strings.TrimSpace(name)
	for _, o := range r.options {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return types.Option{}, false
}

// Contains reports whether an option with a case-insensitively equal name exists.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Find(name)
	return ok
}

// Clear removes every option.
func (r *Registry) Clear() {
	r.options = nil
}

// Draw picks one option with probability proportional to its weight.
func (r *Registry) Draw() (types.SelectionResult, error) {
	if len(r.options) == 0 {
		return types.SelectionResult{}, types.ErrEmptyCollection
	}

	weights := make([]float64, len(r.options))
	total := 0.0
	for i, o := range r.options {
		weights[i] = o.Weight
		total += o.Weight
	}

	idx, roll := r.rng.WeightedSelect(weights)
	chosen := r.options[idx]

	return types.SelectionResult{
		Option:       chosen,
		Time:         r.now(),
		RandomValue:  roll,
		TotalOptions: len(r.options),
		TotalWeight:  total,
	}, nil
}

func (r *Registry) indexOf(id uuid.UUID) int {
	for i, o := range r.options {
		if o.ID == id {
			return i
		}
	}
	return -1
}
