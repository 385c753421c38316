// Package sequence issues unique, ordered, human-readable identifiers
// such as patient numbers and bill numbers. Each named sequence
// continues from a configured starting value so legacy numbering is
// preserved.
package sequence

import (
	"context"
	"fmt"
	"strconv"
)

// Spec configures one named sequence.
type Spec struct {
	Name   string
	Start  int64
	Prefix string
}

// Repo performs the atomic counter increment. Implementations must
// guarantee that two racing calls for the same name never observe the
// same value.
type Repo interface {
	// NextValue atomically increments the counter for name and
	// returns the new value. A counter that does not exist yet is
	// created at start.
	NextValue(ctx context.Context, name string, start int64) (int64, error)

	// Seed raises the counter for name to at least value without
	// ever lowering an existing counter.
	Seed(ctx context.Context, name string, value int64) (int64, error)
}

// Allocator formats identifiers from atomically allocated counter
// values.
type Allocator struct {
	repo  Repo
	specs map[string]Spec
}

// NewAllocator creates an allocator over the given sequence specs.
func NewAllocator(repo Repo, specs ...Spec) *Allocator {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return &Allocator{repo: repo, specs: m}
}

// Next allocates the next identifier for the named sequence. The
// identifier is the prefix immediately followed by the integer, with
// no padding; with an empty prefix it is the bare integer.
func (a *Allocator) Next(ctx context.Context, name string) (string, error) {
	spec, ok := a.specs[name]
	if !ok {
		return "", fmt.Errorf("unknown sequence %q", name)
	}

	value, err := a.repo.NextValue(ctx, name, spec.Start)
	if err != nil {
		return "", fmt.Errorf("allocate %s: %w", name, err)
	}

	if spec.Prefix == "" {
		return strconv.FormatInt(value, 10), nil
	}
	return spec.Prefix + strconv.FormatInt(value, 10), nil
}

// Seed raises the named counter so numbering continues past value.
// Used when taking over numbering from historical records; a counter
// already ahead of value stays where it is.
func (a *Allocator) Seed(ctx context.Context, name string, value int64) (int64, error) {
	if _, ok := a.specs[name]; !ok {
		return 0, fmt.Errorf("unknown sequence %q", name)
	}
	v, err := a.repo.Seed(ctx, name, value)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", name, err)
	}
	return v, nil
}
