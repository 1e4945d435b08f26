package fingerprint

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/cmsfinger/internal/model"
)

// Predicate tests one property of a response's signals.
// Predicates must be pure: no I/O and no shared mutable state.
type Predicate func(model.Signals) bool

// Fingerprint is a named set of predicates combined with OR semantics.
type Fingerprint struct {
	// Name is the CMS name reported when the fingerprint matches.
	Name string

	// Rules are evaluated in order; the first true rule decides.
	Rules []Predicate
}

// Matches reports whether any rule of f holds for s.
// A fingerprint without rules never matches.
func (f Fingerprint) Matches(s model.Signals) bool {
	for _, rule := range f.Rules {
		if rule(s) {
			return true
		}
	}
	return false
}

// Registry is an ordered collection of fingerprints with unique names.
// Enumeration order is registration order. Once populated, a registry is
// safe for concurrent use by multiple goroutines.
type Registry struct {
	mu           sync.RWMutex
	fingerprints []Fingerprint
	index        map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a fingerprint named name with the given rules.
// It returns ErrEmptyName for a blank name and ErrDuplicateName when
// the name is already registered; the registry is unchanged in both cases.
func (r *Registry) Register(name string, rules ...Predicate) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	// Copy so that later changes to the caller's slice cannot alter the rule set.
	copied := make([]Predicate, len(rules))
	copy(copied, rules)

	r.index[name] = len(r.fingerprints)
	r.fingerprints = append(r.fingerprints, Fingerprint{Name: name, Rules: copied})
	return nil
}

// List returns the registered fingerprints in registration order.
// The returned slice is a copy.
func (r *Registry) List() []Fingerprint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Fingerprint, len(r.fingerprints))
	copy(out, r.fingerprints)
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.fingerprints))
	for i, fp := range r.fingerprints {
		names[i] = fp.Name
	}
	return names
}

// Len returns the number of registered fingerprints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fingerprints)
}

// Lookup returns the fingerprint registered under name.
func (r *Registry) Lookup(name string) (Fingerprint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return Fingerprint{}, false
	}
	return r.fingerprints[i], true
}

// Match evaluates every registered fingerprint against s.
func (r *Registry) Match(s model.Signals) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Match(s, r.fingerprints)
}
