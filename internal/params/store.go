// Package params holds the keyed numeric stores a kinetics model is
// built from: rate constants on one side, compartment volumes and
// capacities on the other. Both use the same [Store] contract so model
// code does not care whether values live in a plain map or in a
// structured model document.
package params

import (
	"fmt"
	"math"
)

// Store is a keyed mapping from identifier to a finite value.
type Store interface {
	Get(key string) (float64, error)
	Set(key string, value float64) error
	// Keys enumerates every key once in a stable order.
	Keys() []string
	Len() int
	String() string
	GoString() string
	// Copy and DeepCopy return value-independent snapshots.
	Copy() Store
	DeepCopy() Store
	// Update writes every key of other into the store, leaving keys
	// absent from other untouched.
	Update(other Store) error
}

// Merge copies every key of src into dst.
func Merge(dst, src Store) error {
	for _, key := range src.Keys() {
		v, err := src.Get(key)
		if err != nil {
			return err
		}
		if err := dst.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Values snapshots a store into a plain map.
func Values(s Store) map[string]float64 {
	out := make(map[string]float64, s.Len())
	for _, key := range s.Keys() {
		if v, err := s.Get(key); err == nil {
			out[key] = v
		}
	}
	return out
}

// Equal reports whether a and b hold the same keys with the same values.
func Equal(a, b Store) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, key := range a.Keys() {
		va, err := a.Get(key)
		if err != nil {
			return false
		}
		vb, err := b.Get(key)
		if err != nil || va != vb {
			return false
		}
	}
	return true
}

// Positive checks that every listed key exists and holds a finite value > 0.
func Positive(s Store, keys ...string) error {
	for _, key := range keys {
		v, err := s.Get(key)
		if err != nil {
			return err
		}
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("params: %s must be positive, got %g", key, v)
		}
	}
	return nil
}

// MustGet is Get for keys the caller has already validated.
func MustGet(s Store, key string) float64 {
	v, err := s.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}
