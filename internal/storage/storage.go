package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// DefaultMaxWeights caps the manifest size when no explicit limit is given.
const DefaultMaxWeights = 64

var (
	// ErrInvalidWeights indicates the provided weights violate validation rules.
	ErrInvalidWeights = errors.New("weights must contain at least one positive integer")
)

var defaultWeights = []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11}

// Storage provides access to the item manifest balanced by default.
type Storage interface {
	GetWeights() ([]int, error)
	SetWeights(weights []int) error
}

// MemoryStorage keeps the manifest in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu         sync.RWMutex
	weights    []int
	maxWeights int
}

// StorageOption configures MemoryStorage.
type StorageOption func(*MemoryStorage)

// WithMaxWeights bounds the number of weights a manifest may hold. Zero disables the bound.
func WithMaxWeights(n int) StorageOption {
	return func(s *MemoryStorage) {
		s.maxWeights = n
	}
}

// NewMemoryStorage initialises storage with a copy of the default manifest.
func NewMemoryStorage(opts ...StorageOption) *MemoryStorage {
	s := &MemoryStorage{
		weights:    slices.Clone(defaultWeights),
		maxWeights: DefaultMaxWeights,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultWeights returns a copy of the default manifest.
func DefaultWeights() []int {
	return slices.Clone(defaultWeights)
}

// GetWeights returns a defensive copy of the current manifest, in insertion order.
func (s *MemoryStorage) GetWeights() ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.weights), nil
}

// SetWeights validates and stores the provided manifest. Duplicates are kept:
// two items of equal weight are still two items.
func (s *MemoryStorage) SetWeights(weights []int) error {
	if err := validateWeights(weights, s.maxWeights); err != nil {
		return err
	}

	s.mu.Lock()
	s.weights = slices.Clone(weights)
	s.mu.Unlock()

	return nil
}

func validateWeights(weights []int, limit int) error {
	if len(weights) == 0 {
		return ErrInvalidWeights
	}
	if limit > 0 && len(weights) > limit {
		return fmt.Errorf("%w: %d weights exceed the limit of %d", ErrInvalidWeights, len(weights), limit)
	}
	for i, w := range weights {
		if w <= 0 {
			return fmt.Errorf("%w: weight %d at position %d", ErrInvalidWeights, w, i)
		}
	}
	return nil
}
