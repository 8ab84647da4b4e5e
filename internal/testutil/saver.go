package testutil

import (
	"errors"
	"slices"

	"github.com/roach88/stockroom/internal/product"
)

// ErrSaveFailed is the error MemorySaver returns when told to fail.
var ErrSaveFailed = errors.New("simulated save failure")

// MemorySaver keeps every successfully saved product set in memory.
// Set Fail to make the next saves return ErrSaveFailed.
type MemorySaver struct {
	Fail bool

	// Saves holds one copy of the product set per successful save.
	Saves [][]product.Product

	// Attempts counts every call, failed or not.
	Attempts int
}

// Save records a copy of products, or fails if Fail is set.
func (m *MemorySaver) Save(products []product.Product) error {
	m.Attempts++
	if m.Fail {
		return ErrSaveFailed
	}
	m.Saves = append(m.Saves, slices.Clone(products))
	return nil
}

// Last returns the most recently saved set, or nil if nothing was saved.
func (m *MemorySaver) Last() []product.Product {
	if len(m.Saves) == 0 {
		return nil
	}
	return m.Saves[len(m.Saves)-1]
}
