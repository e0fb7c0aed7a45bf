// Package store provides persistence for named symexpr expressions.
package store

import "github.com/gameticharles/symexpr"

// Store is the interface for expression persistence.
type Store interface {
	// Get retrieves an expression by name. Returns nil if not found.
	Get(name string) (*symexpr.Expr, error)
	// Put stores an expression by name, overwriting if it exists.
	Put(name string, e *symexpr.Expr) error
	// Delete removes an expression by name.
	Delete(name string) error
	// List returns the stored names with their expressions.
	List() (map[string]*symexpr.Expr, error)
	// Close releases resources.
	Close() error
}
