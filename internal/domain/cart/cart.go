// Package cart provides the per-session shopping cart.
// A cart is plain in-memory state: losing it on restart is acceptable
// because nothing has committed until checkout succeeds.
package cart

import (
	"farmapos/internal/core/id"
)

// Cart maps product ids to requested quantities (always >= 1).
// It carries no prices; totals are computed from the catalog at read time,
// and checkout recomputes them authoritatively under lock anyway.
type Cart struct {
	lines map[id.ID]int64
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[id.ID]int64)}
}

// Quantity returns the requested quantity for a product, 0 if absent.
func (c *Cart) Quantity(productID id.ID) int64 {
	return c.lines[productID]
}

// Set replaces a line's quantity; qty 0 removes the line.
func (c *Cart) Set(productID id.ID, qty int64) {
	if qty <= 0 {
		delete(c.lines, productID)
		return
	}
	c.lines[productID] = qty
}

// Remove deletes a line; no-op if absent.
func (c *Cart) Remove(productID id.ID) {
	delete(c.lines, productID)
}

// Clear empties all lines.
func (c *Cart) Clear() {
	c.lines = make(map[id.ID]int64)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// ProductIDs returns the distinct product ids in canonical ascending
// order, the order in which checkout acquires row locks.
func (c *Cart) ProductIDs() []id.ID {
	ids := make([]id.ID, 0, len(c.lines))
	for pid := range c.lines {
		ids = append(ids, pid)
	}
	id.SortAscending(ids)
	return ids
}

// Snapshot returns a copy of the lines map.
func (c *Cart) Snapshot() map[id.ID]int64 {
	out := make(map[id.ID]int64, len(c.lines))
	for pid, qty := range c.lines {
		out[pid] = qty
	}
	return out
}
