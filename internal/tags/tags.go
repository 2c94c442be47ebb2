// Package tags models the tag bitmasks a river-style compositor reports per output.
package tags

// Mask is a set of tags, bit i standing for tag i.
type Mask uint32

// Has reports whether tag i is in the set.
func (m Mask) Has(i int) bool {
	if i < 0 || i >= 32 {
		return false
	}
	return m&(1<<uint(i)) != 0
}

// FoldViews combines the tag masks of every view on an output into the
// set of occupied tags.
func FoldViews(views []uint32) Mask {
	var m Mask
	for _, v := range views {
		m |= Mask(v)
	}
	return m
}

// State is the last known tag state of one output.
type State struct {
	Focused Mask
	View    Mask
	Urgent  Mask
}

// IsActive reports whether tag i is focused.
func (s State) IsActive(i int) bool {
	return s.Focused.Has(i)
}

// IsUrgent reports whether tag i demands attention.
func (s State) IsUrgent(i int) bool {
	return s.Urgent.Has(i)
}

// IsOccupied reports whether any view carries tag i.
func (s State) IsOccupied(i int) bool {
	return s.View.Has(i)
}

// NewlyUrgent reports whether an urgent update from prev to next should pop
// the widget up: some tag became urgent that was not urgent before, and the
// urgent set is not just the focused set.
func NewlyUrgent(prev, focused, next Mask) bool {
	return next&^prev != 0 && next != focused
}
