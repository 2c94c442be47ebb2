package overlay

import "github.com/Koboldthegreat/river-tag-overlay/internal/tags"

// OutputID identifies an output. It is the registry name of its global.
type OutputID uint32

// SurfaceID identifies one incarnation of an output's surface. IDs are never
// reused, so events addressed to a torn-down surface can be recognized.
type SurfaceID uint64

// Event is a compositor notification consumed by App.Handle.
type Event interface {
	isEvent()
}

// OutputAdded announces a new output.
type OutputAdded struct {
	OutputID OutputID
}

// OutputRemoved retracts an output.
type OutputRemoved struct {
	OutputID OutputID
}

// OutputScale reports the integer scale factor of an output.
type OutputScale struct {
	OutputID OutputID
	Factor   int
}

// TagsKind tells which tag mask a TagsChanged event carries.
type TagsKind int

const (
	// TagsFocused carries the focused tags of the output.
	TagsFocused TagsKind = iota
	// TagsView carries the tags of every view on the output.
	TagsView
	// TagsUrgent carries the tags holding a view that wants attention.
	TagsUrgent
)

// String returns the string representation of TagsKind.
func (k TagsKind) String() string {
	switch k {
	case TagsFocused:
		return "focused"
	case TagsView:
		return "view"
	case TagsUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// TagsChanged reports new tag state for an output. Mask is set for focused
// and urgent updates, Views for view updates.
type TagsChanged struct {
	Kind     TagsKind
	OutputID OutputID
	Mask     tags.Mask
	Views    []uint32
}

// BufferReleased reports that the compositor is done reading a canvas slot.
type BufferReleased struct {
	SurfaceID SurfaceID
	Slot      int
}

// SurfaceConfigured reports a layer surface configure that must be acknowledged.
type SurfaceConfigured struct {
	OutputID  OutputID
	SurfaceID SurfaceID
	Serial    uint32
	Width     uint32
	Height    uint32
}

// SurfaceClosed reports that the compositor closed a layer surface.
type SurfaceClosed struct {
	OutputID  OutputID
	SurfaceID SurfaceID
}

// Synced reports that the initial registry roundtrip completed and every
// required global is bound.
type Synced struct{}

func (OutputAdded) isEvent()       {}
func (OutputRemoved) isEvent()     {}
func (OutputScale) isEvent()       {}
func (TagsChanged) isEvent()       {}
func (BufferReleased) isEvent()    {}
func (SurfaceConfigured) isEvent() {}
func (SurfaceClosed) isEvent()     {}
func (Synced) isEvent()            {}
