package overlay

// SurfaceState is the lifecycle state of an output's surface.
type SurfaceState int

const (
	// SurfaceAbsent means the widget is not shown on the output.
	SurfaceAbsent SurfaceState = iota
	// SurfacePendingConfigure means the surface exists but the compositor
	// has not configured it yet.
	SurfacePendingConfigure
	// SurfaceLive means the surface is configured and showing a frame.
	SurfaceLive
)

// String returns the string representation of SurfaceState.
func (s SurfaceState) String() string {
	switch s {
	case SurfaceAbsent:
		return "absent"
	case SurfacePendingConfigure:
		return "pending-configure"
	case SurfaceLive:
		return "live"
	default:
		return "unknown"
	}
}
