// Package wayland is a small Wayland client speaking the wire protocol directly
// over a non-blocking unix socket. It covers the core objects the overlay needs
// (display, registry, compositor, surface, region, shm, buffer, output) plus the
// wlr layer-shell and river status extensions.
//
// The connection never blocks: Flush reports ErrWouldBlock when the socket is
// full and Dispatch reads whatever is available, so the caller owns the poll loop.
// Objects report events through handler functions set with SetXxxHandler, which
// run synchronously from Dispatch.
package wayland
