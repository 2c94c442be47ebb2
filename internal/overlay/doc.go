// Package overlay is the engine of river-tag-overlay. It tracks the outputs the
// compositor announces and their tag state. On each output it pops up a small
// layer surface showing that state and tears it down again once no update
// arrived for the configured duration.
//
// Everything runs on one goroutine. Transport callbacks are turned into Event
// values and fed to App.Handle, and App.Run multiplexes the compositor socket
// against the nearest surface expiry.
package overlay
