// Package viz draws phase portraits in the terminal.
//
// [Canvas] is a Braille pixel canvas; [Portrait] projects committed orbit
// points onto the Poincaré disc of a canvas and implements phase.Sink, so a
// trace controller can draw into it directly. [Model] is a Bubble Tea
// program that advances a trace session on every tick and redraws the disc.
//
// # Key Bindings
//
//	Space - Pause/Resume tracing
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Cancel the session and quit
package viz
