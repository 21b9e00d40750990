// Package viz provides the terminal front end for the oscillator lattice.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live lattice view with diagnostics, history and tuning
//   - [Picker]: preset menu that launches the live view
//   - [Canvas]: Braille-based pixel canvas used for the phase scatter
//   - [LatticeView]: half-block rendering of the complex field
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	A     - Toggle the localized attack
//	Tab   - Select the next parameter, Up/Down to tune it
//	M/C   - Cycle view mode and colormap
//	S     - Save a PNG snapshot
//	G     - Toggle GIF recording
//	R     - Reset lattice and parameters
//	?     - Show help overlay
package viz
