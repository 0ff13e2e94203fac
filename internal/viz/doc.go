// Package viz draws the cart-pendulum in the terminal.
//
//   - [Renderer]: rasterizes a state onto a braille [Canvas] with an
//     explicit Open / Render / Close lifecycle
//   - [Live]: Bubble Tea program that steps a model under a controller and
//     redraws every frame
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	←/→   - Push the cart
//	Q     - Quit
package viz
