// Package analysis post-processes recorded cart-pendulum trajectories.
//
//   - [DominantFrequency] and [PowerSpectrum]: spectral content of a signal
//   - [NewPhasePortrait]: 2D phase space trajectory of two state components
//
// The small-swing frequency of the hanging pendulum is a quick check of a
// run against the model parameters:
//
//	f := analysis.DominantFrequency(angles, dt)
//	want := physics.SmallOscillationFrequency(p)
package analysis
