// Package analysis provides lattice-level analysis tools.
//
//   - [SpatialSpectrum]: radially averaged 2D power spectrum of the amplitude field
//   - [PowerSpectrum]: spectrum of a diagnostic time series
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [Sweep]: one-parameter sweep of settled diagnostics
//   - [PhaseScatter], [CellTrajectory]: complex-plane portraits
//
// # Pattern Scale
//
// The dominant wavelength of the amplitude pattern follows from the
// spectrum peak:
//
//	wl := analysis.DominantWavelength(s.Field())
package analysis
