// Package heat implements the steady-state heat solver: a square plate with
// a cold border and a centered hot square, relaxed with the Jacobi stencil
// until the largest per-cell change drops below a tolerance.
//
// A Field owns the temperature array and performs synchronous sweeps. The
// Solver drives one Field to termination, records a sampled convergence
// history and returns an immutable SolveResult. Running out of iterations is
// a normal outcome reported through SolveResult.Converged.
package heat
