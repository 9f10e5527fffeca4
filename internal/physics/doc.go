// Package physics implements the closed-form photoelectric model used by the
// simulated bench.
//
// All energies are in electronvolts and all potentials in volts. Because the
// kinetic energy of an electron expressed in eV equals, numerically, the
// retarding potential in volts that stops it, StoppingPotentialV is an exact
// identity over MaxKineticEnergyEv. Callers may rely on the two values being
// bit-for-bit equal.
//
// The current model is a macroscopic approximation: below the cutoff voltage
// no electron reaches the collector; above it the current rises linearly over
// a span of (stopping potential + 2) volts until it saturates at a level
// proportional to the light intensity.
package physics
