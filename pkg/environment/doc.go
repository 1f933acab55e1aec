// Package environment defines the deployment environment aggregate and its
// lifecycle state machine: Created -> Provisioning -> Provisioned -> Configuring
// -> Configured -> Releasing -> Released -> Running -> Destroyed, with a failed
// counterpart for every in-progress phase.
//
// The phase an environment is in is part of its type: Environment[S] is generic
// over a zero-data phase marker, and the only way to change phase is through the
// transition functions in this package, each of which consumes a value in one
// phase and produces a value in the next. Calling a later-phase operation on an
// environment that has not reached the prerequisite phase is a compile error.
//
// ErasedState is the closed, runtime-tagged form of an environment used at
// serialization boundaries. Erase and Restore are total and symmetric: one case
// per phase, no default, so a round trip always recovers the exact phase and
// payload or fails with a PhaseMismatchError naming both phases.
package environment
