package environment

import "fmt"

// Phase is the runtime label for a lifecycle phase. It is the serialized form
// of a phase marker type and the discriminator of ErasedState.
type Phase string

const (
	// PhaseCreated is the entry phase: the environment exists but no
	// infrastructure operation has run.
	PhaseCreated Phase = "created"

	// PhaseProvisioning indicates infrastructure provisioning is in progress.
	PhaseProvisioning Phase = "provisioning"

	// PhaseProvisioned indicates the instance is up and reachable.
	PhaseProvisioned Phase = "provisioned"

	// PhaseConfiguring indicates host configuration is in progress.
	PhaseConfiguring Phase = "configuring"

	// PhaseConfigured indicates the host is fully configured.
	PhaseConfigured Phase = "configured"

	// PhaseReleasing indicates application artifacts are being released.
	PhaseReleasing Phase = "releasing"

	// PhaseReleased indicates all artifacts are deployed to the host.
	PhaseReleased Phase = "released"

	// PhaseRunning indicates the application services are up.
	PhaseRunning Phase = "running"

	// PhaseDestroyed is the terminal phase: infrastructure has been torn down.
	PhaseDestroyed Phase = "destroyed"

	// PhaseProvisionFailed indicates the provision workflow failed.
	PhaseProvisionFailed Phase = "provision_failed"

	// PhaseConfigureFailed indicates the configure workflow failed.
	PhaseConfigureFailed Phase = "configure_failed"

	// PhaseReleaseFailed indicates the release workflow failed.
	PhaseReleaseFailed Phase = "release_failed"

	// PhaseRunFailed indicates the run workflow failed.
	PhaseRunFailed Phase = "run_failed"
)

// AllPhases is the canonical, exhaustive list of lifecycle phases. The erased
// state codec and the exhaustiveness tests are written against this list, so a
// new phase that is not added here fails the round-trip tests immediately.
var AllPhases = []Phase{
	PhaseCreated,
	PhaseProvisioning,
	PhaseProvisioned,
	PhaseConfiguring,
	PhaseConfigured,
	PhaseReleasing,
	PhaseReleased,
	PhaseRunning,
	PhaseDestroyed,
	PhaseProvisionFailed,
	PhaseConfigureFailed,
	PhaseReleaseFailed,
	PhaseRunFailed,
}

// Validate checks that the phase is one of the known lifecycle phases.
func (p Phase) Validate() error {
	switch p {
	case PhaseCreated, PhaseProvisioning, PhaseProvisioned,
		PhaseConfiguring, PhaseConfigured, PhaseReleasing, PhaseReleased,
		PhaseRunning, PhaseDestroyed,
		PhaseProvisionFailed, PhaseConfigureFailed, PhaseReleaseFailed, PhaseRunFailed:
		return nil
	default:
		return fmt.Errorf("unknown environment phase: %q", string(p))
	}
}

// IsFailure returns true for the failed counterpart phases.
func (p Phase) IsFailure() bool {
	return p == PhaseProvisionFailed || p == PhaseConfigureFailed ||
		p == PhaseReleaseFailed || p == PhaseRunFailed
}

// IsTerminal returns true if no further transition is legal from the phase.
// Failed phases are not terminal: they can be retried or destroyed.
func (p Phase) IsTerminal() bool {
	return p == PhaseDestroyed
}

// requiresAddress reports whether an environment in this phase must carry a
// resolved instance address.
func (p Phase) requiresAddress() bool {
	switch p {
	case PhaseProvisioned, PhaseConfiguring, PhaseConfigured, PhaseConfigureFailed,
		PhaseReleasing, PhaseReleased, PhaseReleaseFailed,
		PhaseRunning, PhaseRunFailed:
		return true
	default:
		return false
	}
}

// allowsAddress reports whether an environment in this phase may carry a
// resolved instance address. Destroyed keeps the address of the torn-down
// instance for the record; the pre-provisioning phases never hold one.
func (p Phase) allowsAddress() bool {
	return p.requiresAddress() || p == PhaseDestroyed
}

// Marker is the compile-time counterpart of Phase: exactly one zero-data type
// per lifecycle phase implements it. The unexported method keeps the set
// closed to this package.
type Marker interface {
	phase() Phase
}

// Created is the phase marker for PhaseCreated.
type Created struct{}

// Provisioning is the phase marker for PhaseProvisioning.
type Provisioning struct{}

// Provisioned is the phase marker for PhaseProvisioned.
type Provisioned struct{}

// Configuring is the phase marker for PhaseConfiguring.
type Configuring struct{}

// Configured is the phase marker for PhaseConfigured.
type Configured struct{}

// Releasing is the phase marker for PhaseReleasing.
type Releasing struct{}

// Released is the phase marker for PhaseReleased.
type Released struct{}

// Running is the phase marker for PhaseRunning.
type Running struct{}

// Destroyed is the phase marker for PhaseDestroyed.
type Destroyed struct{}

// ProvisionFailed is the phase marker for PhaseProvisionFailed.
type ProvisionFailed struct{}

// ConfigureFailed is the phase marker for PhaseConfigureFailed.
type ConfigureFailed struct{}

// ReleaseFailed is the phase marker for PhaseReleaseFailed.
type ReleaseFailed struct{}

// RunFailed is the phase marker for PhaseRunFailed.
type RunFailed struct{}

func (Created) phase() Phase         { return PhaseCreated }
func (Provisioning) phase() Phase    { return PhaseProvisioning }
func (Provisioned) phase() Phase     { return PhaseProvisioned }
func (Configuring) phase() Phase     { return PhaseConfiguring }
func (Configured) phase() Phase      { return PhaseConfigured }
func (Releasing) phase() Phase       { return PhaseReleasing }
func (Released) phase() Phase        { return PhaseReleased }
func (Running) phase() Phase         { return PhaseRunning }
func (Destroyed) phase() Phase       { return PhaseDestroyed }
func (ProvisionFailed) phase() Phase { return PhaseProvisionFailed }
func (ConfigureFailed) phase() Phase { return PhaseConfigureFailed }
func (ReleaseFailed) phase() Phase   { return PhaseReleaseFailed }
func (RunFailed) phase() Phase       { return PhaseRunFailed }

// PhaseOf returns the runtime phase label for a marker type.
func PhaseOf[S Marker]() Phase {
	var s S
	return s.phase()
}
