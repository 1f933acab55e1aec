package environment

import "net/netip"

// Transition functions are the only way to move an environment between
// phases. Each consumes its input and returns a fresh value; the compiler
// rejects a transition applied to an environment in the wrong phase.

// StartProvisioning marks the environment as undergoing infrastructure
// provisioning. Pure relabeling, no I/O.
func StartProvisioning(e Environment[Created]) Environment[Provisioning] {
	return Environment[Provisioning]{data: e.data}
}

// CompleteProvisioning records the resolved instance address and how it was
// obtained, producing a Provisioned environment.
func CompleteProvisioning(e Environment[Provisioning], ip netip.Addr, method AddressMethod) Environment[Provisioned] {
	d := e.data
	d.instanceIP = ip
	d.addressMethod = method
	return Environment[Provisioned]{data: d}
}

// StartConfiguring marks the environment as undergoing host configuration.
func StartConfiguring(e Environment[Provisioned]) Environment[Configuring] {
	return Environment[Configuring]{data: e.data}
}

// CompleteConfiguring produces a Configured environment.
func CompleteConfiguring(e Environment[Configuring]) Environment[Configured] {
	return Environment[Configured]{data: e.data}
}

// StartReleasing marks the environment as undergoing artifact release.
func StartReleasing(e Environment[Configured]) Environment[Releasing] {
	return Environment[Releasing]{data: e.data}
}

// CompleteReleasing produces a Released environment.
func CompleteReleasing(e Environment[Releasing]) Environment[Released] {
	return Environment[Released]{data: e.data}
}

// StartRunning marks the environment as bringing its services up. Running is
// both the in-progress marker and the success phase of the run workflow: on
// success the snapshot simply stays Running.
func StartRunning(e Environment[Released]) Environment[Running] {
	return Environment[Running]{data: e.data}
}

// MarkProvisionFailed attaches the failure context and moves the environment
// to the provision-failed phase.
func MarkProvisionFailed(e Environment[Provisioning], fc FailureContext) Environment[ProvisionFailed] {
	d := e.data
	d.failure = &fc
	return Environment[ProvisionFailed]{data: d}
}

// MarkConfigureFailed attaches the failure context and moves the environment
// to the configure-failed phase.
func MarkConfigureFailed(e Environment[Configuring], fc FailureContext) Environment[ConfigureFailed] {
	d := e.data
	d.failure = &fc
	return Environment[ConfigureFailed]{data: d}
}

// MarkReleaseFailed attaches the failure context and moves the environment to
// the release-failed phase.
func MarkReleaseFailed(e Environment[Releasing], fc FailureContext) Environment[ReleaseFailed] {
	d := e.data
	d.failure = &fc
	return Environment[ReleaseFailed]{data: d}
}

// MarkRunFailed attaches the failure context and moves the environment to the
// run-failed phase.
func MarkRunFailed(e Environment[Running], fc FailureContext) Environment[RunFailed] {
	d := e.data
	d.failure = &fc
	return Environment[RunFailed]{data: d}
}

// RetryProvision re-enters the provisioning phase from a failed provision,
// clearing the failure context. The workflow restarts from its first step.
func RetryProvision(e Environment[ProvisionFailed]) Environment[Provisioning] {
	d := e.data
	d.failure = nil
	return Environment[Provisioning]{data: d}
}

// RetryConfigure re-enters the configuring phase from a failed configure.
func RetryConfigure(e Environment[ConfigureFailed]) Environment[Configuring] {
	d := e.data
	d.failure = nil
	return Environment[Configuring]{data: d}
}

// RetryRelease re-enters the releasing phase from a failed release.
func RetryRelease(e Environment[ReleaseFailed]) Environment[Releasing] {
	d := e.data
	d.failure = nil
	return Environment[Releasing]{data: d}
}

// RetryRun re-enters the running phase from a failed run.
func RetryRun(e Environment[RunFailed]) Environment[Running] {
	d := e.data
	d.failure = nil
	return Environment[Running]{data: d}
}
