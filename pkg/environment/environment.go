package environment

import (
	"fmt"
	"net/netip"
	"time"
)

// ProviderKind selects the infrastructure backend an environment runs on.
type ProviderKind string

const (
	// ProviderLXD provisions a local LXD virtual machine.
	ProviderLXD ProviderKind = "lxd"

	// ProviderHetzner provisions a Hetzner Cloud server.
	ProviderHetzner ProviderKind = "hetzner"
)

// ProviderConfig describes the infrastructure backend and its parameters.
// Exactly one of the kind-specific blocks must be set, matching Kind.
type ProviderConfig struct {
	// Kind is the backend discriminator.
	Kind ProviderKind `json:"kind"`

	// LXD holds local virtualization parameters. Set iff Kind is "lxd".
	LXD *LXDConfig `json:"lxd,omitempty"`

	// Hetzner holds cloud parameters. Set iff Kind is "hetzner".
	Hetzner *HetznerConfig `json:"hetzner,omitempty"`
}

// LXDConfig holds parameters for the local LXD backend.
type LXDConfig struct {
	// Profile is the LXD profile applied to the instance.
	Profile string `json:"profile"`

	// Image is the OS image to launch (e.g. "ubuntu:24.04").
	Image string `json:"image"`
}

// HetznerConfig holds parameters for the Hetzner Cloud backend.
type HetznerConfig struct {
	// ServerType is the Hetzner server type (e.g. "cx22").
	ServerType string `json:"server_type"`

	// Location is the datacenter location (e.g. "fsn1").
	Location string `json:"location"`

	// TokenEnv names the environment variable holding the API token.
	// The token itself is never persisted.
	TokenEnv string `json:"token_env"`
}

// Validate checks that the kind discriminator and the kind-specific block are
// consistent.
func (c ProviderConfig) Validate() error {
	switch c.Kind {
	case ProviderLXD:
		if c.LXD == nil {
			return fmt.Errorf("provider kind %q requires an lxd block", c.Kind)
		}
		if c.Hetzner != nil {
			return fmt.Errorf("provider kind %q must not carry a hetzner block", c.Kind)
		}
	case ProviderHetzner:
		if c.Hetzner == nil {
			return fmt.Errorf("provider kind %q requires a hetzner block", c.Kind)
		}
		if c.LXD != nil {
			return fmt.Errorf("provider kind %q must not carry an lxd block", c.Kind)
		}
	default:
		return fmt.Errorf("unknown provider kind: %q", string(c.Kind))
	}
	return nil
}

// SSHCredentials describes how the orchestrator reaches the provisioned host.
type SSHCredentials struct {
	// User is the remote login user.
	User string `json:"user"`

	// Port is the SSH port on the provisioned host.
	Port int `json:"port"`

	// PrivateKeyPath is the path to the private key used for authentication.
	PrivateKeyPath string `json:"private_key_path"`

	// PublicKeyPath is the path to the matching public key, injected into the
	// instance at provision time.
	PublicKeyPath string `json:"public_key_path"`
}

// Validate checks the credentials are complete enough to reach a host.
func (c SSHCredentials) Validate() error {
	if c.User == "" {
		return fmt.Errorf("ssh user is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("ssh port %d is out of range", c.Port)
	}
	if c.PrivateKeyPath == "" {
		return fmt.Errorf("ssh private key path is required")
	}
	return nil
}

// Features are the optional capabilities requested for an environment.
// Orchestrators read them to decide which workflow steps to run; steps
// themselves never branch on them.
type Features struct {
	// Monitoring deploys the monitoring stack configuration during release.
	Monitoring bool `json:"monitoring"`

	// Firewall applies host firewall rules during configuration.
	Firewall bool `json:"firewall"`
}

// AddressMethod records how an instance address was obtained.
type AddressMethod string

const (
	// AddressFromProvisioner means the address came from the provisioning
	// tool's outputs.
	AddressFromProvisioner AddressMethod = "provisioner_output"

	// AddressManual means the address was supplied by the operator.
	AddressManual AddressMethod = "manual"
)

// envData is the phase-independent payload of an environment. The phase marker
// decides which fields are meaningful: instanceIP and addressMethod are set
// from Provisioned onward, failure only in failed phases.
type envData struct {
	name          Name
	provider      ProviderConfig
	ssh           SSHCredentials
	features      Features
	createdAt     time.Time
	instanceIP    netip.Addr
	addressMethod AddressMethod
	failure       *FailureContext
}

// Environment is one deployment target in lifecycle phase S. Values are
// immutable: every transition consumes its input and returns a new value in
// the next phase, so a stale handle can never be advanced twice.
type Environment[S Marker] struct {
	data envData
}

// New creates an environment in the Created phase. The provider config and
// credentials are validated; name validation happens in NewName.
func New(name Name, provider ProviderConfig, ssh SSHCredentials, features Features, now time.Time) (Environment[Created], error) {
	if name == "" {
		return Environment[Created]{}, &InvalidNameError{Value: "", Reason: "name is empty"}
	}
	if err := provider.Validate(); err != nil {
		return Environment[Created]{}, err
	}
	if err := ssh.Validate(); err != nil {
		return Environment[Created]{}, err
	}
	return Environment[Created]{data: envData{
		name:      name,
		provider:  provider,
		ssh:       ssh,
		features:  features,
		createdAt: now.UTC(),
	}}, nil
}

// Name returns the environment's identifier.
func (e Environment[S]) Name() Name { return e.data.name }

// Provider returns the infrastructure backend configuration.
func (e Environment[S]) Provider() ProviderConfig { return e.data.provider }

// SSH returns the credentials used to reach the provisioned host.
func (e Environment[S]) SSH() SSHCredentials { return e.data.ssh }

// Features returns the optional capabilities requested for this environment.
func (e Environment[S]) Features() Features { return e.data.features }

// CreatedAt returns the creation timestamp (UTC).
func (e Environment[S]) CreatedAt() time.Time { return e.data.createdAt }

// Phase returns the runtime label of the compile-time phase marker.
func (e Environment[S]) Phase() Phase { return PhaseOf[S]() }

// InstanceIP returns the resolved instance address. The zero netip.Addr is
// returned for phases before Provisioned.
func (e Environment[S]) InstanceIP() netip.Addr { return e.data.instanceIP }

// AddressMethod returns how the instance address was obtained, empty before
// Provisioned.
func (e Environment[S]) AddressMethod() AddressMethod { return e.data.addressMethod }

// Failure returns the failure context for failed phases, nil otherwise.
func (e Environment[S]) Failure() *FailureContext {
	if e.data.failure == nil {
		return nil
	}
	fc := *e.data.failure
	return &fc
}

// BuildDir returns the per-environment directory for rendered tool inputs
// under the given workspace root.
func (e Environment[S]) BuildDir(root string) string {
	return BuildDir(root, e.data.name)
}

// DataDir returns the per-environment directory for persistent artifacts
// under the given workspace root.
func (e Environment[S]) DataDir(root string) string {
	return DataDir(root, e.data.name)
}
