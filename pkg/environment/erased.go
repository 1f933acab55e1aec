package environment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"time"
)

// ErasedState holds an environment in exactly one of the lifecycle phases
// without the caller knowing which at compile time. It is the only form in
// which an environment crosses a serialization boundary.
type ErasedState struct {
	phase Phase
	data  envData
}

// Erase converts a typed environment to its runtime-tagged form. Erase is
// total: there is one case per phase and no fallback.
func Erase[S Marker](e Environment[S]) ErasedState {
	return ErasedState{phase: PhaseOf[S](), data: e.data}
}

// Restore recovers the typed environment for phase marker S. It fails with a
// PhaseMismatchError naming both phases if the erased state holds a different
// phase. Erase followed by Restore of the same marker is the identity.
func Restore[S Marker](es ErasedState) (Environment[S], error) {
	want := PhaseOf[S]()
	if es.phase != want {
		return Environment[S]{}, &PhaseMismatchError{
			Name:     es.data.name,
			Expected: want,
			Actual:   es.phase,
		}
	}
	return Environment[S]{data: es.data}, nil
}

// PhaseMismatchError reports a restore attempt against the wrong phase.
type PhaseMismatchError struct {
	Name     Name
	Expected Phase
	Actual   Phase
}

func (e *PhaseMismatchError) Error() string {
	return fmt.Sprintf("environment %q is in phase %q, expected %q",
		e.Name, e.Actual, e.Expected)
}

// Name returns the environment's identifier without unwrapping the phase.
func (es ErasedState) Name() Name { return es.data.name }

// Phase returns the runtime phase label.
func (es ErasedState) Phase() Phase { return es.phase }

// IsFailure returns true if the held environment is in a failed phase.
func (es ErasedState) IsFailure() bool { return es.phase.IsFailure() }

// IsTerminal returns true if the held environment is in the terminal phase.
func (es ErasedState) IsTerminal() bool { return es.phase.IsTerminal() }

// Provider returns the infrastructure backend configuration.
func (es ErasedState) Provider() ProviderConfig { return es.data.provider }

// SSH returns the credentials used to reach the provisioned host.
func (es ErasedState) SSH() SSHCredentials { return es.data.ssh }

// Features returns the optional capabilities requested for the environment.
func (es ErasedState) Features() Features { return es.data.features }

// BuildDir returns the per-environment directory for rendered tool inputs
// under the given workspace root.
func (es ErasedState) BuildDir(root string) string {
	return BuildDir(root, es.data.name)
}

// DataDir returns the per-environment directory for persistent artifacts
// under the given workspace root.
func (es ErasedState) DataDir(root string) string {
	return DataDir(root, es.data.name)
}

// BuildDir is the workspace layout rule for rendered tool inputs. It is
// keyed by name alone so cleanup can locate the directory even when the
// snapshot no longer decodes.
func BuildDir(root string, name Name) string {
	return filepath.Join(root, "build", name.String())
}

// DataDir is the workspace layout rule for persistent artifacts.
func DataDir(root string, name Name) string {
	return filepath.Join(root, "data", name.String())
}

// CreatedAt returns the creation timestamp.
func (es ErasedState) CreatedAt() time.Time { return es.data.createdAt }

// InstanceIP returns the resolved instance address, or the zero netip.Addr
// for phases before Provisioned.
func (es ErasedState) InstanceIP() netip.Addr { return es.data.instanceIP }

// Failure returns the failure context for failed phases, nil otherwise.
func (es ErasedState) Failure() *FailureContext {
	if es.data.failure == nil {
		return nil
	}
	fc := *es.data.failure
	return &fc
}

// ErrAlreadyDestroyed is returned by Destroy when the environment is already
// in the terminal phase. Callers treat it as a no-op, not a failure.
var ErrAlreadyDestroyed = errors.New("environment is already destroyed")

// Destroy moves the held environment to the terminal Destroyed phase from any
// non-terminal phase. A failure context carried by a failed phase is dropped:
// Destroyed is not a failed phase.
func (es ErasedState) Destroy() (Environment[Destroyed], error) {
	if es.phase == PhaseDestroyed {
		return Environment[Destroyed]{}, ErrAlreadyDestroyed
	}
	d := es.data
	d.failure = nil
	return Environment[Destroyed]{data: d}, nil
}

// snapshot is the persisted wire form of an ErasedState: a self-describing
// tagged record with the phase as discriminator.
type snapshot struct {
	Phase         Phase           `json:"phase"`
	Name          Name            `json:"name"`
	Provider      ProviderConfig  `json:"provider"`
	SSH           SSHCredentials  `json:"ssh"`
	Features      Features        `json:"features"`
	CreatedAt     time.Time       `json:"created_at"`
	InstanceIP    string          `json:"instance_ip,omitempty"`
	AddressMethod AddressMethod   `json:"address_method,omitempty"`
	Failure       *FailureContext `json:"failure,omitempty"`
}

// MarshalJSON encodes the erased state as a tagged record.
func (es ErasedState) MarshalJSON() ([]byte, error) {
	if err := es.phase.Validate(); err != nil {
		return nil, err
	}
	snap := snapshot{
		Phase:         es.phase,
		Name:          es.data.name,
		Provider:      es.data.provider,
		SSH:           es.data.ssh,
		Features:      es.data.features,
		CreatedAt:     es.data.createdAt,
		AddressMethod: es.data.addressMethod,
		Failure:       es.data.failure,
	}
	if es.data.instanceIP.IsValid() {
		snap.InstanceIP = es.data.instanceIP.String()
	}
	return json.Marshal(snap)
}

// UnmarshalJSON decodes a tagged record, verifying that the phase is known and
// that the payload is consistent with it. Inconsistent snapshots are rejected,
// never repaired.
func (es *ErasedState) UnmarshalJSON(b []byte) error {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	if err := snap.Phase.Validate(); err != nil {
		return err
	}
	if _, err := NewName(snap.Name.String()); err != nil {
		return err
	}
	if err := snap.Provider.Validate(); err != nil {
		return fmt.Errorf("snapshot for %q: %w", snap.Name, err)
	}

	var ip netip.Addr
	if snap.InstanceIP != "" {
		parsed, err := netip.ParseAddr(snap.InstanceIP)
		if err != nil {
			return fmt.Errorf("snapshot for %q: invalid instance address %q: %w",
				snap.Name, snap.InstanceIP, err)
		}
		ip = parsed
	}
	if snap.Phase.requiresAddress() && !ip.IsValid() {
		return fmt.Errorf("snapshot for %q: phase %q requires an instance address",
			snap.Name, snap.Phase)
	}
	if !snap.Phase.allowsAddress() && ip.IsValid() {
		return fmt.Errorf("snapshot for %q: phase %q must not carry an instance address",
			snap.Name, snap.Phase)
	}
	if snap.Phase.IsFailure() && snap.Failure == nil {
		return fmt.Errorf("snapshot for %q: failed phase %q is missing its failure context",
			snap.Name, snap.Phase)
	}
	if !snap.Phase.IsFailure() && snap.Failure != nil {
		return fmt.Errorf("snapshot for %q: phase %q must not carry a failure context",
			snap.Name, snap.Phase)
	}

	es.phase = snap.Phase
	es.data = envData{
		name:          snap.Name,
		provider:      snap.Provider,
		ssh:           snap.SSH,
		features:      snap.Features,
		createdAt:     snap.CreatedAt,
		instanceIP:    ip,
		addressMethod: snap.AddressMethod,
		failure:       snap.Failure,
	}
	return nil
}
