package engine

import (
	"context"
	"net/netip"
	"time"

	"github.com/envlane/envlane/pkg/environment"
)

// Target is a reachable instance: its address plus the credentials to use.
type Target struct {
	Host netip.Addr
	SSH  environment.SSHCredentials
}

// ProvisionOutputs are the values the provisioner reports after apply.
type ProvisionOutputs struct {
	InstanceIP netip.Addr
	InstanceID string
}

// Provisioner drives the infrastructure tool in a per-environment working
// directory. Implementations wrap an external process (OpenTofu) and return
// classified errors.
type Provisioner interface {
	Init(ctx context.Context, workdir string) error
	Validate(ctx context.Context, workdir string) error
	Plan(ctx context.Context, workdir string) error
	Apply(ctx context.Context, workdir string) (ProvisionOutputs, error)
	Destroy(ctx context.Context, workdir string) error
}

// PlaybookRunner runs configuration playbooks against an inventory.
type PlaybookRunner interface {
	// WriteInventory renders the single-host inventory file for target.
	WriteInventory(path string, target Target) error

	// RunPlaybook executes the named playbook against the inventory.
	RunPlaybook(ctx context.Context, inventoryPath, playbook string) error
}

// ServiceState is the observed state of one deployed service.
type ServiceState struct {
	Name  string
	State string
}

// ComposeRunner manages the application stack on the remote host.
type ComposeRunner interface {
	// Up starts the stack defined in remoteDir on the target host.
	Up(ctx context.Context, target Target, remoteDir string) error

	// Services reports the state of the stack's services.
	Services(ctx context.Context, target Target, remoteDir string) ([]ServiceState, error)
}

// RenderView is the data exposed to templates during rendering.
type RenderView struct {
	Name       string
	InstanceIP string
	SSHUser    string
	Provider   string
	Features   environment.Features
}

// Renderer renders a directory of templates into an output directory.
type Renderer interface {
	RenderAll(ctx context.Context, templateDir string, view RenderView, outDir string) error
}

// Transport reaches the provisioned host for command execution and file
// transfer.
type Transport interface {
	// Run executes a command on the target and returns its combined output.
	Run(ctx context.Context, target Target, command string) (string, error)

	// Upload copies a local file to the target.
	Upload(ctx context.Context, target Target, localPath, remotePath string) error

	// WaitForConnectivity polls until the target accepts SSH connections
	// or the timeout elapses.
	WaitForConnectivity(ctx context.Context, target Target, timeout time.Duration) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
