package environment

import (
	"net/netip"
	"testing"
	"time"
)

func testCreated(t *testing.T) Environment[Created] {
	t.Helper()
	name, err := NewName("demo")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	env, err := New(name,
		ProviderConfig{Kind: ProviderLXD, LXD: &LXDConfig{Profile: "envlane", Image: "ubuntu:24.04"}},
		SSHCredentials{User: "deploy", Port: 22, PrivateKeyPath: "/keys/id_ed25519", PublicKeyPath: "/keys/id_ed25519.pub"},
		Features{Monitoring: true, Firewall: true},
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env
}

func testFailure() FailureContext {
	started := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	return FailureContext{
		FailedStep: "ApplyInfrastructure",
		ErrorKind:  "step_execution",
		Summary:    "tofu apply exited with status 1",
		StartedAt:  started,
		FailedAt:   started.Add(90 * time.Second),
		Duration:   90 * time.Second,
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		RunID:      "run-1",
	}
}

func TestNewValidatesProviderConfig(t *testing.T) {
	name, _ := NewName("demo")
	ssh := SSHCredentials{User: "deploy", Port: 22, PrivateKeyPath: "/keys/k"}

	tests := []struct {
		name     string
		provider ProviderConfig
		wantErr  bool
	}{
		{"lxd ok", ProviderConfig{Kind: ProviderLXD, LXD: &LXDConfig{Profile: "p", Image: "i"}}, false},
		{"hetzner ok", ProviderConfig{Kind: ProviderHetzner, Hetzner: &HetznerConfig{ServerType: "cx22", Location: "fsn1", TokenEnv: "HCLOUD_TOKEN"}}, false},
		{"lxd missing block", ProviderConfig{Kind: ProviderLXD}, true},
		{"hetzner missing block", ProviderConfig{Kind: ProviderHetzner}, true},
		{"mismatched blocks", ProviderConfig{Kind: ProviderLXD, LXD: &LXDConfig{}, Hetzner: &HetznerConfig{}}, true},
		{"unknown kind", ProviderConfig{Kind: "vmware"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(name, tt.provider, ssh, Features{}, time.Now())
			if (err != nil) != tt.wantErr {
				t.Errorf("New with %v: err = %v, wantErr = %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}

func TestNewValidatesSSHCredentials(t *testing.T) {
	name, _ := NewName("demo")
	provider := ProviderConfig{Kind: ProviderLXD, LXD: &LXDConfig{Profile: "p", Image: "i"}}

	tests := []struct {
		name    string
		ssh     SSHCredentials
		wantErr bool
	}{
		{"ok", SSHCredentials{User: "deploy", Port: 22, PrivateKeyPath: "/k"}, false},
		{"missing user", SSHCredentials{Port: 22, PrivateKeyPath: "/k"}, true},
		{"zero port", SSHCredentials{User: "deploy", PrivateKeyPath: "/k"}, true},
		{"port out of range", SSHCredentials{User: "deploy", Port: 70000, PrivateKeyPath: "/k"}, true},
		{"missing key", SSHCredentials{User: "deploy", Port: 22}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(name, provider, tt.ssh, Features{}, time.Now())
			if (err != nil) != tt.wantErr {
				t.Errorf("New with %+v: err = %v, wantErr = %v", tt.ssh, err, tt.wantErr)
			}
		})
	}
}

// TestHappyPathCarriesPayloadForward walks the full success path and checks
// that identity and payload survive every transition.
func TestHappyPathCarriesPayloadForward(t *testing.T) {
	created := testCreated(t)
	ip := netip.MustParseAddr("10.0.0.5")

	provisioning := StartProvisioning(created)
	if provisioning.Phase() != PhaseProvisioning {
		t.Fatalf("phase after StartProvisioning = %q", provisioning.Phase())
	}
	if provisioning.InstanceIP().IsValid() {
		t.Error("provisioning environment must not carry an address yet")
	}

	provisioned := CompleteProvisioning(provisioning, ip, AddressFromProvisioner)
	if provisioned.InstanceIP() != ip {
		t.Errorf("InstanceIP = %v, want %v", provisioned.InstanceIP(), ip)
	}
	if provisioned.AddressMethod() != AddressFromProvisioner {
		t.Errorf("AddressMethod = %q", provisioned.AddressMethod())
	}

	running := StartRunning(CompleteReleasing(StartReleasing(CompleteConfiguring(StartConfiguring(provisioned)))))
	if running.Phase() != PhaseRunning {
		t.Fatalf("phase = %q, want %q", running.Phase(), PhaseRunning)
	}
	if running.Name() != created.Name() {
		t.Errorf("name changed across transitions: %q -> %q", created.Name(), running.Name())
	}
	if running.InstanceIP() != ip {
		t.Errorf("address lost across transitions: %v", running.InstanceIP())
	}
	if !running.CreatedAt().Equal(created.CreatedAt()) {
		t.Errorf("creation timestamp changed: %v -> %v", created.CreatedAt(), running.CreatedAt())
	}
}

func TestFailureAndRetryTransitions(t *testing.T) {
	provisioning := StartProvisioning(testCreated(t))
	fc := testFailure()

	failed := MarkProvisionFailed(provisioning, fc)
	if failed.Phase() != PhaseProvisionFailed {
		t.Fatalf("phase = %q", failed.Phase())
	}
	got := failed.Failure()
	if got == nil {
		t.Fatal("failed environment carries no failure context")
	}
	if got.FailedStep != fc.FailedStep {
		t.Errorf("FailedStep = %q, want %q", got.FailedStep, fc.FailedStep)
	}

	retried := RetryProvision(failed)
	if retried.Phase() != PhaseProvisioning {
		t.Fatalf("phase after retry = %q", retried.Phase())
	}
	if retried.Failure() != nil {
		t.Error("retry must clear the failure context")
	}
}

// TestTransitionGraph pins the complete legal transition graph: every phase's
// legal successor set, exhaustively. Reaching Running requires passing through
// Provisioned, Configured and Released because no other edges exist.
func TestTransitionGraph(t *testing.T) {
	legal := map[Phase][]Phase{
		PhaseCreated:         {PhaseProvisioning, PhaseDestroyed},
		PhaseProvisioning:    {PhaseProvisioned, PhaseProvisionFailed, PhaseDestroyed},
		PhaseProvisioned:     {PhaseConfiguring, PhaseDestroyed},
		PhaseConfiguring:     {PhaseConfigured, PhaseConfigureFailed, PhaseDestroyed},
		PhaseConfigured:      {PhaseReleasing, PhaseDestroyed},
		PhaseReleasing:       {PhaseReleased, PhaseReleaseFailed, PhaseDestroyed},
		PhaseReleased:        {PhaseRunning, PhaseDestroyed},
		PhaseRunning:         {PhaseRunFailed, PhaseDestroyed},
		PhaseDestroyed:       {},
		PhaseProvisionFailed: {PhaseProvisioning, PhaseDestroyed},
		PhaseConfigureFailed: {PhaseConfiguring, PhaseDestroyed},
		PhaseReleaseFailed:   {PhaseReleasing, PhaseDestroyed},
		PhaseRunFailed:       {PhaseRunning, PhaseDestroyed},
	}

	if len(legal) != len(AllPhases) {
		t.Fatalf("transition graph covers %d phases, AllPhases has %d", len(legal), len(AllPhases))
	}
	for _, p := range AllPhases {
		if _, ok := legal[p]; !ok {
			t.Errorf("transition graph is missing phase %q", p)
		}
	}

	// Running is reachable only through the full chain.
	prereqs := []Phase{PhaseProvisioned, PhaseConfigured, PhaseReleased}
	for _, prereq := range prereqs {
		if !pathExists(legal, PhaseCreated, PhaseRunning, prereq) {
			t.Errorf("no path Created -> Running through %q", prereq)
		}
	}
	if pathAvoiding(legal, PhaseCreated, PhaseRunning, prereqs) {
		t.Error("Running is reachable without passing through Provisioned, Configured and Released")
	}
}

// pathExists reports whether dst is reachable from src visiting via.
func pathExists(graph map[Phase][]Phase, src, dst, via Phase) bool {
	return reachable(graph, src, via, nil) && reachable(graph, via, dst, nil)
}

// pathAvoiding reports whether dst is reachable from src without entering any
// of the avoid phases.
func pathAvoiding(graph map[Phase][]Phase, src, dst Phase, avoid []Phase) bool {
	blocked := make(map[Phase]bool, len(avoid))
	for _, p := range avoid {
		blocked[p] = true
	}
	return reachable(graph, src, dst, blocked)
}

func reachable(graph map[Phase][]Phase, src, dst Phase, blocked map[Phase]bool) bool {
	seen := map[Phase]bool{src: true}
	queue := []Phase{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			return true
		}
		for _, next := range graph[cur] {
			if seen[next] || blocked[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

func TestPhasePredicates(t *testing.T) {
	for _, p := range AllPhases {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%q): %v", p, err)
		}
	}
	if err := Phase("booting").Validate(); err == nil {
		t.Error("Validate accepted an unknown phase")
	}

	failures := map[Phase]bool{
		PhaseProvisionFailed: true,
		PhaseConfigureFailed: true,
		PhaseReleaseFailed:   true,
		PhaseRunFailed:       true,
	}
	for _, p := range AllPhases {
		if got := p.IsFailure(); got != failures[p] {
			t.Errorf("IsFailure(%q) = %v", p, got)
		}
		if got := p.IsTerminal(); got != (p == PhaseDestroyed) {
			t.Errorf("IsTerminal(%q) = %v", p, got)
		}
	}
}
