package tools

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/environment"
	"github.com/envlane/envlane/pkg/telemetry"
)

func testLogger() *telemetry.Logger {
	return telemetry.Disabled().Logger
}

func testTarget() engine.Target {
	return engine.Target{
		Host: netip.MustParseAddr("192.0.2.10"),
		SSH: environment.SSHCredentials{
			User:           "deploy",
			Port:           22,
			PrivateKeyPath: "/keys/id_ed25519",
			PublicKeyPath:  "/keys/id_ed25519.pub",
		},
	}
}

func TestParseProvisionOutputs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantIP  string
		wantID  string
		wantErr bool
	}{
		{
			name:   "ip and id",
			raw:    `{"instance_ip": {"value": "10.140.190.68"}, "instance_id": {"value": "srv-42"}}`,
			wantIP: "10.140.190.68",
			wantID: "srv-42",
		},
		{
			name:   "ip only",
			raw:    `{"instance_ip": {"value": "192.0.2.10"}}`,
			wantIP: "192.0.2.10",
		},
		{
			name:    "missing instance_ip",
			raw:     `{"instance_id": {"value": "srv-42"}}`,
			wantErr: true,
		},
		{
			name:    "ip not a string",
			raw:     `{"instance_ip": {"value": 42}}`,
			wantErr: true,
		},
		{
			name:    "ip not an address",
			raw:     `{"instance_ip": {"value": "not-an-ip"}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "Error: no outputs found",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProvisionOutputs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseProvisionOutputs: %v", err)
			}
			if got.InstanceIP.String() != tt.wantIP {
				t.Errorf("InstanceIP = %q, want %q", got.InstanceIP, tt.wantIP)
			}
			if got.InstanceID != tt.wantID {
				t.Errorf("InstanceID = %q, want %q", got.InstanceID, tt.wantID)
			}
		})
	}
}

func TestOpenTofuDefaultsBinary(t *testing.T) {
	tofu := NewOpenTofu("", testLogger())
	if tofu.binary != "tofu" {
		t.Errorf("binary = %q, want tofu", tofu.binary)
	}
	terraform := NewOpenTofu("terraform", testLogger())
	if terraform.binary != "terraform" {
		t.Errorf("binary = %q, want terraform", terraform.binary)
	}
}

func TestWriteInventory(t *testing.T) {
	ansible := NewAnsible("playbooks", testLogger())
	path := filepath.Join(t.TempDir(), "ansible", "inventory.yml")

	if err := ansible.WriteInventory(path, testTarget()); err != nil {
		t.Fatalf("WriteInventory: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var inv inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		t.Fatalf("inventory is not valid YAML: %v", err)
	}
	host, ok := inv.All.Hosts["envlane"]
	if !ok {
		t.Fatalf("inventory hosts = %v, want envlane entry", inv.All.Hosts)
	}
	if host.AnsibleHost != "192.0.2.10" {
		t.Errorf("ansible_host = %q, want 192.0.2.10", host.AnsibleHost)
	}
	if host.AnsibleUser != "deploy" || host.AnsiblePort != 22 {
		t.Errorf("got user=%q port=%d", host.AnsibleUser, host.AnsiblePort)
	}
	if host.AnsiblePrivateKey != "/keys/id_ed25519" {
		t.Errorf("private key = %q", host.AnsiblePrivateKey)
	}
}

func TestPlaybookPath(t *testing.T) {
	ansible := NewAnsible(filepath.Join("deploy", "playbooks"), testLogger())
	got := ansible.playbookPath("install-docker")
	want := filepath.Join("deploy", "playbooks", "install-docker.yml")
	if got != want {
		t.Errorf("playbookPath = %q, want %q", got, want)
	}
}

// fakeTransport returns canned output for Run and records the commands.
type fakeTransport struct {
	commands []string
	output   string
	err      error
}

func (f *fakeTransport) Run(_ context.Context, _ engine.Target, command string) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

func (f *fakeTransport) Upload(context.Context, engine.Target, string, string) error {
	return nil
}

func (f *fakeTransport) WaitForConnectivity(context.Context, engine.Target, time.Duration) error {
	return nil
}

func TestComposeUp(t *testing.T) {
	transport := &fakeTransport{}
	compose := NewCompose(transport, testLogger())

	if err := compose.Up(context.Background(), testTarget(), "/opt/envlane/staging"); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(transport.commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(transport.commands))
	}
	want := "cd /opt/envlane/staging && docker compose up -d"
	if transport.commands[0] != want {
		t.Errorf("command = %q, want %q", transport.commands[0], want)
	}
}

func TestComposeServices(t *testing.T) {
	transport := &fakeTransport{
		output: `{"Name":"staging-tracker-1","State":"running"}
{"Name":"staging-proxy-1","State":"exited"}
`,
	}
	compose := NewCompose(transport, testLogger())

	services, err := compose.Services(context.Background(), testTarget(), "/opt/envlane/staging")
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	want := []engine.ServiceState{
		{Name: "staging-tracker-1", State: "running"},
		{Name: "staging-proxy-1", State: "exited"},
	}
	if len(services) != len(want) {
		t.Fatalf("got %d services, want %d", len(services), len(want))
	}
	for i := range want {
		if services[i] != want[i] {
			t.Errorf("services[%d] = %+v, want %+v", i, services[i], want[i])
		}
	}
}

func TestComposeServicesTransportError(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	compose := NewCompose(transport, testLogger())

	if _, err := compose.Services(context.Background(), testTarget(), "/opt/envlane/staging"); err == nil {
		t.Fatal("Services must propagate transport errors")
	}
}

func TestComposeServicesBadOutput(t *testing.T) {
	transport := &fakeTransport{output: "docker: command not found"}
	compose := NewCompose(transport, testLogger())

	if _, err := compose.Services(context.Background(), testTarget(), "/opt/envlane/staging"); err == nil {
		t.Fatal("Services must reject non-JSON output")
	}
}

func TestRenderAll(t *testing.T) {
	templates := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "build")

	writeTestFile(t, filepath.Join(templates, "compose.yaml.tmpl"),
		"services:\n  tracker:\n    environment:\n      - HOST={{ .InstanceIP }}\n")
	writeTestFile(t, filepath.Join(templates, "config", "app.env.tmpl"),
		"ENV_NAME={{ .Name }}\nSSH_USER={{ .SSHUser }}\n")
	writeTestFile(t, filepath.Join(templates, "static.txt"),
		"verbatim {{ .NotATemplate }}\n")

	view := engine.RenderView{
		Name:       "staging",
		InstanceIP: "192.0.2.10",
		SSHUser:    "deploy",
		Provider:   "lxd",
	}
	renderer := NewTemplateDir(testLogger())
	if err := renderer.RenderAll(context.Background(), templates, view, outDir); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}

	assertFileContains(t, filepath.Join(outDir, "compose.yaml"), "HOST=192.0.2.10")
	assertFileContains(t, filepath.Join(outDir, "config", "app.env"), "ENV_NAME=staging")
	assertFileContains(t, filepath.Join(outDir, "static.txt"), "verbatim {{ .NotATemplate }}")

	if _, err := os.Stat(filepath.Join(outDir, "compose.yaml.tmpl")); !os.IsNotExist(err) {
		t.Error("rendered file must not keep the .tmpl suffix")
	}
}

func TestRenderAllRejectsUnknownField(t *testing.T) {
	templates := t.TempDir()
	writeTestFile(t, filepath.Join(templates, "broken.env.tmpl"), "X={{ .NoSuchField }}\n")

	renderer := NewTemplateDir(testLogger())
	err := renderer.RenderAll(context.Background(), templates, engine.RenderView{}, t.TempDir())
	if err == nil {
		t.Fatal("rendering a template with an unknown field must fail")
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func assertFileContains(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	if !strings.Contains(string(data), want) {
		t.Errorf("%s = %q, want it to contain %q", path, data, want)
	}
}
