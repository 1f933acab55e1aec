package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/environment"
)

const validDefinition = `
environment: {
	name: "staging"
	provider: {
		kind: "lxd"
		lxd: {
			profile: "envlane"
			image:   "ubuntu:24.04"
		}
	}
	ssh: {
		user:             "deploy"
		private_key_path: "/keys/id_ed25519"
		public_key_path:  "/keys/id_ed25519.pub"
	}
}
`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return parser
}

func TestParseAppliesDefaults(t *testing.T) {
	parser := newTestParser(t)

	def, err := parser.Parse(validDefinition, "env.cue")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Name != "staging" {
		t.Errorf("Name = %q, want staging", def.Name)
	}
	if def.SSH.Port != 22 {
		t.Errorf("Port = %d, want default 22", def.SSH.Port)
	}
	if def.Features.Monitoring || def.Features.Firewall {
		t.Errorf("features = %+v, want both off by default", def.Features)
	}
	if def.Provider.LXD == nil || def.Provider.LXD.Image != "ubuntu:24.04" {
		t.Errorf("provider = %+v", def.Provider)
	}
}

func TestParseFeatureToggles(t *testing.T) {
	parser := newTestParser(t)

	source := validDefinition + `
environment: features: {
	monitoring: true
	firewall:   true
}
`
	def, err := parser.Parse(source, "env.cue")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !def.Features.Monitoring || !def.Features.Firewall {
		t.Errorf("features = %+v, want both on", def.Features)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "not cue",
			source: "environment: {{{",
		},
		{
			name: "unknown provider kind",
			source: `
environment: {
	name: "staging"
	provider: kind: "vmware"
	ssh: {
		user:             "deploy"
		private_key_path: "/k"
		public_key_path:  "/k.pub"
	}
}
`,
		},
		{
			name: "missing ssh user",
			source: `
environment: {
	name: "staging"
	provider: {
		kind: "lxd"
		lxd: {profile: "p", image: "i"}
	}
	ssh: {
		private_key_path: "/k"
		public_key_path:  "/k.pub"
	}
}
`,
		},
		{
			name: "port out of range",
			source: `
environment: {
	name: "staging"
	provider: {
		kind: "lxd"
		lxd: {profile: "p", image: "i"}
	}
	ssh: {
		user:             "deploy"
		port:             70000
		private_key_path: "/k"
		public_key_path:  "/k.pub"
	}
}
`,
		},
		{
			name:   "no environment block",
			source: `name: "staging"`,
		},
	}

	parser := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.source, "env.cue")
			if !engine.IsValidation(err) {
				t.Errorf("Parse = %v, want validation error", err)
			}
		})
	}
}

func TestParseRejectsMismatchedProviderBlock(t *testing.T) {
	parser := newTestParser(t)

	source := `
environment: {
	name: "staging"
	provider: {
		kind: "hetzner"
		lxd: {profile: "p", image: "i"}
	}
	ssh: {
		user:             "deploy"
		private_key_path: "/k"
		public_key_path:  "/k.pub"
	}
}
`
	if _, err := parser.Parse(source, "env.cue"); !engine.IsValidation(err) {
		t.Errorf("Parse = %v, want validation error", err)
	}
}

func TestParseFile(t *testing.T) {
	parser := newTestParser(t)
	path := filepath.Join(t.TempDir(), "env.cue")
	if err := os.WriteFile(path, []byte(validDefinition), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	def, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if def.Name != "staging" {
		t.Errorf("Name = %q, want staging", def.Name)
	}

	if _, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.cue")); !engine.IsValidation(err) {
		t.Errorf("ParseFile on a missing file = %v, want validation error", err)
	}
}

func TestCreateParams(t *testing.T) {
	def := &Definition{
		Name: "staging",
		Provider: ProviderDef{
			Kind: "hetzner",
			Hetzner: &HetznerDef{
				ServerType: "cx22",
				Location:   "fsn1",
				TokenEnv:   "HCLOUD_TOKEN",
			},
		},
		SSH: SSHDef{
			User:           "deploy",
			Port:           2222,
			PrivateKeyPath: "/keys/id_ed25519",
			PublicKeyPath:  "/keys/id_ed25519.pub",
		},
		Features: FeatureToggle{Monitoring: true},
	}

	params, err := def.CreateParams()
	if err != nil {
		t.Fatalf("CreateParams: %v", err)
	}
	if params.Provider.Kind != environment.ProviderHetzner {
		t.Errorf("Kind = %q, want hetzner", params.Provider.Kind)
	}
	if params.Provider.Hetzner == nil || params.Provider.Hetzner.ServerType != "cx22" {
		t.Errorf("Hetzner = %+v", params.Provider.Hetzner)
	}
	if params.SSH.Port != 2222 {
		t.Errorf("Port = %d, want 2222", params.SSH.Port)
	}
	if !params.Features.Monitoring || params.Features.Firewall {
		t.Errorf("features = %+v", params.Features)
	}
}

func TestCreateParamsExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	def := &Definition{
		Name: "staging",
		Provider: ProviderDef{
			Kind: "lxd",
			LXD:  &LXDDef{Profile: "p", Image: "i"},
		},
		SSH: SSHDef{
			User:           "deploy",
			Port:           22,
			PrivateKeyPath: "~/.ssh/id_ed25519",
			PublicKeyPath:  "~/.ssh/id_ed25519.pub",
		},
	}

	params, err := def.CreateParams()
	if err != nil {
		t.Fatalf("CreateParams: %v", err)
	}
	want := filepath.Join(home, ".ssh", "id_ed25519")
	if params.SSH.PrivateKeyPath != want {
		t.Errorf("PrivateKeyPath = %q, want %q", params.SSH.PrivateKeyPath, want)
	}
}
