package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/environment"
)

// Definition is a decoded environment definition file.
type Definition struct {
	Name     string        `json:"name" validate:"required"`
	Provider ProviderDef   `json:"provider" validate:"required"`
	SSH      SSHDef        `json:"ssh" validate:"required"`
	Features FeatureToggle `json:"features"`
}

// ProviderDef selects the provisioning backend. Exactly one of the
// backend-specific blocks must be set, matching the kind.
type ProviderDef struct {
	Kind    string      `json:"kind" validate:"required,oneof=lxd hetzner"`
	LXD     *LXDDef     `json:"lxd,omitempty"`
	Hetzner *HetznerDef `json:"hetzner,omitempty"`
}

// LXDDef holds parameters for the local LXD backend.
type LXDDef struct {
	Profile string `json:"profile" validate:"required"`
	Image   string `json:"image" validate:"required"`
}

// HetznerDef holds parameters for the Hetzner Cloud backend.
type HetznerDef struct {
	ServerType string `json:"server_type" validate:"required"`
	Location   string `json:"location" validate:"required"`
	TokenEnv   string `json:"token_env" validate:"required"`
}

// SSHDef holds the credentials used to reach the instance.
type SSHDef struct {
	User           string `json:"user" validate:"required"`
	Port           int    `json:"port" validate:"min=1,max=65535"`
	PrivateKeyPath string `json:"private_key_path" validate:"required"`
	PublicKeyPath  string `json:"public_key_path" validate:"required"`
}

// FeatureToggle enables optional workflow steps.
type FeatureToggle struct {
	Monitoring bool `json:"monitoring"`
	Firewall   bool `json:"firewall"`
}

// CreateParams converts the definition into engine create parameters,
// expanding a leading ~ in the key paths.
func (d *Definition) CreateParams() (engine.CreateParams, error) {
	privateKey, err := expandPath(d.SSH.PrivateKeyPath)
	if err != nil {
		return engine.CreateParams{}, err
	}
	publicKey, err := expandPath(d.SSH.PublicKeyPath)
	if err != nil {
		return engine.CreateParams{}, err
	}

	provider := environment.ProviderConfig{
		Kind: environment.ProviderKind(d.Provider.Kind),
	}
	if d.Provider.LXD != nil {
		provider.LXD = &environment.LXDConfig{
			Profile: d.Provider.LXD.Profile,
			Image:   d.Provider.LXD.Image,
		}
	}
	if d.Provider.Hetzner != nil {
		provider.Hetzner = &environment.HetznerConfig{
			ServerType: d.Provider.Hetzner.ServerType,
			Location:   d.Provider.Hetzner.Location,
			TokenEnv:   d.Provider.Hetzner.TokenEnv,
		}
	}

	return engine.CreateParams{
		Name:     d.Name,
		Provider: provider,
		SSH: environment.SSHCredentials{
			User:           d.SSH.User,
			Port:           d.SSH.Port,
			PrivateKeyPath: privateKey,
			PublicKeyPath:  publicKey,
		},
		Features: environment.Features{
			Monitoring: d.Features.Monitoring,
			Firewall:   d.Features.Firewall,
		},
	}, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
