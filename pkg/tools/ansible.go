package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/telemetry"
)

// inventoryHost is the managed node entry in the generated inventory.
type inventoryHost struct {
	AnsibleHost          string `yaml:"ansible_host"`
	AnsibleUser          string `yaml:"ansible_user"`
	AnsiblePort          int    `yaml:"ansible_port"`
	AnsiblePrivateKey    string `yaml:"ansible_ssh_private_key_file"`
	AnsibleSSHCommonArgs string `yaml:"ansible_ssh_common_args"`
}

type inventoryGroup struct {
	Hosts map[string]inventoryHost `yaml:"hosts"`
}

type inventory struct {
	All inventoryGroup `yaml:"all"`
}

// Ansible drives the ansible-playbook binary against a generated inventory.
// It implements engine.PlaybookRunner.
type Ansible struct {
	binary       string
	playbooksDir string
	log          *telemetry.Logger
}

// NewAnsible creates an Ansible wrapper. Playbooks are resolved as
// <playbooksDir>/<name>.yml.
func NewAnsible(playbooksDir string, log *telemetry.Logger) *Ansible {
	return &Ansible{
		binary:       "ansible-playbook",
		playbooksDir: playbooksDir,
		log:          log.NewComponentLogger("ansible"),
	}
}

// WriteInventory writes a single-host YAML inventory for the target. Host
// key checking is disabled because provisioned instances always present a
// fresh host key.
func (a *Ansible) WriteInventory(path string, target engine.Target) error {
	inv := inventory{
		All: inventoryGroup{
			Hosts: map[string]inventoryHost{
				"envlane": {
					AnsibleHost:          target.Host.String(),
					AnsibleUser:          target.SSH.User,
					AnsiblePort:          target.SSH.Port,
					AnsiblePrivateKey:    target.SSH.PrivateKeyPath,
					AnsibleSSHCommonArgs: "-o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null",
				},
			},
		},
	}

	data, err := yaml.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	a.log.WithField("path", path).WithField("host", target.Host.String()).Debug("inventory written")
	return nil
}

// RunPlaybook executes one playbook against the inventory.
func (a *Ansible) RunPlaybook(ctx context.Context, inventoryPath, playbook string) error {
	playbookPath := a.playbookPath(playbook)
	started := time.Now()

	cmd := exec.CommandContext(ctx, a.binary, "-i", inventoryPath, playbookPath)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	a.log.WithField("playbook", playbook).Debug("running playbook")
	err := cmd.Run()
	a.log.WithField("playbook", playbook).
		WithField("duration", time.Since(started).String()).
		Debug("playbook finished")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return engine.NewTimeoutError(
				fmt.Sprintf("playbook %s did not finish in time", playbook), ctxErr)
		}
		return fmt.Errorf("playbook %s: %w: %s", playbook, err, stderrTail(output.String()))
	}
	return nil
}

func (a *Ansible) playbookPath(name string) string {
	return filepath.Join(a.playbooksDir, name+".yml")
}
