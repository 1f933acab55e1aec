package engine

import (
	"context"
)

const (
	stepNameRenderInventory      = "RenderInventory"
	stepNameInstallDocker        = "InstallDocker"
	stepNameInstallDockerCompose = "InstallDockerCompose"
	stepNameConfigureFirewall    = "ConfigureFirewall"
)

// Playbook names resolved by the playbook runner.
const (
	playbookInstallDocker        = "install-docker"
	playbookInstallDockerCompose = "install-docker-compose"
	playbookConfigureFirewall    = "configure-firewall"
)

// RenderInventory writes the single-host Ansible inventory for the
// provisioned instance.
type RenderInventory struct {
	Playbooks PlaybookRunner
}

func (s *RenderInventory) Name() string { return stepNameRenderInventory }

func (s *RenderInventory) Execute(_ context.Context, sc *StepContext) error {
	if err := s.Playbooks.WriteInventory(inventoryPath(sc), sc.Target()); err != nil {
		return NewStepExecutionError("failed to write inventory", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name())
	}
	return nil
}

// InstallDocker installs the Docker engine on the instance.
type InstallDocker struct {
	Playbooks PlaybookRunner
}

func (s *InstallDocker) Name() string { return stepNameInstallDocker }

func (s *InstallDocker) Execute(ctx context.Context, sc *StepContext) error {
	return s.Playbooks.RunPlaybook(ctx, inventoryPath(sc), playbookInstallDocker)
}

// InstallDockerCompose installs the Docker Compose plugin on the instance.
type InstallDockerCompose struct {
	Playbooks PlaybookRunner
}

func (s *InstallDockerCompose) Name() string { return stepNameInstallDockerCompose }

func (s *InstallDockerCompose) Execute(ctx context.Context, sc *StepContext) error {
	return s.Playbooks.RunPlaybook(ctx, inventoryPath(sc), playbookInstallDockerCompose)
}

// ConfigureFirewall applies host firewall rules. Only scheduled for
// environments that requested the firewall feature.
type ConfigureFirewall struct {
	Playbooks PlaybookRunner
}

func (s *ConfigureFirewall) Name() string { return stepNameConfigureFirewall }

func (s *ConfigureFirewall) Execute(ctx context.Context, sc *StepContext) error {
	return s.Playbooks.RunPlaybook(ctx, inventoryPath(sc), playbookConfigureFirewall)
}
