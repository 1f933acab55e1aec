package engine

import (
	"context"
	"fmt"
	"net/netip"
	"path/filepath"
	"time"
)

// Step names as they appear in logs, events and failure contexts.
const (
	stepNameRenderInfraTemplates   = "RenderInfraTemplates"
	stepNameInitInfrastructure     = "InitInfrastructure"
	stepNameValidateInfrastructure = "ValidateInfrastructure"
	stepNamePlanInfrastructure     = "PlanInfrastructure"
	stepNameApplyInfrastructure    = "ApplyInfrastructure"
	stepNameRecordInstanceAddress  = "RecordInstanceAddress"
	stepNameWaitForSSH             = "WaitForSSH"
	stepNameWaitForCloudInit       = "WaitForCloudInit"
)

// infraWorkdir is the provisioner working directory inside the build dir.
func infraWorkdir(sc *StepContext) string {
	return filepath.Join(sc.BuildDir, "infra")
}

// appBuildDir is where application artifacts are rendered.
func appBuildDir(sc *StepContext) string {
	return filepath.Join(sc.BuildDir, "app")
}

// inventoryPath is the Ansible inventory location inside the build dir.
func inventoryPath(sc *StepContext) string {
	return filepath.Join(sc.BuildDir, "ansible", "inventory.yml")
}

// RenderInfraTemplates renders the provider-specific infrastructure
// templates into the provisioner working directory.
type RenderInfraTemplates struct {
	Renderer     Renderer
	TemplatesDir string
}

func (s *RenderInfraTemplates) Name() string { return stepNameRenderInfraTemplates }

func (s *RenderInfraTemplates) Execute(ctx context.Context, sc *StepContext) error {
	templateDir := filepath.Join(s.TemplatesDir, "infra", string(sc.Env.Provider().Kind))
	if err := s.Renderer.RenderAll(ctx, templateDir, renderView(sc), infraWorkdir(sc)); err != nil {
		return NewStepExecutionError("failed to render infrastructure templates", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name())
	}
	return nil
}

// InitInfrastructure initializes the provisioner working directory.
type InitInfrastructure struct {
	Provisioner Provisioner
}

func (s *InitInfrastructure) Name() string { return stepNameInitInfrastructure }

func (s *InitInfrastructure) Execute(ctx context.Context, sc *StepContext) error {
	return s.Provisioner.Init(ctx, infraWorkdir(sc))
}

// ValidateInfrastructure checks the rendered infrastructure definition.
type ValidateInfrastructure struct {
	Provisioner Provisioner
}

func (s *ValidateInfrastructure) Name() string { return stepNameValidateInfrastructure }

func (s *ValidateInfrastructure) Execute(ctx context.Context, sc *StepContext) error {
	return s.Provisioner.Validate(ctx, infraWorkdir(sc))
}

// PlanInfrastructure computes the infrastructure changes to apply.
type PlanInfrastructure struct {
	Provisioner Provisioner
}

func (s *PlanInfrastructure) Name() string { return stepNamePlanInfrastructure }

func (s *PlanInfrastructure) Execute(ctx context.Context, sc *StepContext) error {
	return s.Provisioner.Plan(ctx, infraWorkdir(sc))
}

// ApplyInfrastructure creates the instance and records its address in the
// step outputs for later steps and the completing transition.
type ApplyInfrastructure struct {
	Provisioner Provisioner
}

func (s *ApplyInfrastructure) Name() string { return stepNameApplyInfrastructure }

func (s *ApplyInfrastructure) Execute(ctx context.Context, sc *StepContext) error {
	outputs, err := s.Provisioner.Apply(ctx, infraWorkdir(sc))
	if err != nil {
		return err
	}
	if !outputs.InstanceIP.IsValid() {
		return NewStepExecutionError("apply succeeded but reported no instance address", nil).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name()).
			WithHint("the infrastructure templates must expose an instance_ip output")
	}
	sc.Outputs.InstanceIP = outputs.InstanceIP
	sc.Outputs.InstanceID = outputs.InstanceID
	sc.Log.Infof("instance %s available at %s", outputs.InstanceID, outputs.InstanceIP)
	return nil
}

// RecordInstanceAddress puts an operator-supplied address into the step
// outputs, standing in for ApplyInfrastructure when the instance already
// exists.
type RecordInstanceAddress struct {
	IP netip.Addr
}

func (s *RecordInstanceAddress) Name() string { return stepNameRecordInstanceAddress }

func (s *RecordInstanceAddress) Execute(_ context.Context, sc *StepContext) error {
	sc.Outputs.InstanceIP = s.IP
	sc.Log.Infof("registering existing instance at %s", s.IP)
	return nil
}

// WaitForSSH blocks until the new instance accepts SSH connections.
type WaitForSSH struct {
	Transport Transport
	Timeout   time.Duration
}

func (s *WaitForSSH) Name() string { return stepNameWaitForSSH }

func (s *WaitForSSH) Execute(ctx context.Context, sc *StepContext) error {
	if err := s.Transport.WaitForConnectivity(ctx, sc.Target(), s.Timeout); err != nil {
		return NewTimeoutError(
			fmt.Sprintf("instance did not accept ssh connections within %s", s.Timeout), err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name()).
			WithHint("check the instance's console and the ssh credentials")
	}
	return nil
}

// WaitForCloudInit blocks until cloud-init has finished on the instance,
// so later workflows find a fully initialized host.
type WaitForCloudInit struct {
	Transport Transport
	Timeout   time.Duration
}

func (s *WaitForCloudInit) Name() string { return stepNameWaitForCloudInit }

func (s *WaitForCloudInit) Execute(ctx context.Context, sc *StepContext) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if _, err := s.Transport.Run(ctx, sc.Target(), "cloud-init status --wait"); err != nil {
		if ctx.Err() != nil {
			return NewTimeoutError(
				fmt.Sprintf("cloud-init did not finish within %s", s.Timeout), err).
				WithEnvironment(sc.Env.Name().String()).
				WithOperation(s.Name())
		}
		return NewStepExecutionError("cloud-init reported an error", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name()).
			WithHint("inspect /var/log/cloud-init-output.log on the instance")
	}
	return nil
}

// renderView builds the template data for the environment.
func renderView(sc *StepContext) RenderView {
	view := RenderView{
		Name:     sc.Env.Name().String(),
		SSHUser:  sc.Env.SSH().User,
		Provider: string(sc.Env.Provider().Kind),
		Features: sc.Env.Features(),
	}
	if ip := sc.Env.InstanceIP(); ip.IsValid() {
		view.InstanceIP = ip.String()
	}
	if sc.Outputs.InstanceIP.IsValid() {
		view.InstanceIP = sc.Outputs.InstanceIP.String()
	}
	return view
}
