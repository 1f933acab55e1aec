package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
	"time"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/telemetry"
)

// stderrTailLen bounds how much subprocess stderr is folded into errors.
const stderrTailLen = 1024

// OpenTofu drives the tofu binary in a working directory. It implements
// engine.Provisioner.
type OpenTofu struct {
	binary string
	log    *telemetry.Logger
}

// NewOpenTofu creates an OpenTofu wrapper. The binary defaults to "tofu";
// pass a different name to use terraform instead.
func NewOpenTofu(binary string, log *telemetry.Logger) *OpenTofu {
	if binary == "" {
		binary = "tofu"
	}
	return &OpenTofu{
		binary: binary,
		log:    log.NewComponentLogger("opentofu"),
	}
}

// Init runs "tofu init" in the working directory.
func (t *OpenTofu) Init(ctx context.Context, workdir string) error {
	_, err := t.run(ctx, workdir, "init", "-input=false")
	return err
}

// Validate runs "tofu validate" in the working directory.
func (t *OpenTofu) Validate(ctx context.Context, workdir string) error {
	_, err := t.run(ctx, workdir, "validate")
	return err
}

// Plan runs "tofu plan" in the working directory.
func (t *OpenTofu) Plan(ctx context.Context, workdir string) error {
	_, err := t.run(ctx, workdir, "plan", "-input=false")
	return err
}

// Apply runs "tofu apply" and reads the instance outputs the templates are
// required to expose: instance_ip (required) and instance_id (optional).
func (t *OpenTofu) Apply(ctx context.Context, workdir string) (engine.ProvisionOutputs, error) {
	if _, err := t.run(ctx, workdir, "apply", "-auto-approve", "-input=false"); err != nil {
		return engine.ProvisionOutputs{}, err
	}

	raw, err := t.run(ctx, workdir, "output", "-json")
	if err != nil {
		return engine.ProvisionOutputs{}, err
	}
	return parseProvisionOutputs(raw)
}

// Destroy runs "tofu destroy" in the working directory.
func (t *OpenTofu) Destroy(ctx context.Context, workdir string) error {
	_, err := t.run(ctx, workdir, "destroy", "-auto-approve", "-input=false")
	return err
}

func (t *OpenTofu) run(ctx context.Context, workdir string, args ...string) (string, error) {
	started := time.Now()
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Dir = workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.log.WithField("args", strings.Join(args, " ")).Debugf("running %s in %s", t.binary, workdir)
	err := cmd.Run()
	t.log.WithField("duration", time.Since(started).String()).Debugf("%s %s finished", t.binary, args[0])

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", engine.NewTimeoutError(
				fmt.Sprintf("%s %s did not finish in time", t.binary, args[0]), ctxErr)
		}
		return "", fmt.Errorf("%s %s: %w: %s", t.binary, args[0], err, stderrTail(stderr.String()))
	}
	return stdout.String(), nil
}

// tofuOutput is one entry in the "tofu output -json" document.
type tofuOutput struct {
	Value json.RawMessage `json:"value"`
}

func parseProvisionOutputs(raw string) (engine.ProvisionOutputs, error) {
	var outputs map[string]tofuOutput
	if err := json.Unmarshal([]byte(raw), &outputs); err != nil {
		return engine.ProvisionOutputs{}, fmt.Errorf("failed to parse tofu outputs: %w", err)
	}

	ipOut, ok := outputs["instance_ip"]
	if !ok {
		return engine.ProvisionOutputs{}, fmt.Errorf("tofu outputs missing instance_ip")
	}
	var ipStr string
	if err := json.Unmarshal(ipOut.Value, &ipStr); err != nil {
		return engine.ProvisionOutputs{}, fmt.Errorf("instance_ip output is not a string: %w", err)
	}
	ip, err := netip.ParseAddr(ipStr)
	if err != nil {
		return engine.ProvisionOutputs{}, fmt.Errorf("instance_ip output %q is not a valid address: %w", ipStr, err)
	}

	result := engine.ProvisionOutputs{InstanceIP: ip}
	if idOut, ok := outputs["instance_id"]; ok {
		if err := json.Unmarshal(idOut.Value, &result.InstanceID); err != nil {
			return engine.ProvisionOutputs{}, fmt.Errorf("instance_id output is not a string: %w", err)
		}
	}
	return result, nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLen {
		s = "..." + s[len(s)-stderrTailLen:]
	}
	if s == "" {
		return "(no stderr output)"
	}
	return s
}
