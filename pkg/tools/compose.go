package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/telemetry"
)

// Compose runs docker compose on the remote host through the SSH transport.
// It implements engine.ComposeRunner.
type Compose struct {
	transport engine.Transport
	log       *telemetry.Logger
}

// NewCompose creates a Compose runner on top of the transport.
func NewCompose(transport engine.Transport, log *telemetry.Logger) *Compose {
	return &Compose{
		transport: transport,
		log:       log.NewComponentLogger("compose"),
	}
}

// Up starts the stack in detached mode from the remote application directory.
func (c *Compose) Up(ctx context.Context, target engine.Target, remoteDir string) error {
	command := fmt.Sprintf("cd %s && docker compose up -d", remoteDir)
	c.log.WithField("host", target.Host.String()).WithField("dir", remoteDir).Debug("starting compose stack")

	if _, err := c.transport.Run(ctx, target, command); err != nil {
		return fmt.Errorf("docker compose up: %w", err)
	}
	return nil
}

// composeContainer is one line of "docker compose ps --format json" output.
type composeContainer struct {
	Name  string `json:"Name"`
	State string `json:"State"`
}

// Services reports the name and state of every container in the stack.
func (c *Compose) Services(ctx context.Context, target engine.Target, remoteDir string) ([]engine.ServiceState, error) {
	command := fmt.Sprintf("cd %s && docker compose ps --all --format json", remoteDir)
	output, err := c.transport.Run(ctx, target, command)
	if err != nil {
		return nil, fmt.Errorf("docker compose ps: %w", err)
	}
	return parseComposeServices(output)
}

// parseComposeServices decodes the line-delimited JSON emitted by compose ps.
func parseComposeServices(output string) ([]engine.ServiceState, error) {
	var services []engine.ServiceState
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var container composeContainer
		if err := json.Unmarshal([]byte(line), &container); err != nil {
			return nil, fmt.Errorf("failed to parse compose ps output line %q: %w", line, err)
		}
		services = append(services, engine.ServiceState{
			Name:  container.Name,
			State: container.State,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read compose ps output: %w", err)
	}
	return services, nil
}
