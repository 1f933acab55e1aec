// Package ssh provides the SSH transport used to reach provisioned
// instances: remote command execution, file upload over SFTP, and a
// connectivity poll used right after provisioning.
//
// Connections are established per call against the engine.Target passed in.
// Instances are created fresh for every environment, so host key
// verification is disabled; the target address comes from the provisioner,
// not from user input.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/telemetry"
)

// Config holds SSH transport configuration.
type Config struct {
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration

	// RetryInterval is the pause between connectivity poll attempts.
	RetryInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		RetryInterval:  5 * time.Second,
	}
}

// TransportError wraps a failed transport operation with the host it was
// directed at.
type TransportError struct {
	Op   string
	Host string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ssh %s %s: %v", e.Op, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client implements engine.Transport over SSH with key authentication.
type Client struct {
	config Config
	log    *telemetry.Logger
}

// NewClient creates an SSH transport client.
func NewClient(config Config, log *telemetry.Logger) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultConfig().RetryInterval
	}
	return &Client{
		config: config,
		log:    log.NewComponentLogger("ssh"),
	}
}

// Run executes a command on the target and returns its combined output.
func (c *Client) Run(ctx context.Context, target engine.Target, command string) (string, error) {
	client, err := c.dial(ctx, target)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", &TransportError{Op: "session", Host: target.Host.String(), Err: err}
	}
	defer session.Close()

	var output bytes.Buffer
	session.Stdout = &output
	session.Stderr = &output

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return output.String(), &TransportError{Op: "run", Host: target.Host.String(), Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return output.String(), &TransportError{Op: "run", Host: target.Host.String(), Err: err}
		}
		return output.String(), nil
	}
}

// WaitForConnectivity polls the target until an SSH session can run a
// command, or the timeout elapses.
func (c *Client) WaitForConnectivity(ctx context.Context, target engine.Target, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := c.log.WithField("host", target.Host.String())
	log.Debugf("waiting up to %s for SSH connectivity", timeout)

	attempt := 0
	var lastErr error
	for {
		attempt++
		if _, err := c.Run(ctx, target, "true"); err == nil {
			log.Debugf("SSH reachable after %d attempts", attempt)
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return &TransportError{Op: "wait", Host: target.Host.String(), Err: lastErr}
		case <-time.After(c.config.RetryInterval):
		}
	}
}

// dial opens an SSH connection to the target, honoring the context.
func (c *Client) dial(ctx context.Context, target engine.Target) (*ssh.Client, error) {
	clientConfig, err := c.clientConfig(target)
	if err != nil {
		return nil, err
	}

	address := fmt.Sprintf("%s:%d", target.Host.String(), target.SSH.Port)

	type dialResult struct {
		client *ssh.Client
		err    error
	}
	result := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", address, clientConfig)
		result <- dialResult{client: client, err: err}
	}()

	select {
	case <-ctx.Done():
		// The dialer goroutine closes the connection when it loses the race.
		go func() {
			if r := <-result; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return nil, &TransportError{Op: "dial", Host: target.Host.String(), Err: ctx.Err()}
	case r := <-result:
		if r.err != nil {
			return nil, &TransportError{Op: "dial", Host: target.Host.String(), Err: r.err}
		}
		return r.client, nil
	}
}

func (c *Client) clientConfig(target engine.Target) (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(target.SSH.PrivateKeyPath)
	if err != nil {
		return nil, &TransportError{Op: "auth", Host: target.Host.String(),
			Err: fmt.Errorf("failed to read private key: %w", err)}
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var passErr *ssh.PassphraseMissingError
		if errors.As(err, &passErr) {
			return nil, &TransportError{Op: "auth", Host: target.Host.String(),
				Err: fmt.Errorf("private key %s is passphrase protected", target.SSH.PrivateKeyPath)}
		}
		return nil, &TransportError{Op: "auth", Host: target.Host.String(),
			Err: fmt.Errorf("failed to parse private key: %w", err)}
	}

	return &ssh.ClientConfig{
		User:            target.SSH.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // instances are freshly provisioned
		Timeout:         c.config.ConnectTimeout,
	}, nil
}
