package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"

	"github.com/envlane/envlane/pkg/engine"
)

// Upload copies a local file to the target over SFTP, creating remote parent
// directories as needed. The remote file inherits the local file's mode.
func (c *Client) Upload(ctx context.Context, target engine.Target, localPath, remotePath string) error {
	client, err := c.dial(ctx, target)
	if err != nil {
		return err
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return &TransportError{Op: "sftp", Host: target.Host.String(), Err: err}
	}
	defer sftpClient.Close()

	local, err := os.Open(localPath)
	if err != nil {
		return &TransportError{Op: "upload", Host: target.Host.String(),
			Err: fmt.Errorf("failed to open local file: %w", err)}
	}
	defer local.Close()

	info, err := local.Stat()
	if err != nil {
		return &TransportError{Op: "upload", Host: target.Host.String(), Err: err}
	}

	// sftp paths are always forward-slashed, independent of the local OS.
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := sftpClient.MkdirAll(dir); err != nil {
			return &TransportError{Op: "upload", Host: target.Host.String(),
				Err: fmt.Errorf("failed to create remote directory %s: %w", dir, err)}
		}
	}

	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return &TransportError{Op: "upload", Host: target.Host.String(),
			Err: fmt.Errorf("failed to create remote file %s: %w", remotePath, err)}
	}

	if _, err := io.Copy(remote, local); err != nil {
		_ = remote.Close()
		return &TransportError{Op: "upload", Host: target.Host.String(),
			Err: fmt.Errorf("failed to copy to %s: %w", remotePath, err)}
	}
	if err := remote.Close(); err != nil {
		return &TransportError{Op: "upload", Host: target.Host.String(), Err: err}
	}

	if err := sftpClient.Chmod(remotePath, info.Mode().Perm()); err != nil {
		return &TransportError{Op: "upload", Host: target.Host.String(),
			Err: fmt.Errorf("failed to set mode on %s: %w", remotePath, err)}
	}

	c.log.WithField("host", target.Host.String()).
		WithField("remote", remotePath).
		Debugf("uploaded %d bytes", info.Size())
	return nil
}
