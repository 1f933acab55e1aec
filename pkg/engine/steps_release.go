package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

const (
	stepNameRenderAppTemplates     = "RenderAppTemplates"
	stepNameUploadComposeFiles     = "UploadComposeFiles"
	stepNameUploadMonitoringConfig = "UploadMonitoringConfig"
	stepNameUploadAppConfig        = "UploadAppConfig"
)

// remoteAppRoot is where application artifacts live on the instance.
const remoteAppRoot = "/opt/envlane"

// remoteAppDir is the per-environment application directory on the instance.
func remoteAppDir(sc *StepContext) string {
	return path.Join(remoteAppRoot, sc.Env.Name().String())
}

// RenderAppTemplates renders the application artifact templates (compose
// stack, service configs, optional monitoring configs) into the build dir.
type RenderAppTemplates struct {
	Renderer     Renderer
	TemplatesDir string
}

func (s *RenderAppTemplates) Name() string { return stepNameRenderAppTemplates }

func (s *RenderAppTemplates) Execute(ctx context.Context, sc *StepContext) error {
	templateDir := filepath.Join(s.TemplatesDir, "app")
	if err := s.Renderer.RenderAll(ctx, templateDir, renderView(sc), appBuildDir(sc)); err != nil {
		return NewStepExecutionError("failed to render application templates", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name())
	}
	return nil
}

// UploadComposeFiles ships the compose stack definition to the instance.
type UploadComposeFiles struct {
	Transport Transport
}

func (s *UploadComposeFiles) Name() string { return stepNameUploadComposeFiles }

func (s *UploadComposeFiles) Execute(ctx context.Context, sc *StepContext) error {
	local := filepath.Join(appBuildDir(sc), "compose.yaml")
	remote := path.Join(remoteAppDir(sc), "compose.yaml")
	if err := s.Transport.Upload(ctx, sc.Target(), local, remote); err != nil {
		return NewStepExecutionError("failed to upload compose file", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name())
	}
	return nil
}

// UploadMonitoringConfig ships the monitoring stack configuration. Only
// scheduled for environments that requested the monitoring feature.
type UploadMonitoringConfig struct {
	Transport Transport
}

func (s *UploadMonitoringConfig) Name() string { return stepNameUploadMonitoringConfig }

func (s *UploadMonitoringConfig) Execute(ctx context.Context, sc *StepContext) error {
	return uploadDir(ctx, s.Transport, sc,
		filepath.Join(appBuildDir(sc), "monitoring"),
		path.Join(remoteAppDir(sc), "monitoring"),
		s.Name())
}

// UploadAppConfig ships the rendered service configuration files.
type UploadAppConfig struct {
	Transport Transport
}

func (s *UploadAppConfig) Name() string { return stepNameUploadAppConfig }

func (s *UploadAppConfig) Execute(ctx context.Context, sc *StepContext) error {
	return uploadDir(ctx, s.Transport, sc,
		filepath.Join(appBuildDir(sc), "config"),
		path.Join(remoteAppDir(sc), "config"),
		s.Name())
}

// uploadDir copies every regular file under localDir to the corresponding
// path under remoteDir, preserving the relative layout.
func uploadDir(ctx context.Context, t Transport, sc *StepContext, localDir, remoteDir, step string) error {
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		remote := path.Join(remoteDir, filepath.ToSlash(rel))
		return t.Upload(ctx, sc.Target(), p, remote)
	})
	if err != nil {
		if os.IsNotExist(err) {
			return NewStepExecutionError(
				fmt.Sprintf("rendered directory %s is missing", localDir), err).
				WithEnvironment(sc.Env.Name().String()).
				WithOperation(step).
				WithHint("the render step should have produced it; check the template pack")
		}
		return NewStepExecutionError("failed to upload rendered files", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(step)
	}
	return nil
}
