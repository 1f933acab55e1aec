package tools

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/envlane/envlane/pkg/engine"
	"github.com/envlane/envlane/pkg/telemetry"
)

// templateExt marks files that are rendered instead of copied verbatim.
const templateExt = ".tmpl"

// TemplateDir renders an on-disk template tree into a build directory. Files
// ending in .tmpl go through text/template with the render view and lose the
// suffix; everything else is copied as is, preserving the relative layout.
// It implements engine.Renderer.
type TemplateDir struct {
	log *telemetry.Logger
}

// NewTemplateDir creates a template directory renderer.
func NewTemplateDir(log *telemetry.Logger) *TemplateDir {
	return &TemplateDir{log: log.NewComponentLogger("renderer")}
}

// RenderAll walks templateDir and materializes every file under outDir.
// Referencing a view field that does not exist fails the render rather than
// writing an empty value into a config file.
func (r *TemplateDir) RenderAll(ctx context.Context, templateDir string, view engine.RenderView, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered := 0
	err := filepath.WalkDir(templateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}

		if strings.HasSuffix(d.Name(), templateExt) {
			dst = strings.TrimSuffix(dst, templateExt)
			if err := r.renderFile(path, view, dst); err != nil {
				return err
			}
		} else if err := copyFile(path, dst); err != nil {
			return err
		}
		rendered++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to render template directory %s: %w", templateDir, err)
	}

	r.log.WithField("templates", templateDir).
		WithField("out", outDir).
		Debugf("rendered %d files", rendered)
	return nil
}

func (r *TemplateDir) renderFile(src string, view engine.RenderView, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	tmpl, err := template.New(filepath.Base(src)).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(out, view); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to render template %s: %w", src, err)
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
