package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default config is valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantErr: "service name",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "bad exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "jaeger2" },
			wantErr: "invalid trace exporter",
		},
		{
			name:    "sampling rate out of range",
			mutate:  func(c *Config) { c.Tracing.SamplingRate = 1.5 },
			wantErr: "sampling rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerEmitsComponentAndWorkflowFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, "debug").
		NewComponentLogger("engine").
		WithEnvironment("staging").
		WithWorkflow("provision").
		WithStep("ApplyInfrastructure")

	log.Info("step started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	for key, want := range map[string]string{
		"component":   "engine",
		"environment": "staging",
		"workflow":    "provision",
		"step":        "ApplyInfrastructure",
		"message":     "step started",
	} {
		if got, _ := entry[key].(string); got != want {
			t.Errorf("entry[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, "warn")

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")

	if got := buf.String(); strings.Contains(got, "hidden") {
		t.Errorf("suppressed levels leaked into output: %s", got)
	}
	if got := buf.String(); !strings.Contains(got, "visible") {
		t.Errorf("warn entry missing from output: %s", got)
	}
}

func TestDisabledTelemetryIsSafe(t *testing.T) {
	tel := Disabled()

	tel.Logger.Info("ignored")
	tel.Metrics.RecordWorkflowStarted("provision")
	tel.Metrics.RecordStepExecution("provision", "ApplyInfrastructure", "completed", 0)
	tel.Metrics.RecordError("step_execution")

	ctx, span := tel.Tracer.StartWorkflowSpan(t.Context(), "provision", "staging", "run-1")
	defer span.End()
	if _, stepSpan := tel.Tracer.StartStepSpan(ctx, "ApplyInfrastructure"); stepSpan != nil {
		stepSpan.End()
	}
}
