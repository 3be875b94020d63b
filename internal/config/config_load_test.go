package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("mcp-form-audit", pflag.ContinueOnError)
}

func TestLoad_DefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(newFlagSet(), []string{"--dir", dir})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Directory != dir {
		t.Errorf("Load() Directory = %v, want %v", cfg.Directory, dir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Load() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.ProximityThreshold != 10 {
		t.Errorf("Load() ProximityThreshold = %v, want 10", cfg.ProximityThreshold)
	}
	if cfg.ExtractorTimeout != 30*time.Second {
		t.Errorf("Load() ExtractorTimeout = %v, want 30s", cfg.ExtractorTimeout)
	}
}

func TestLoad_ValidFlags(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "log level",
			args: []string{"--loglevel=debug"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Errorf("IsDebug() = false, want true")
				}
			},
		},
		{
			name: "extractor",
			args: []string{"--extractor=native"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Extractor != ExtractorNative {
					t.Errorf("Extractor = %v, want native", cfg.Extractor)
				}
			},
		},
		{
			name: "thresholds",
			args: []string{"--proximity_threshold=4.5", "--checkbox_size=3.5", "--spread_tolerance", "30"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ProximityThreshold != 4.5 {
					t.Errorf("ProximityThreshold = %v, want 4.5", cfg.ProximityThreshold)
				}
				if cfg.CheckboxSize != 3.5 {
					t.Errorf("CheckboxSize = %v, want 3.5", cfg.CheckboxSize)
				}
				if cfg.SpreadTolerance != 30 {
					t.Errorf("SpreadTolerance = %v, want 30", cfg.SpreadTolerance)
				}
			},
		},
		{
			name: "timeout and catalog",
			args: []string{"--extractor_timeout=5s", "--catalog=fl100.yaml"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ExtractorTimeout != 5*time.Second {
					t.Errorf("ExtractorTimeout = %v, want 5s", cfg.ExtractorTimeout)
				}
				if cfg.Catalog != "fl100.yaml" {
					t.Errorf("Catalog = %v, want fl100.yaml", cfg.Catalog)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newFlagSet(), append([]string{"--dir", dir}, tt.args...))
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORM_AUDIT_DIR", dir)
	t.Setenv("FORM_AUDIT_LOGLEVEL", "warn")
	t.Setenv("FORM_AUDIT_EXTRACTOR", "none")
	t.Setenv("FORM_AUDIT_PROXIMITY_THRESHOLD", "7")

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Directory != dir {
		t.Errorf("Directory = %v, want %v", cfg.Directory, dir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.Extractor != ExtractorNone {
		t.Errorf("Extractor = %v, want none", cfg.Extractor)
	}
	if cfg.ProximityThreshold != 7 {
		t.Errorf("ProximityThreshold = %v, want 7", cfg.ProximityThreshold)
	}
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORM_AUDIT_LOGLEVEL", "warn")

	cfg, err := Load(newFlagSet(), []string{"--dir", dir, "--loglevel", "error"})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error", cfg.LogLevel)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "audit.yaml")
	content := "loglevel: debug\ncheckbox_size: 3.5\nextractor: native\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(newFlagSet(), []string{"--dir", dir, "--config", file, "--extractor", "none"})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ConfigFile != file {
		t.Errorf("ConfigFile = %v, want %v", cfg.ConfigFile, file)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.CheckboxSize != 3.5 {
		t.Errorf("CheckboxSize = %v, want 3.5", cfg.CheckboxSize)
	}
	if cfg.Extractor != ExtractorNone {
		t.Errorf("Extractor = %v, want none (flag wins over file)", cfg.Extractor)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"--dir", t.TempDir(), "--config", "/nonexistent/audit.yaml"})
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want config file error", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"invalid log level", []string{"--loglevel=verbose"}},
		{"invalid extractor", []string{"--extractor=ocr"}},
		{"non-positive threshold", []string{"--proximity_threshold=0"}},
		{"unknown flag", []string{"--port=8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlagSet(), append([]string{"--dir", dir}, tt.args...))
			if err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoad_VersionFlag(t *testing.T) {
	for _, arg := range []string{"--version", "-version", "-v"} {
		t.Run(arg, func(t *testing.T) {
			_, err := Load(newFlagSet(), []string{arg})
			if !errors.Is(err, ErrVersionRequested) {
				t.Errorf("Load() error = %v, want ErrVersionRequested", err)
			}
		})
	}
}

func TestLoad_CallerFlagsPreserved(t *testing.T) {
	fs := newFlagSet()
	reference := fs.String("reference", "", "reference document")

	_, err := Load(fs, []string{"--dir", t.TempDir(), "--reference", "ref.pdf"})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if *reference != "ref.pdf" {
		t.Errorf("reference = %v, want ref.pdf", *reference)
	}
}
