package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a3tai/mcp-form-audit/internal/layout"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "mcp-form-audit" {
		t.Errorf("Expected default server name to be 'mcp-form-audit', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.Extractor != ExtractorCommand || cfg.ExtractorCommand != "pdftotext" {
		t.Errorf("Expected default extractor to be pdftotext, got %s/%s", cfg.Extractor, cfg.ExtractorCommand)
	}

	if cfg.ExtractorTimeout != 30*time.Second {
		t.Errorf("Expected default extractor timeout to be 30s, got %v", cfg.ExtractorTimeout)
	}

	if cfg.Limits() != layout.DefaultLimits() {
		t.Errorf("Expected default limits, got %+v", cfg.Limits())
	}

	currentDir, _ := os.Getwd()
	if cfg.Directory != currentDir {
		t.Errorf("Expected default directory to be '%s', got '%s'", currentDir, cfg.Directory)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Directory = t.TempDir()
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty directory",
			mutate:  func(c *Config) { c.Directory = "" },
			wantErr: "directory cannot be empty",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid extractor",
			mutate:  func(c *Config) { c.Extractor = "ocr" },
			wantErr: "invalid extractor",
		},
		{
			name:    "empty extractor command",
			mutate:  func(c *Config) { c.ExtractorCommand = "" },
			wantErr: "extractor command cannot be empty",
		},
		{
			name: "empty command ignored for native extractor",
			mutate: func(c *Config) {
				c.Extractor = ExtractorNative
				c.ExtractorCommand = ""
			},
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.ExtractorTimeout = -time.Second },
			wantErr: "extractor timeout cannot be negative",
		},
		{
			name:    "zero proximity threshold",
			mutate:  func(c *Config) { c.ProximityThreshold = 0 },
			wantErr: "proximity_threshold must be positive",
		},
		{
			name:    "negative checkbox size",
			mutate:  func(c *Config) { c.CheckboxSize = -8 },
			wantErr: "checkbox_size must be positive",
		},
		{
			name: "min width above max width",
			mutate: func(c *Config) {
				c.MinWidth = 200
			},
			wantErr: "min_width cannot exceed max_width",
		},
		{
			name: "min height above max height",
			mutate: func(c *Config) {
				c.MinHeight = 60
			},
			wantErr: "min_height cannot exceed max_height",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	base := t.TempDir()
	newDir := filepath.Join(base, "forms", "fl100")

	cfg := validConfig(t)
	cfg.Directory = newDir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("Expected directory to be created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected created path to be a directory")
	}
}

func TestConfigValidateDirectoryIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	cfg := validConfig(t)
	cfg.Directory = file

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Validate() error = %v, want 'not a directory'", err)
	}
}

func TestConfigLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProximityThreshold = 12
	cfg.CheckboxSize = 3.5
	cfg.PageHeight = 279

	limits := cfg.Limits()

	if limits.ProximityThreshold != 12 {
		t.Errorf("Limits().ProximityThreshold = %v, want 12", limits.ProximityThreshold)
	}
	if limits.CheckboxSize != 3.5 {
		t.Errorf("Limits().CheckboxSize = %v, want 3.5", limits.CheckboxSize)
	}
	if limits.PageHeight != 279 {
		t.Errorf("Limits().PageHeight = %v, want 279", limits.PageHeight)
	}
	if limits.MaxCheckboxColumns != layout.DefaultMaxCheckboxColumns {
		t.Errorf("Limits().MaxCheckboxColumns = %v, want %v", limits.MaxCheckboxColumns, layout.DefaultMaxCheckboxColumns)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Directory:   "/forms",
		Catalog:     "fl100.json",
		LogLevel:    "debug",
		MaxFileSize: 1024,
		Extractor:   ExtractorNative,
	}

	want := "Config{Directory: /forms, Catalog: fl100.json, LogLevel: debug, MaxFileSize: 1024, Extractor: native}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
