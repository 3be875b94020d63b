package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a3tai/mcp-form-audit/internal/layout"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Extractor choices
	ExtractorCommand = "pdftotext"
	ExtractorNative  = "native"
	ExtractorNone    = "none"

	// Default values
	DefaultLogLevel         = "info"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultExtractor        = ExtractorCommand
	DefaultExtractorCommand = "pdftotext"
	DefaultExtractorTimeout = 30 * time.Second

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "FORM_AUDIT"
)

// ErrVersionRequested is returned by Load when a version flag is present
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the form audit server and CLI
type Config struct {
	// Files
	Directory  string // sandbox for every path handed to the service
	Catalog    string // default catalog when a request names none
	ConfigFile string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum document size in bytes

	// Text extraction
	Extractor        string
	ExtractorCommand string
	ExtractorTimeout time.Duration

	// Layout thresholds, in millimetres
	ProximityThreshold float64
	SpreadTolerance    float64
	CheckboxSize       float64
	PageWidth          float64
	PageHeight         float64
	MinWidth           float64
	MaxWidth           float64
	MinHeight          float64
	MaxHeight          float64
	MinTextareaHeight  float64
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	limits := layout.DefaultLimits()
	return &Config{
		Directory:          currentDir,
		Version:            "1.0.0",
		ServerName:         "mcp-form-audit",
		LogLevel:           DefaultLogLevel,
		MaxFileSize:        DefaultMaxFileSize,
		Extractor:          DefaultExtractor,
		ExtractorCommand:   DefaultExtractorCommand,
		ExtractorTimeout:   DefaultExtractorTimeout,
		ProximityThreshold: limits.ProximityThreshold,
		SpreadTolerance:    limits.SpreadTolerance,
		CheckboxSize:       limits.CheckboxSize,
		PageWidth:          limits.PageWidth,
		PageHeight:         limits.PageHeight,
		MinWidth:           limits.MinWidth,
		MaxWidth:           limits.MaxWidth,
		MinHeight:          limits.MinHeight,
		MaxHeight:          limits.MaxHeight,
		MinTextareaHeight:  limits.MinTextareaHeight,
	}
}

// LoadFromFlags parses the process command line and returns a configuration
func LoadFromFlags() (*Config, error) {
	setupUsageMessage(pflag.CommandLine)
	return Load(pflag.CommandLine, os.Args[1:])
}

// Load defines the configuration flags on fs, parses args and resolves values
// in priority order flag, environment, config file, default. Callers may
// define their own flags on fs beforehand.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)

	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := bindFlagsToViper(v, fs); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures environment lookup and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("catalog", cfg.Catalog)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("extractor", cfg.Extractor)
	v.SetDefault("extractor_command", cfg.ExtractorCommand)
	v.SetDefault("extractor_timeout", cfg.ExtractorTimeout)
	for _, f := range thresholdFlags(cfg) {
		v.SetDefault(f.name, *f.dst)
	}
}

type floatFlag struct {
	name  string
	dst   *float64
	usage string
}

func thresholdFlags(cfg *Config) []floatFlag {
	return []floatFlag{
		{"proximity_threshold", &cfg.ProximityThreshold, "Centre distance below which two fields are too close (mm)"},
		{"spread_tolerance", &cfg.SpreadTolerance, "Maximum vertical spread of an aligned section (mm)"},
		{"checkbox_size", &cfg.CheckboxSize, "Required checkbox width and height (mm)"},
		{"page_width", &cfg.PageWidth, "Maximum X coordinate (mm)"},
		{"page_height", &cfg.PageHeight, "Maximum Y coordinate (mm)"},
		{"min_width", &cfg.MinWidth, "Minimum usual field width (mm)"},
		{"max_width", &cfg.MaxWidth, "Maximum usual field width (mm)"},
		{"min_height", &cfg.MinHeight, "Minimum usual field height (mm)"},
		{"max_height", &cfg.MaxHeight, "Maximum usual field height (mm)"},
		{"min_textarea_height", &cfg.MinTextareaHeight, "Minimum textarea height (mm)"},
	}
}

// defineCommandLineFlags sets up all configuration flags on fs
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "Optional configuration file (yaml, json or toml)")
	fs.String("dir", cfg.Directory, "Directory containing catalogs and documents")
	fs.String("catalog", cfg.Catalog, "Default field catalog (json or yaml)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	fs.String("extractor", cfg.Extractor, "Text extractor: 'pdftotext', 'native' or 'none'")
	fs.String("extractor_command", cfg.ExtractorCommand, "External text extraction command")
	fs.Duration("extractor_timeout", cfg.ExtractorTimeout, "Timeout for the external extraction command (0 disables)")
	for _, f := range thresholdFlags(cfg) {
		fs.Float64(f.name, *f.dst, f.usage)
	}
}

// bindFlagsToViper binds every defined flag of fs to its viper key
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(flag *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(flag.Name, flag); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	})
	return bindErr
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Audit - layout validation and document comparison for form fields\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                    # current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms               # custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --extractor=native --loglevel=debug # in-process extraction\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_DIR          Working directory\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_CATALOG      Default catalog\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOGLEVEL     Log level\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_MAXFILESIZE  Maximum file size\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_EXTRACTOR    Text extractor\n", EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.ConfigFile = v.GetString("config")
	cfg.Directory = v.GetString("dir")
	cfg.Catalog = v.GetString("catalog")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.Extractor = v.GetString("extractor")
	cfg.ExtractorCommand = v.GetString("extractor_command")
	cfg.ExtractorTimeout = v.GetDuration("extractor_timeout")
	for _, f := range thresholdFlags(cfg) {
		*f.dst = v.GetFloat64(f.name)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.New("directory cannot be empty")
	}
	// Create the working directory if it doesn't exist
	if info, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", c.Directory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	switch c.Extractor {
	case ExtractorCommand:
		if c.ExtractorCommand == "" {
			return errors.New("extractor command cannot be empty")
		}
	case ExtractorNative, ExtractorNone:
	default:
		return fmt.Errorf("invalid extractor: %s (must be one of: pdftotext, native, none)", c.Extractor)
	}
	if c.ExtractorTimeout < 0 {
		return errors.New("extractor timeout cannot be negative")
	}

	for _, f := range thresholdFlags(c) {
		if *f.dst <= 0 {
			return fmt.Errorf("%s must be positive", f.name)
		}
	}
	if c.MinWidth > c.MaxWidth {
		return errors.New("min_width cannot exceed max_width")
	}
	if c.MinHeight > c.MaxHeight {
		return errors.New("min_height cannot exceed max_height")
	}

	return nil
}

// Limits returns the layout thresholds
func (c *Config) Limits() layout.Limits {
	limits := layout.DefaultLimits()
	limits.ProximityThreshold = c.ProximityThreshold
	limits.SpreadTolerance = c.SpreadTolerance
	limits.CheckboxSize = c.CheckboxSize
	limits.PageWidth = c.PageWidth
	limits.PageHeight = c.PageHeight
	limits.MinWidth = c.MinWidth
	limits.MaxWidth = c.MaxWidth
	limits.MinHeight = c.MinHeight
	limits.MaxHeight = c.MaxHeight
	limits.MinTextareaHeight = c.MinTextareaHeight
	return limits
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Directory: %s, Catalog: %s, LogLevel: %s, MaxFileSize: %d, Extractor: %s}",
		c.Directory, c.Catalog, c.LogLevel, c.MaxFileSize, c.Extractor)
}
