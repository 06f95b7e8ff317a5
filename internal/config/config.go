package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf2img/internal/convert"
	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

const (
	// Mode constants
	ModeConvert = "convert"
	ModeStdio   = "stdio"

	// Default values
	DefaultLogLevel = "info"
	DefaultName     = "pdf2img"

	// EnvPrefix prefixes every environment variable, e.g. PDF2IMG_WIDTH.
	EnvPrefix = "PDF2IMG"

	// Directory permissions
	DefaultDirPerm = 0o750
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInputNotFound = errors.New("input file not found")
	// ErrVersion is returned by Load when --version was given.
	ErrVersion = errors.New("version requested")
)

// Config holds all configuration for a pdf2img invocation
type Config struct {
	Mode string // "convert" or "stdio"

	// Conversion
	InputPath  string
	OutputPath string
	Width      int
	Quality    int
	Format     convert.Format

	// Pipeline tuning
	PageTimeout time.Duration
	WorkDir     string
	Inspector   inspect.Backend
	Pdftoppm    string
	PageFormat  raster.PageFormat

	// MCP stdio mode
	PDFDirectory string

	LogLevel string
	Quiet    bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeConvert,
		Width:        convert.DefaultWidth,
		Quality:      convert.DefaultQuality,
		Format:       convert.DefaultFormat,
		PageTimeout:  convert.DefaultPageTimeout,
		Inspector:    inspect.BackendAuto,
		Pdftoppm:     raster.DefaultPdftoppm,
		PageFormat:   raster.PagePNG,
		PDFDirectory: currentDir,
		LogLevel:     DefaultLogLevel,
	}
}

// Load parses args (without the program name) and the PDF2IMG_* environment
// into a validated Config. It returns pflag.ErrHelp for --help and ErrVersion
// for --version; usage goes to out.
func Load(args []string, out io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet(DefaultName, pflag.ContinueOnError)
	fs.SetOutput(out)
	defineCommandLineFlags(fs, cfg)
	fs.Usage = usage(fs, out)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if version, _ := fs.GetBool("version"); version {
		return nil, ErrVersion
	}

	v := newViper(cfg)
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("%w: binding flags: %w", ErrInvalidConfig, err)
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}

	switch positional := fs.Args(); {
	case len(positional) == 1:
		cfg.InputPath = positional[0]
	case len(positional) > 1:
		return nil, fmt.Errorf("%w: expected one input file, got %d", ErrInvalidConfig, len(positional))
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Mode == ModeConvert && cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath(cfg.InputPath, cfg.Format)
	}

	return cfg, nil
}

// newViper configures a viper instance with environment variables and defaults
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("width", cfg.Width)
	v.SetDefault("quality", cfg.Quality)
	v.SetDefault("format", string(cfg.Format))
	v.SetDefault("timeout", cfg.PageTimeout)
	v.SetDefault("inspector", string(cfg.Inspector))
	v.SetDefault("pdftoppm", cfg.Pdftoppm)
	v.SetDefault("page-format", string(cfg.PageFormat))
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	return v
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringP("output", "o", "", "Output image path (default: <input dir>/<input name>.<format>)")
	fs.IntP("width", "w", cfg.Width, "Target width of the output image in pixels")
	fs.IntP("quality", "q", cfg.Quality, "Output quality 1-100 (JPEG/WebP quality, PNG compression effort)")
	fs.StringP("format", "f", string(cfg.Format), "Output format: jpg, jpeg, png or webp")
	fs.Duration("timeout", cfg.PageTimeout, "Rasterization timeout per page")
	fs.String("workdir", "", "Parent directory for temporary page files (default: system temp)")
	fs.String("inspector", string(cfg.Inspector), "Page count backend: auto, pdfcpu, ledongthuc or pdfinfo")
	fs.String("pdftoppm", cfg.Pdftoppm, "Path to the pdftoppm executable")
	fs.String("page-format", string(cfg.PageFormat), "Intermediate page format: png, jpeg or tiff")
	fs.String("mode", cfg.Mode, "Run mode: 'convert' for one document, 'stdio' for the MCP tool server")
	fs.String("dir", cfg.PDFDirectory, "Directory the MCP tools may read from and write to (stdio mode only)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("quiet", false, "Disable the progress bar")
	fs.BoolP("version", "v", false, "Print version information and exit")
}

// usage builds the custom usage message
func usage(fs *pflag.FlagSet, out io.Writer) func() {
	return func() {
		fmt.Fprintf(out, "Usage: %s [flags] <input.pdf>\n", DefaultName)
		fmt.Fprintf(out, "\npdf2img - render every page of a PDF into one tall image\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s report.pdf                          # report.jpg, 1200px wide\n", DefaultName)
		fmt.Fprintf(out, "  %s -f png -w 800 -o out.png report.pdf # PNG, 800px wide\n", DefaultName)
		fmt.Fprintf(out, "  %s --mode=stdio --dir=/path/to/pdfs    # MCP tool server\n", DefaultName)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_<FLAG>  any flag, upper-cased with '-' as '_' (e.g. %s_PAGE_FORMAT)\n",
			EnvPrefix, EnvPrefix)
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.Mode = strings.ToLower(v.GetString("mode"))
	cfg.OutputPath = v.GetString("output")
	cfg.Width = v.GetInt("width")
	cfg.Quality = v.GetInt("quality")
	cfg.PageTimeout = v.GetDuration("timeout")
	cfg.WorkDir = v.GetString("workdir")
	cfg.Pdftoppm = v.GetString("pdftoppm")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.Quiet = v.GetBool("quiet")

	format, err := convert.ParseFormat(v.GetString("format"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Format = format

	backend, err := inspect.ParseBackend(v.GetString("inspector"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.Inspector = backend

	pageFormat, err := raster.ParsePageFormat(v.GetString("page-format"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.PageFormat = pageFormat

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeConvert && c.Mode != ModeStdio {
		return fmt.Errorf("%w: mode must be either 'convert' or 'stdio'", ErrInvalidConfig)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: invalid log level: %s (must be one of: debug, info, warn, error)",
			ErrInvalidConfig, c.LogLevel)
	}

	if c.Width <= 0 {
		return fmt.Errorf("%w: width must be a positive integer, got %d", ErrInvalidConfig, c.Width)
	}
	if c.Quality < convert.MinQuality || c.Quality > convert.MaxQuality {
		return fmt.Errorf("%w: quality must be between %d and %d, got %d",
			ErrInvalidConfig, convert.MinQuality, convert.MaxQuality, c.Quality)
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.PageTimeout)
	}
	if c.Pdftoppm == "" {
		return fmt.Errorf("%w: pdftoppm path cannot be empty", ErrInvalidConfig)
	}

	if c.Mode == ModeStdio {
		return c.validateDirectory()
	}
	return c.validateInput()
}

func (c *Config) validateInput() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: missing input PDF (usage: %s [flags] <input.pdf>)", ErrInvalidConfig, DefaultName)
	}

	info, err := os.Stat(c.InputPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, c.InputPath)
	} else if err != nil {
		return fmt.Errorf("%w: cannot access %s: %w", ErrInvalidConfig, c.InputPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidConfig, c.InputPath)
	}
	return nil
}

func (c *Config) validateDirectory() error {
	if c.PDFDirectory == "" {
		return fmt.Errorf("%w: PDF directory cannot be empty", ErrInvalidConfig)
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("%w: cannot create PDF directory %s: %w", ErrInvalidConfig, c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("%w: cannot access PDF directory %s: %w", ErrInvalidConfig, c.PDFDirectory, err)
	}
	return nil
}

// DefaultOutputPath places the output next to input, named after it, with
// the extension of format.
func DefaultOutputPath(input string, format convert.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+format.Extension())
}

// Request returns the conversion request described by the configuration.
func (c *Config) Request() convert.Request {
	return convert.Request{
		DocumentPath: c.InputPath,
		OutputPath:   c.OutputPath,
		Width:        c.Width,
		Quality:      c.Quality,
		Format:       c.Format,
	}
}

// SlogLevel returns the configured log level for log/slog
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if the MCP tool server should run
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, Output: %s, Width: %d, Quality: %d, Format: %s, "+
		"Timeout: %s, Inspector: %s, LogLevel: %s}",
		c.Mode, c.InputPath, c.OutputPath, c.Width, c.Quality, c.Format,
		c.PageTimeout, c.Inspector, c.LogLevel)
}
