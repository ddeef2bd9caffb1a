package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Helcaraxan/aptgraph/internal/apt"
	"github.com/Helcaraxan/aptgraph/internal/printer"
)

var (
	ErrUnknownConfigFormat = errors.New("unknown configuration file format")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

const (
	RendererDot      = "dot"
	RendererEmbedded = "embedded"

	DefaultDescriptionPath = "dependencies.dot"
	DefaultImagePath       = "dependencies.png"
	DefaultTimeout         = time.Minute
)

// Config holds the settings of a run. Values are layered: defaults, then a configuration file,
// then explicitly set command-line flags.
type Config struct {
	// Command used to retrieve package metadata. The package name is appended as last argument.
	QueryCommand []string `yaml:"query_command" toml:"query_command"`

	Renderer       string `yaml:"renderer" toml:"renderer"`
	RendererBinary string `yaml:"renderer_binary" toml:"renderer_binary"`

	DescriptionPath string `yaml:"dot_output" toml:"dot_output"`
	ImagePath       string `yaml:"output" toml:"output"`
	Format          string `yaml:"format" toml:"format"`
	Style           string `yaml:"style" toml:"style"`

	Depth int `yaml:"depth" toml:"depth"`
	// Bound on each external tool invocation. Zero disables it.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

func Default() *Config {
	return &Config{
		QueryCommand:    append([]string(nil), apt.DefaultCommand...),
		Renderer:        RendererDot,
		RendererBinary:  printer.DefaultDotBinary,
		DescriptionPath: DefaultDescriptionPath,
		ImagePath:       DefaultImagePath,
		Timeout:         DefaultTimeout,
	}
}

// Load reads the configuration file at 'path' on top of the defaults. The file format is chosen by
// extension: '.yaml' and '.yml' for YAML, '.toml' for TOML. Unknown keys are rejected.
func Load(log *zap.Logger, path string) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("Could not read configuration file.", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err = dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	case ".toml":
		md, decodeErr := toml.Decode(string(raw), c)
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, decodeErr)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidConfig, path, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfigFormat, ext)
	}

	if err = c.Validate(); err != nil {
		log.Error("Configuration file holds invalid settings.", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	log.Debug("Loaded configuration file.", zap.String("path", path))
	return c, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case len(c.QueryCommand) == 0 || c.QueryCommand[0] == "":
		return fmt.Errorf("%w: 'query_command' must not be empty", ErrInvalidConfig)
	case c.Renderer != RendererDot && c.Renderer != RendererEmbedded:
		return fmt.Errorf("%w: 'renderer' must be %q or %q, got %q", ErrInvalidConfig, RendererDot, RendererEmbedded, c.Renderer)
	case c.DescriptionPath == "":
		return fmt.Errorf("%w: 'dot_output' must not be empty", ErrInvalidConfig)
	case c.ImagePath == "":
		return fmt.Errorf("%w: 'output' must not be empty", ErrInvalidConfig)
	case c.Depth < 0:
		return fmt.Errorf("%w: 'depth' must not be negative", ErrInvalidConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: 'timeout' must not be negative", ErrInvalidConfig)
	}
	if c.Format != "" {
		if _, ok := printer.StringToFormat[strings.ToLower(c.Format)]; !ok {
			return fmt.Errorf("%w: unknown 'format' %q", ErrInvalidConfig, c.Format)
		}
	}
	return nil
}

// ImageFormat returns the configured image format, inferred from the image path when unset.
func (c *Config) ImageFormat() printer.Format {
	return printer.ResolveFormat(printer.StringToFormat[strings.ToLower(c.Format)], c.ImagePath)
}
