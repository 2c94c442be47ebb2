// Package config handles configuration file loading, parsing and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultBorderWidth        = 2
	DefaultTagAmount          = 9
	DefaultSquareSize         = 40
	DefaultSquareInnerPadding = 10
	DefaultSquarePadding      = 15
	DefaultSquareBorderWidth  = 1
	DefaultDuration           = 500 * time.Millisecond

	// MaxTags is the width of the compositor's tag bitmask.
	MaxTags = 32
	// MinSquareSize is the smallest square that still leaves room for the occupied indicator.
	MinSquareSize = 10
)

// Config represents the river-tag-overlay configuration.
type Config struct {
	Geometry  GeometryConfig  `toml:"geometry" yaml:"geometry"`
	Colors    ColorsConfig    `toml:"colors" yaml:"colors"`
	Placement PlacementConfig `toml:"placement" yaml:"placement"`
	Display   DisplayConfig   `toml:"display" yaml:"display"`
}

// GeometryConfig holds the widget dimensions in logical pixels.
type GeometryConfig struct {
	BorderWidth        int `toml:"border_width" yaml:"border_width"`
	TagAmount          int `toml:"tag_amount" yaml:"tag_amount"`
	SquareSize         int `toml:"square_size" yaml:"square_size"`
	SquareInnerPadding int `toml:"square_inner_padding" yaml:"square_inner_padding"`
	SquarePadding      int `toml:"square_padding" yaml:"square_padding"`
	SquareBorderWidth  int `toml:"square_border_width" yaml:"square_border_width"`
}

// ColorsConfig holds the widget palette.
type ColorsConfig struct {
	Background Color        `toml:"background" yaml:"background"`
	Border     Color        `toml:"border" yaml:"border"`
	Active     SquareColors `toml:"active" yaml:"active"`
	Inactive   SquareColors `toml:"inactive" yaml:"inactive"`
	Urgent     SquareColors `toml:"urgent" yaml:"urgent"`
}

// SquareColors is the palette of one tag square class.
type SquareColors struct {
	Background Color `toml:"background" yaml:"background"`
	Border     Color `toml:"border" yaml:"border"`
	Occupied   Color `toml:"occupied" yaml:"occupied"`
}

// PlacementConfig controls where the compositor places the widget.
type PlacementConfig struct {
	Anchors Anchors `toml:"anchors" yaml:"anchors"` // "top:right:bottom:left", 1 for on
	Margins Margins `toml:"margins" yaml:"margins"` // "top:right:bottom:left"
}

// DisplayConfig contains display timing settings.
type DisplayConfig struct {
	Duration Duration `toml:"duration" yaml:"duration"` // e.g. "500ms", "1s", or 500
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Geometry: GeometryConfig{
			BorderWidth:        DefaultBorderWidth,
			TagAmount:          DefaultTagAmount,
			SquareSize:         DefaultSquareSize,
			SquareInnerPadding: DefaultSquareInnerPadding,
			SquarePadding:      DefaultSquarePadding,
			SquareBorderWidth:  DefaultSquareBorderWidth,
		},
		Colors: ColorsConfig{
			Background: MustParseColor("0x666666"),
			Border:     MustParseColor("0x333333"),
			Active: SquareColors{
				Background: MustParseColor("0xE6803A"),
				Border:     MustParseColor("0xB24C21"),
				Occupied:   MustParseColor("0xFFB277"),
			},
			Inactive: SquareColors{
				Background: MustParseColor("0x999999"),
				Border:     MustParseColor("0x7F7F7F"),
				Occupied:   MustParseColor("0xCCCCCC"),
			},
			Urgent: SquareColors{
				Background: MustParseColor("0xEA2113"),
				Border:     MustParseColor("0xC11414"),
				Occupied:   MustParseColor("0xFF6B56"),
			},
		},
		Display: DisplayConfig{
			Duration: Duration(DefaultDuration),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "river-tag-overlay", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func isYAML(path string) bool {
	return FormatForPath(path) == FormatYAML
}

// Format is a configuration file encoding.
type Format string

// Supported configuration formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := c.Marshal(FormatForPath(path))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the configuration in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(c)
	case FormatYAML:
		return yaml.Marshal(c)
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
}

// ValidationError reports a configuration value outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	g := c.Geometry

	if g.BorderWidth < 0 {
		return &ValidationError{Field: "border_width", Message: fmt.Sprintf("must not be negative, got %d", g.BorderWidth)}
	}
	if g.TagAmount < 1 || g.TagAmount > MaxTags {
		return &ValidationError{Field: "tag_amount", Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxTags, g.TagAmount)}
	}
	if g.SquareSize < MinSquareSize {
		return &ValidationError{Field: "square_size", Message: fmt.Sprintf("must be at least %d, got %d", MinSquareSize, g.SquareSize)}
	}
	if g.SquareInnerPadding < 0 {
		return &ValidationError{Field: "square_inner_padding", Message: fmt.Sprintf("must not be negative, got %d", g.SquareInnerPadding)}
	}
	// The occupied indicator must keep at least a tenth of the square.
	if float64(2*g.SquareInnerPadding) >= 0.9*float64(g.SquareSize) {
		return &ValidationError{Field: "square_inner_padding", Message: fmt.Sprintf("too large for square_size %d, got %d", g.SquareSize, g.SquareInnerPadding)}
	}
	if g.SquarePadding < 0 {
		return &ValidationError{Field: "square_padding", Message: fmt.Sprintf("must not be negative, got %d", g.SquarePadding)}
	}
	if g.SquareBorderWidth < 0 {
		return &ValidationError{Field: "square_border_width", Message: fmt.Sprintf("must not be negative, got %d", g.SquareBorderWidth)}
	}
	if c.Display.Duration <= 0 {
		return &ValidationError{Field: "duration", Message: fmt.Sprintf("must be positive, got %s", c.Display.Duration.Duration())}
	}

	return nil
}

// SurfaceSize returns the widget size in logical pixels.
func (c *Config) SurfaceSize() (width, height int) {
	g := c.Geometry
	width = g.TagAmount*(g.SquareSize+g.SquarePadding) + g.SquarePadding + 2*g.BorderWidth
	height = g.SquareSize + 2*g.SquarePadding + 2*g.BorderWidth
	return width, height
}

// SquareColorsFor returns the palette of the given square class.
func (c *Config) SquareColorsFor(active, urgent bool) SquareColors {
	switch {
	case active:
		return c.Colors.Active
	case urgent:
		return c.Colors.Urgent
	default:
		return c.Colors.Inactive
	}
}
