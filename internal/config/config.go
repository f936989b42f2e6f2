package config

import (
	"fmt"
	"os"
	"strconv"

	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"
)

const (
	DefaultWindowWidth  = 1200
	DefaultWindowHeight = 800
	DefaultValue        = 0.5
)

// Config holds everything the viewer reads at startup
type Config struct {
	LogLevel     logger.LogLevel
	Mode         models.DiffMode
	Value        float64
	BoundsPolicy geometry.BoundsPolicy
	Margins      geometry.Margins
	BeforePath   string
	AfterPath    string
	LogFile      string
	WindowWidth  float32
	WindowHeight float32
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		LogLevel:     logger.InfoLevel,
		Mode:         models.SideBySide,
		Value:        DefaultValue,
		BoundsPolicy: geometry.BoundsMatched,
		Margins:      geometry.DefaultMargins(),
		WindowWidth:  DefaultWindowWidth,
		WindowHeight: DefaultWindowHeight,
	}
}

// FromEnv applies LOG_LEVEL, DEBUG, BEFORE_AFTER_LOG_FILE, BEFORE_AFTER_MODE
// and BEFORE_AFTER_VALUE on top of the defaults.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("LOG_LEVEL"); ok {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	} else if v, ok := lookup("DEBUG"); ok && v == "1" {
		cfg.LogLevel = logger.DebugLevel
	}
	if v, ok := lookup("BEFORE_AFTER_LOG_FILE"); ok {
		cfg.LogFile = v
	}

	if v, ok := lookup("BEFORE_AFTER_MODE"); ok {
		mode, err := models.ParseDiffMode(v)
		if err != nil {
			return cfg, fmt.Errorf("BEFORE_AFTER_MODE: %w", err)
		}
		cfg.Mode = mode
	}

	if v, ok := lookup("BEFORE_AFTER_VALUE"); ok {
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("BEFORE_AFTER_VALUE: %w", err)
		}
		cfg.Value = value
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %d", int(c.Mode))
	}
	if c.Value < 0 || c.Value > 1 {
		return fmt.Errorf("value %.3f outside [0, 1]", c.Value)
	}
	if c.Margins.Padding < 0 || c.Margins.ControlsHeight < 0 {
		return fmt.Errorf("margins must not be negative")
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size %.0fx%.0f must be positive", c.WindowWidth, c.WindowHeight)
	}
	return nil
}
