package main

import (
	"fmt"
	"os"

	"before-after/internal/config"
	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"

	"github.com/spf13/cobra"
)

var (
	beforePath   string
	afterPath    string
	modeName     string
	value        float64
	logLevel     string
	logFile      string
	crossBounds  bool
	windowWidth  float32
	windowHeight float32
)

var rootCmd = &cobra.Command{
	Use:   "before-after",
	Short: "Compare two images side by side, by swipe, onion skin or difference",
	Long: `before-after opens a window that compares a before image with an after
image. Keys 1-4 switch between 2-up, swipe, onion skin and difference modes;
Left and Right move the slider.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runViewer,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&beforePath, "before", "", "Before image to load at startup")
	flags.StringVar(&afterPath, "after", "", "After image to load at startup")
	flags.StringVar(&modeName, "mode", models.SideBySide.String(), "Comparison mode: side-by-side, swipe, fade, difference")
	flags.Float64Var(&value, "value", config.DefaultValue, "Initial slider position between 0 and 1")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "Append JSON logs to this file instead of the console")
	flags.BoolVar(&crossBounds, "cross-dimension-bounds", false, "Size the shared frame from the before width and the after height")

	rootCmd.Flags().Float32Var(&windowWidth, "width", config.DefaultWindowWidth, "Initial window width")
	rootCmd.Flags().Float32Var(&windowHeight, "height", config.DefaultWindowHeight, "Initial window height")
}

// loadConfig layers flags the user set over the environment over defaults
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return cfg, fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("mode") {
		mode, err := models.ParseDiffMode(modeName)
		if err != nil {
			return cfg, fmt.Errorf("--mode: %w", err)
		}
		cfg.Mode = mode
	}
	if flags.Changed("value") {
		cfg.Value = value
	}
	if crossBounds {
		cfg.BoundsPolicy = geometry.BoundsCrossDimension
	}
	if flags.Changed("width") {
		cfg.WindowWidth = windowWidth
	}
	if flags.Changed("height") {
		cfg.WindowHeight = windowHeight
	}
	cfg.BeforePath = beforePath
	cfg.AfterPath = afterPath

	return cfg, cfg.Validate()
}

// newLogger writes JSON lines to cfg.LogFile when one is set and to the console
// otherwise. The returned func closes the file.
func newLogger(cfg config.Config) (*logger.ZerologLogger, func() error, error) {
	if cfg.LogFile == "" {
		return logger.NewStructuredLogger(cfg.LogLevel), func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("--log-file: %w", err)
	}
	return logger.NewFileLogger(cfg.LogLevel, f), f.Close, nil
}

// modeFromUser reports whether the mode was chosen by flag or environment
func modeFromUser(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("mode") {
		return true
	}
	_, ok := os.LookupEnv("BEFORE_AFTER_MODE")
	return ok
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	application, err := NewApplication(cfg, log, !modeFromUser(cmd))
	if err != nil {
		return fmt.Errorf("application initialization failed: %w", err)
	}
	return application.Run(cmd.Context())
}
