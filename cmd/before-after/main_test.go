package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"before-after/internal/config"
	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	a := assert.New(t)
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--mode", "onion-skin",
		"--value", "0.3",
		"--before", "a.png",
		"--cross-dimension-bounds",
		"--log-level", "debug",
	}))

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	a.Equal(models.Fade, cfg.Mode)
	a.Equal(0.3, cfg.Value)
	a.Equal("a.png", cfg.BeforePath)
	a.Empty(cfg.AfterPath)
	a.Equal(geometry.BoundsCrossDimension, cfg.BoundsPolicy)
	a.Equal(logger.DebugLevel, cfg.LogLevel)
	a.True(modeFromUser(rootCmd))
}

func TestNewLogger_LogFile(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "viewer.log")
	require.NoError(t, rootCmd.ParseFlags([]string{"--log-file", path}))

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	a.Equal(path, cfg.LogFile)

	log, closeLog, err := newLogger(cfg)
	require.NoError(t, err)
	log.With("export").Info("comparison exported", map[string]interface{}{"mode": "fade"})
	require.NoError(t, closeLog())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	a.Contains(string(contents), `"component":"export"`)
	a.Contains(string(contents), `"mode":"fade"`)
}

func TestNewLogger_Console(t *testing.T) {
	log, closeLog, err := newLogger(config.Default())
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, closeLog())
}

func TestNewLogger_BadPath(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "missing", "viewer.log")

	_, _, err := newLogger(cfg)
	assert.Error(t, err)
}

func writeSolid(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
}

func TestExportComparison(t *testing.T) {
	a := assert.New(t)
	dir := t.TempDir()
	before := filepath.Join(dir, "before.png")
	after := filepath.Join(dir, "after.jpg")
	out := filepath.Join(dir, "out.png")
	writeSolid(t, before, 60, 40, color.White)
	writeSolid(t, after, 30, 50, color.Black)

	cfg := config.Default()
	cfg.Mode = models.Difference
	cfg.BeforePath = before
	cfg.AfterPath = after

	require.NoError(t, exportComparison(context.Background(), cfg, out, logger.NewNop()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	a.Equal(60, img.Bounds().Dx())
	a.Equal(50, img.Bounds().Dy())
}

func TestExportComparison_MissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.BeforePath = filepath.Join(t.TempDir(), "missing.png")
	cfg.AfterPath = cfg.BeforePath

	err := exportComparison(context.Background(), cfg, filepath.Join(t.TempDir(), "out.png"), logger.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
