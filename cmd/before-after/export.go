package main

import (
	"context"
	"errors"
	"fmt"

	"before-after/internal/config"
	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/memory"
	"before-after/internal/services"

	"github.com/spf13/cobra"
)

var outPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a comparison to an image file without opening a window",
	Long: `Loads --before and --after, renders them in --mode at their natural
size and writes the result. The output format follows the extension of --out.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&outPath, "out", "comparison.png", "Output image path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.BeforePath == "" || cfg.AfterPath == "" {
		return errors.New("export needs both --before and --after")
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	return exportComparison(cmd.Context(), cfg, outPath, log)
}

// exportComparison loads both images from cfg and writes the composite to out
func exportComparison(ctx context.Context, cfg config.Config, out string, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	mem := memory.NewManager(log)
	defer mem.Shutdown()
	repo := models.NewImageRepository()
	defer repo.Shutdown()

	images := services.NewImageService(mem, repo, nil, log)
	composite := services.NewCompositeService(mem, repo, log)

	state := models.NewComparisonState(cfg.Mode, cfg.Value)
	for _, load := range []struct {
		slot models.Slot
		path string
	}{
		{models.Before, cfg.BeforePath},
		{models.After, cfg.AfterPath},
	} {
		data, err := images.LoadFile(ctx, load.slot, load.path)
		if err != nil {
			return err
		}
		state = models.Reduce(state, models.ImageLoaded{Slot: load.slot, Size: data.Size()})
	}

	box, ok := geometry.SharedBounds(state.Before, state.After, cfg.BoundsPolicy)
	if !ok {
		return services.ErrNotReady
	}
	img, err := composite.Render(ctx, state.Mode, state.Value, box)
	if err != nil {
		return err
	}
	if err := images.SaveFile(out, img); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	log.Info("comparison exported", map[string]interface{}{
		"mode":   state.Mode.String(),
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
		"path":   out,
	})
	return nil
}
