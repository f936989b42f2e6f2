package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"before-after/internal/config"
	"before-after/internal/controllers"
	"before-after/internal/event"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/memory"
	"before-after/internal/services"
	"before-after/internal/shutdown"
	"before-after/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName = "Before After"
	AppID   = "com.imagecompare.before-after"

	prefLastMode    = "last_mode"
	eventQueueSize  = 16
	monitorInterval = 30 * time.Second
)

// Application wires models, services, controller and view together
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger
	config  config.Config

	controller *controllers.MainController
	view       *views.MainView

	imageService     *services.ImageService
	compositeService *services.CompositeService
	imageRepo        *models.ImageRepository
	memoryManager    *memory.Manager
	broker           *event.Broker
	shutdown         *shutdown.Manager
}

// NewApplication builds the application. When useSavedMode is set the mode the
// user last picked replaces cfg.Mode.
func NewApplication(cfg config.Config, log *logger.ZerologLogger, useSavedMode bool) (*Application, error) {
	fyneApp := app.NewWithID(AppID)
	prefs := fyneApp.Preferences()
	if useSavedMode {
		if mode, err := models.ParseDiffMode(prefs.StringWithFallback(prefLastMode, cfg.Mode.String())); err == nil {
			cfg.Mode = mode
		}
	}

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(cfg.WindowWidth, cfg.WindowHeight))
	window.CenterOnScreen()

	log.Info("application starting", map[string]interface{}{
		"version":    version,
		"mode":       cfg.Mode.String(),
		"value":      cfg.Value,
		"bounds":     cfg.BoundsPolicy.String(),
		"go_version": runtime.Version(),
		"log_level":  cfg.LogLevel.String(),
	})

	memManager := memory.NewManager(log.With("memory"))
	imageRepo := models.NewImageRepository()
	broker := event.NewBroker(eventQueueSize, log.With("broker"))

	imageService := services.NewImageService(memManager, imageRepo, broker, log.With("images"))
	compositeService := services.NewCompositeService(memManager, imageRepo, log.With("composite"))

	controller := controllers.NewMainController(
		imageService, compositeService,
		imageRepo, memManager, broker,
		log.With("controller"), cfg,
	)
	view := views.NewMainView(window, cfg.Margins)
	if err := controller.SetMainView(view); err != nil {
		return nil, err
	}
	view.SetupMenus(AppName, version)

	view.OnModeChanged = func(mode models.DiffMode) {
		prefs.SetString(prefLastMode, mode.String())
	}
	if err := broker.ConnectToGui(event.ModeChanged, func(mode models.DiffMode) {
		window.SetTitle(fmt.Sprintf("%s - %s", AppName, mode.Title()))
	}); err != nil {
		return nil, err
	}
	window.SetTitle(fmt.Sprintf("%s - %s", AppName, cfg.Mode.Title()))

	shutdownManager := shutdown.NewManager(log.With("shutdown"))
	shutdownManager.Register("memory manager", memManager)
	shutdownManager.Register("image service", shutdown.Func(imageService.Cleanup))
	shutdownManager.Register("broker", broker)
	shutdownManager.Register("controller", controller)

	application := &Application{
		fyneApp:          fyneApp,
		window:           window,
		logger:           log,
		config:           cfg,
		controller:       controller,
		view:             view,
		imageService:     imageService,
		compositeService: compositeService,
		imageRepo:        imageRepo,
		memoryManager:    memManager,
		broker:           broker,
		shutdown:         shutdownManager,
	}

	application.setupWindowEvents()
	return application, nil
}

// Run shows the window, starts the CLI preloads and blocks until the window closes
func (app *Application) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app.logger.Info("starting application UI", nil)

	// Signals cancel ctx.
	go func() {
		select {
		case <-ctx.Done():
			app.shutdown.Shutdown()
			fyne.Do(app.fyneApp.Quit)
		case <-app.shutdown.Done():
		}
	}()
	go app.startPerformanceMonitoring()

	if app.config.BeforePath != "" {
		app.controller.LoadPath(models.Before, app.config.BeforePath)
	}
	if app.config.AfterPath != "" {
		app.controller.LoadPath(models.After, app.config.AfterPath)
	}

	app.window.ShowAndRun()
	app.shutdown.Shutdown()
	return nil
}

func (app *Application) setupWindowEvents() {
	app.window.SetCloseIntercept(func() {
		if _, _, loaded := app.imageRepo.Both(); !loaded {
			app.window.Close()
			return
		}
		app.view.ShowConfirm("Exit", "Close the comparison?", func(confirmed bool) {
			if confirmed {
				app.window.Close()
			}
		})
	})

	app.window.SetOnClosed(func() {
		app.logger.Info("window closed, performing cleanup", nil)
		app.shutdown.Shutdown()
	})
}

func (app *Application) startPerformanceMonitoring() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.logPerformanceMetrics()
		case <-app.shutdown.Done():
			return
		}
	}
}

func (app *Application) logPerformanceMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	matStats := app.memoryManager.GetStats()
	renderStats := app.compositeService.GetRenderStats()
	imageStats := app.imageRepo.GetImageStats()

	app.logger.Debug("performance metrics", map[string]interface{}{
		"go_memory_mb":       memStats.Alloc / 1024 / 1024,
		"go_gc_runs":         memStats.NumGC,
		"opencv_active_mats": matStats.ActiveMats,
		"opencv_memory_mb":   matStats.InUse() / 1024 / 1024,
		"pool_hits":          matStats.PoolHits,
		"renders":            renderStats.TotalRendered,
		"avg_render_ms":      renderStats.AverageTime().Milliseconds(),
		"images_in_memory":   imageStats.LoadedCount,
		"goroutine_count":    runtime.NumGoroutine(),
	})

	app.view.SetMemoryInfo(matStats.InUse(), matStats.MaxAllowed)
}
