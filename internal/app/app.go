// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	analysismem "github.com/tejashwikalptaru/pulseviz/internal/adapter/analysis/memory"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/analysis/wavfile"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/config/fyneprefs"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/player/httpapi"
	playermem "github.com/tejashwikalptaru/pulseviz/internal/adapter/player/memory"
	fyneui "github.com/tejashwikalptaru/pulseviz/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/pulseviz/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/logger"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
	"github.com/tejashwikalptaru/pulseviz/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	logger  *slog.Logger
	fyneApp fyne.App

	eventBus    ports.EventBus
	source      ports.PlaybackSource
	provider    ports.AnalysisProvider
	configStore ports.ConfigStore

	engine *service.Engine
	poller *service.Poller

	mainWindow *fyneui.MainWindow
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// PlayerURL is the base URL of the external player API. Empty selects
	// the built-in demo player.
	PlayerURL string

	// MusicDir is a directory of WAV files analyzed locally in demo mode.
	// Empty selects synthetic demo analyses instead.
	MusicDir string

	// PollInterval is the playback status poll cadence.
	PollInterval time.Duration

	// Visualizer holds the engine tunables.
	Visualizer domain.VisualizerConfig

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:        "com.pulseviz.app",
		AppName:      "PulseViz",
		PollInterval: 250 * time.Millisecond,
		Visualizer:   domain.DefaultVisualizerConfig(),
		LogLevel:     loggerCfg.Level,
	}
}

// demoTracks is the playlist used when no external player is configured.
var demoTracks = []playermem.Track{
	{ID: "demo-one", Duration: 30},
	{ID: "demo-two", Duration: 45},
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	loggerCfg := logger.Config{
		Level:  config.LogLevel,
		Format: "text",
	}
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	app.eventBus = eventbus.NewSyncEventBus(
		app.logger.With(slog.String("component", "eventbus")))

	// A previously saved configuration overrides the injected defaults.
	app.configStore = fyneprefs.NewStore(app.fyneApp.Preferences())
	if saved, ok, err := app.configStore.Load(); err != nil {
		app.logger.Warn("failed to load saved config", slog.Any("error", err))
	} else if ok {
		config.Visualizer = saved
		app.logger.Info("restored saved visualizer config")
	}

	if err := app.wirePlayer(config); err != nil {
		return nil, err
	}

	surface := widgets.NewBarSurface(domain.BandCount, config.Visualizer.BarGap)
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, config.AppName, surface)

	engine, err := service.NewEngine(
		app.logger.With(slog.String("component", "engine")),
		app.eventBus,
		app.provider,
		surface,
		config.Visualizer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	app.engine = engine

	app.poller = service.NewPoller(
		app.logger.With(slog.String("component", "poller")),
		app.source,
		app.engine,
		config.PollInterval,
	)

	app.mainWindow.SetOnBeforeClose(app.Shutdown)

	return app, nil
}

// wirePlayer selects the playback source and analysis provider.
func (a *Application) wirePlayer(config Config) error {
	if config.PlayerURL != "" {
		client := httpapi.NewClient(
			a.logger.With(slog.String("component", "httpapi")),
			httpapi.DefaultConfig(config.PlayerURL),
		)
		a.source = client
		a.provider = client
		a.logger.Info("using external player", slog.String("url", config.PlayerURL))
		return nil
	}

	a.source = playermem.NewSource(demoTracks)

	if config.MusicDir != "" {
		a.provider = wavfile.NewAnalyzer(
			a.logger.With(slog.String("component", "wavfile")),
			config.MusicDir,
		)
		a.logger.Info("using local wav analyzer", slog.String("dir", config.MusicDir))
		return nil
	}

	provider := analysismem.NewProvider()
	for _, t := range demoTracks {
		provider.Register(analysismem.DemoAnalysis(t.ID, t.Duration))
	}
	a.provider = provider
	a.logger.Info("using synthetic demo analyses")
	return nil
}

// Start begins polling the playback source. Rendering starts on its own as
// soon as the first analysis commits.
func (a *Application) Start() {
	a.poller.Start()
	a.logger.Info("PulseViz started")
}

// Run starts the application and blocks until the window closes.
func (a *Application) Run() {
	a.Start()
	a.mainWindow.ShowAndRun()
}

// Engine exposes the visualizer engine, mainly for runtime configuration.
func (a *Application) Engine() *service.Engine {
	return a.engine
}

// Shutdown gracefully shuts down the application.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	if a.poller != nil {
		a.poller.Stop()
	}

	if a.engine != nil && a.configStore != nil {
		if err := a.configStore.Save(a.engine.Config()); err != nil {
			a.logger.Warn("failed to save config", slog.Any("error", err))
		}
	}

	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn("failed to close engine", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}
