// Package main is the production entry point for PulseViz.
//
// PulseViz renders a 12-band audio-reactive bar visualizer driven by a
// player's playback position and pre-computed track analysis:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - Ports and adapters around the rendering engine
//
// Build:
//
//	go build -o build/pulseviz ./cmd
//
// Run against an external player:
//
//	./build/pulseviz -player http://localhost:9090
//
// Or in demo mode, analyzing local WAV files:
//
//	./build/pulseviz -music ~/Music/wav
package main

import (
	"flag"
	"log"

	"github.com/tejashwikalptaru/pulseviz/internal/app"
)

func main() {
	config := app.DefaultConfig()

	flag.StringVar(&config.PlayerURL, "player", "",
		"base URL of the player API (empty for demo mode)")
	flag.StringVar(&config.MusicDir, "music", "",
		"directory of WAV files analyzed locally in demo mode")
	flag.DurationVar(&config.PollInterval, "poll", config.PollInterval,
		"playback status poll interval")
	flag.IntVar(&config.Visualizer.FrameRate, "fps", config.Visualizer.FrameRate,
		"render frames per second")
	flag.Parse()

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Shutdown()

	// Blocks until the window is closed
	application.Run()
}
