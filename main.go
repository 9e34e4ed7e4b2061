package main

import (
	"embed"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"voiceballoon/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	logger := logging.FromEnv()
	app := NewApp(logger)

	err := wails.Run(&options.App{
		Title:            "VoiceBalloon",
		Width:            540,
		Height:           960,
		AlwaysOnTop:      true,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails run failed", "error", err)
	}
}
