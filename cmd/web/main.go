package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/app"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/infrastructure"
)

// Embedded dashboard frontend
//go:embed all:static
var staticFiles embed.FS

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// The app falls back to API-only mode when the page assets are missing
	var webFS fs.FS
	if _, err := fs.Stat(staticFiles, "static/index.html"); err == nil {
		webFS = staticFiles
	} else {
		slog.Warn("Dashboard page not embedded, serving API only", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(webFS)
	if err != nil {
		return err
	}
	defer func() {
		if err := infrastructure.CloseLogFile(); err != nil {
			slog.Error("Failed to close log file", slog.String("error", err.Error()))
		}
	}()

	return application.Run()
}
