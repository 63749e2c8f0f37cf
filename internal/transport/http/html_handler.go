package http

import (
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// ServeIndexPage serves the embedded dashboard page
func ServeIndexPage(webFS fs.FS, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := webFS.Open("static/index.html")
		if err != nil {
			logger.ErrorContext(r.Context(), "dashboard page missing from embedded filesystem",
				slog.String("error", err.Error()))
			http.Error(w, "Dashboard page not found", http.StatusNotFound)
			return
		}
		defer file.Close()

		// Set security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		// The page itself is tiny; always fetch the latest
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		io.Copy(w, file)
	}
}

// ServeStaticAssets creates a file server that properly sets MIME types
// for embedded files under /static
func ServeStaticAssets(webFS fs.FS, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		file, err := webFS.Open(path)
		if err != nil {
			logger.WarnContext(r.Context(), "static file not found",
				slog.String("path", path),
				slog.String("error", err.Error()))
			http.NotFound(w, r)
			return
		}
		defer file.Close()

		if stat, statErr := file.Stat(); statErr == nil && stat.IsDir() {
			http.NotFound(w, r)
			return
		}

		// Set content type based on extension; embedded files bypass the
		// usual http.FileServer sniffing
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "application/javascript")
		case ".css":
			w.Header().Set("Content-Type", "text/css")
		case ".json":
			w.Header().Set("Content-Type", "application/json")
		case ".svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		case ".png":
			w.Header().Set("Content-Type", "image/png")
		case ".ico":
			w.Header().Set("Content-Type", "image/x-icon")
		case ".woff2":
			w.Header().Set("Content-Type", "font/woff2")
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=86400")

		io.Copy(w, file)
	})
}
