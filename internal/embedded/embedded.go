// Package embedded provides the client page served to phones and tablets.
package embedded

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed client/*
var clientFS embed.FS

// Handler serves the client UI. A non-empty dir serves files from disk
// instead, for working on the page without rebuilding.
func Handler(dir string) http.Handler {
	if dir != "" {
		return noCache(http.FileServer(http.Dir(dir)))
	}
	return http.FileServer(http.FS(Files()))
}

// Files returns the embedded client files rooted at the page directory
func Files() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
