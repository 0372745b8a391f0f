package server

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// GetStaticFS returns the embedded web UI filesystem
func GetStaticFS() fs.FS {
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil
	}
	return subFS
}
