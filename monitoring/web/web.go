// Package web holds the monitoring dashboard.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// AssetsDirEnv names a directory served instead of the embedded dashboard,
// so that the page can be edited without rebuilding.
const AssetsDirEnv = "ETHERSIM_MONITOR_ASSETS"

//go:embed dist
var dist embed.FS

// Assets returns the files of the dashboard.
func Assets() http.FileSystem {
	if dir := os.Getenv(AssetsDirEnv); dir != "" {
		zap.S().Infow("serving monitoring page from disk", "dir", dir)
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}
