package handlers

import (
	"net/http"
	"os"
)

func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}

// Static serves FileStore artifacts under /static/.
func (a *App) Static() http.Handler {
	if a.StaticDir == "" {
		return http.NotFoundHandler()
	}
	if _, err := os.Stat(a.StaticDir); err != nil {
		a.Logger.Warn().Err(err).Str("dir", a.StaticDir).Msg("static directory unavailable")
	}
	return http.StripPrefix("/static/", http.FileServer(http.Dir(a.StaticDir)))
}
