package handlers

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"net/http"
	"time"
)

//go:embed openapi.json
var openAPISpec []byte

const (
	docsTitle   = "Landing Generator API"
	docsSpecURL = "/openapi.json"
	redocBundle = "https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"
)

// specModTime is fixed at startup so conditional requests see a stable value.
var specModTime = time.Now().UTC().Truncate(time.Second)

func docsPage(title, specURL string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>body{margin:0}redoc{display:block;height:100vh}</style>
</head>
<body>
<redoc spec-url="%s"></redoc>
<script src="%s"></script>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(specURL), redocBundle))
}

// OpenAPIJSON serves the embedded API description. HEAD and conditional
// requests are handled by http.ServeContent.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeContent(w, r, "openapi.json", specModTime, bytes.NewReader(openAPISpec))
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsPage(docsTitle, docsSpecURL))
}
