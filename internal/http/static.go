package http

import (
	"bytes"
	"embed"
	"io/fs"
	stdhttp "net/http"
	"time"

	"github.com/rotisserie/eris"
)

//go:embed static/*
var staticFiles embed.FS

// StaticFS returns the embedded assets, including the seed document.
func StaticFS() fs.FS {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(eris.Wrap(err, "preparing static assets filesystem"))
	}
	return assets
}

func embeddedFile(name, contentType string) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		data, err := fs.ReadFile(StaticFS(), name)
		if err != nil || len(data) == 0 {
			w.WriteHeader(stdhttp.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", contentType)
		stdhttp.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	}
}

func (s *Server) registerStaticRoutes() error {
	assets := StaticFS()
	if _, err := fs.Stat(assets, "styles.css"); err != nil {
		return eris.Wrap(err, "locating static assets")
	}

	handler := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.FS(assets)))
	s.mux.Handle("GET /static/{file}", handler)

	s.mux.HandleFunc("GET /favicon.ico", embeddedFile("favicon.svg", "image/svg+xml"))
	s.mux.HandleFunc("GET /site-data.yaml", embeddedFile("site-data.yaml", "text/yaml; charset=utf-8"))
	return nil
}
