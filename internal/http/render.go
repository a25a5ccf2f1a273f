package http

import (
	"bytes"
	"context"
	stdhttp "net/http"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/site"
)

// htmlResponse is the Huma output for every server-rendered page.
type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering component")
	}
	return buf.Bytes(), nil
}

// renderPage renders component with status 200, or the 500 error page when
// rendering fails.
func (s *Server) renderPage(ctx context.Context, doc *site.SiteData, component templ.Component, fields logrus.Fields) (*htmlResponse, error) {
	body, err := renderComponent(ctx, component)
	if err != nil {
		s.recordError(ctx, err, "rendering page", fields)
		return s.renderErrorResponse(ctx, doc, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}
	return newHTMLResponse(stdhttp.StatusOK, body), nil
}
