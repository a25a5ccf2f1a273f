package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/db"
	"staticcms/app/internal/http/templates"
	"staticcms/app/internal/render"
	"staticcms/app/internal/resolver"
	"staticcms/app/internal/site"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	errorFallbackMessage = "We couldn't process your request right now."
	notFoundMessage      = "Page not found"
	noHomeMessage        = "No home page found"
)

type listingInput struct {
	Slug string `path:"slug"`
}

type detailInput struct {
	Category string `path:"category"`
	Slug     string `path:"slug"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Pages    int    `json:"pages"`
	}
}

func (s *Server) registerPageRoutes() {
	// "/" is a catch-all on the underlying mux, so it resolves the raw path.
	huma.Get(s.api, "/", s.pathHandler, htmlOperation(
		"Render the page for a path",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/{slug}", s.listingHandler, htmlOperation(
		"Render a listing page",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/{category}/{slug}", s.detailHandler, htmlOperation(
		"Render a detail page",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) pathHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	path := RequestPathFromContext(ctx)
	if path == "" {
		path = "/"
	}

	doc := s.store.Current(ctx)
	entry, err := resolver.Resolve(doc, path)
	if err != nil {
		message := notFoundMessage
		if len(resolver.Segments(path)) == 0 {
			message = noHomeMessage
		}
		return s.notFound(ctx, doc, err, message, path)
	}

	return s.renderEntry(ctx, doc, entry)
}

func (s *Server) listingHandler(ctx context.Context, input *listingInput) (*htmlResponse, error) {
	doc := s.store.Current(ctx)
	entry, err := resolver.Listing(doc, input.Slug)
	if err != nil {
		return s.notFound(ctx, doc, err, notFoundMessage, "/"+input.Slug)
	}

	return s.renderEntry(ctx, doc, entry)
}

func (s *Server) detailHandler(ctx context.Context, input *detailInput) (*htmlResponse, error) {
	doc := s.store.Current(ctx)
	entry, err := resolver.Detail(doc, input.Category, input.Slug)
	if err != nil {
		return s.notFound(ctx, doc, err, notFoundMessage, "/"+input.Category+"/"+input.Slug)
	}

	return s.renderEntry(ctx, doc, entry)
}

func (s *Server) renderEntry(ctx context.Context, doc *site.SiteData, entry *site.PageEntry) (*htmlResponse, error) {
	layout := s.layout(doc, entry.Title, entry.Slug)

	var component templ.Component
	switch entry.Template {
	case site.TemplateHome:
		component = templates.HomePage(templates.HomePageData{
			Layout:      layout,
			Title:       entry.Title,
			Description: deref(entry.Description),
			Items:       itemViews(entry.Items),
		})
	case site.TemplateListing:
		category := entry.Slug
		if entry.Category != nil && *entry.Category != "" {
			category = *entry.Category
		}
		component = templates.ListingPage(templates.ListingPageData{
			Layout:      layout,
			Title:       entry.Title,
			Description: deref(entry.Description),
			Items:       itemViews(entry.Items),
			Entries:     entryViews(resolver.Category(doc, category)),
		})
	case site.TemplateDetail:
		data, err := detailView(doc, entry, layout)
		if err != nil {
			s.recordError(ctx, err, "rendering detail content", logrus.Fields{"slug": entry.Slug})
			return s.renderErrorResponse(ctx, doc, stdhttp.StatusInternalServerError, errorFallbackMessage)
		}
		component = templates.DetailPage(data)
	default:
		return s.renderErrorResponse(ctx, doc, stdhttp.StatusNotFound, notFoundMessage)
	}

	return s.renderPage(ctx, doc, component, logrus.Fields{"slug": entry.Slug})
}

func (s *Server) notFound(ctx context.Context, doc *site.SiteData, err error, message, path string) (*htmlResponse, error) {
	if s.logger != nil && eris.Is(err, resolver.ErrNotFound) {
		entry := s.logger.WithFields(logrus.Fields{"path": path, "component": "http"})
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Debug("page not found")
	}
	return s.renderErrorResponse(ctx, doc, stdhttp.StatusNotFound, message)
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	if err := db.Ping(ctx, s.db); err != nil {
		s.recordError(ctx, err, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if doc := s.store.Current(ctx); doc != nil {
		resp.Body.Pages = len(doc.Pages)
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) layout(doc *site.SiteData, pageTitle, activeSlug string) templates.LayoutData {
	data := templates.LayoutData{
		PageTitle: pageTitle,
		Year:      s.now().Year(),
	}
	if doc == nil {
		return data
	}

	data.SiteTitle = doc.Site.Title
	data.SiteDescription = doc.Site.Description
	for _, page := range doc.Pages {
		if page.Template != site.TemplateListing {
			continue
		}
		data.Nav = append(data.Nav, templates.NavLink{
			Label:  page.Title,
			URL:    "/" + page.Slug,
			Active: page.Slug == activeSlug,
		})
	}
	return data
}

func detailView(doc *site.SiteData, entry *site.PageEntry, layout templates.LayoutData) (templates.DetailPageData, error) {
	article, err := render.Detail(*entry)
	if err != nil {
		return templates.DetailPageData{}, err
	}

	data := templates.DetailPageData{
		Layout:        layout,
		Title:         entry.Title,
		Description:   deref(entry.Description),
		Author:        deref(entry.Author),
		PublishDate:   formatDate(deref(entry.PublishDate)),
		ReadTime:      article.ReadTime,
		FeaturedImage: deref(entry.FeaturedImage),
		HTML:          article.HTML,
		Tags:          entry.Tags,
	}

	for _, heading := range article.Outline {
		data.Outline = append(data.Outline, templates.OutlineLink{ID: heading.ID, Text: heading.Text})
	}

	if category := entry.CategoryOrEmpty(); category != "" {
		data.CategoryLabel = render.CategoryLabel(category)
		if listing, err := resolver.Listing(doc, category); err == nil {
			data.CategoryURL = "/" + listing.Slug
			data.CategoryLabel = listing.Title
		}
	}

	return data, nil
}

func itemViews(items []site.PageItem) []templates.ItemView {
	views := make([]templates.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, templates.ItemView{
			Title:       item.Title,
			Description: deref(item.Description),
			Link:        deref(item.Link),
		})
	}
	return views
}

func entryViews(entries []site.PageEntry) []templates.EntryView {
	views := make([]templates.EntryView, 0, len(entries))
	for _, entry := range entries {
		view := templates.EntryView{
			Title:       entry.Title,
			Description: deref(entry.Description),
			URL:         "/" + entry.CategoryOrEmpty() + "/" + entry.Slug,
			Author:      deref(entry.Author),
			PublishDate: formatDate(deref(entry.PublishDate)),
		}
		if entry.ReadTime != nil {
			view.ReadTime = *entry.ReadTime
		}
		views = append(views, view)
	}
	return views
}

func formatDate(value string) string {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return value
	}
	return parsed.Format("January 2, 2006")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, doc *site.SiteData, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	template := templates.ErrorPage(templates.ErrorPageData{
		Layout:      s.layout(doc, label, ""),
		StatusLabel: label,
		Message:     message,
	})

	body, err := renderComponent(ctx, template)
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
