package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/auth"
	"staticcms/app/internal/codec"
	"staticcms/app/internal/http/templates"
	"staticcms/app/internal/site"
	"staticcms/app/internal/store"
)

const exportDisposition = `attachment; filename="` + store.SeedFileName + `"`

type sessionInput struct {
	Session string `cookie:"cms_admin_session"`
}

type loginInput struct {
	Body struct {
		Password string `json:"password" doc:"Admin password"`
	}
}

type sessionOutput struct {
	SetCookie stdhttp.Cookie `header:"Set-Cookie"`
}

type saveInput struct {
	Session string `cookie:"cms_admin_session"`
	Body    struct {
		Document string `json:"document" doc:"Full document text"`
	}
}

type saveOutput struct {
	Body struct {
		Status string `json:"status"`
		Pages  int    `json:"pages"`
		Bytes  int    `json:"bytes"`
	}
}

type newPage struct {
	Slug          string   `json:"slug" minLength:"1"`
	Title         string   `json:"title" minLength:"1"`
	Template      string   `json:"template" enum:"home,listing,detail"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Author        string   `json:"author,omitempty"`
	PublishDate   string   `json:"publishDate,omitempty"`
	ReadTime      int      `json:"readTime,omitempty" minimum:"0"`
	FeaturedImage string   `json:"featuredImage,omitempty"`
	Content       string   `json:"content,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

type addPageInput struct {
	Session string `cookie:"cms_admin_session"`
	Body    struct {
		Document string  `json:"document,omitempty" doc:"Working document; the committed text is used when empty"`
		Page     newPage `json:"page"`
	}
}

type workingDocument struct {
	Document string `json:"document,omitempty" doc:"Working document; the committed text is used when empty"`
}

type removePageInput struct {
	Session string           `cookie:"cms_admin_session"`
	Slug    string           `path:"slug"`
	Body    *workingDocument `required:"false"`
}

type documentOutput struct {
	Body struct {
		Document string `json:"document"`
		Pages    int    `json:"pages"`
		Removed  int    `json:"removed,omitempty"`
	}
}

type exportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (s *Server) registerAdminRoutes() {
	huma.Get(s.api, "/admin", s.adminHandler, htmlOperation("Admin screen"))

	huma.Register(s.api, huma.Operation{
		OperationID:   "admin-login",
		Method:        stdhttp.MethodPost,
		Path:          "/admin/login",
		Summary:       "Start an admin session",
		DefaultStatus: stdhttp.StatusNoContent,
		Errors:        []int{stdhttp.StatusUnauthorized},
	}, s.loginHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "admin-logout",
		Method:        stdhttp.MethodPost,
		Path:          "/admin/logout",
		Summary:       "End the admin session",
		DefaultStatus: stdhttp.StatusNoContent,
	}, s.logoutHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "admin-save-document",
		Method:      stdhttp.MethodPut,
		Path:        "/admin/document",
		Summary:     "Validate and commit the document",
		Errors:      []int{stdhttp.StatusBadRequest, stdhttp.StatusUnauthorized, stdhttp.StatusUnprocessableEntity, stdhttp.StatusServiceUnavailable},
	}, s.saveHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "admin-add-page",
		Method:      stdhttp.MethodPost,
		Path:        "/admin/pages",
		Summary:     "Append a page to the working document",
		Errors:      []int{stdhttp.StatusBadRequest, stdhttp.StatusUnauthorized, stdhttp.StatusConflict},
	}, s.addPageHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "admin-remove-page",
		Method:      stdhttp.MethodDelete,
		Path:        "/admin/pages/{slug}",
		Summary:     "Remove pages with a slug from the working document",
		Errors:      []int{stdhttp.StatusBadRequest, stdhttp.StatusUnauthorized, stdhttp.StatusNotFound},
	}, s.removePageHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "admin-export",
		Method:      stdhttp.MethodGet,
		Path:        "/admin/export",
		Summary:     "Download the committed document",
		Errors:      []int{stdhttp.StatusUnauthorized},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Committed document",
				Content: map[string]*huma.MediaType{
					store.ExportMediaType: {Schema: &huma.Schema{Type: "string"}},
				},
			},
		},
	}, s.exportHandler)
}

func (s *Server) adminHandler(ctx context.Context, input *sessionInput) (*htmlResponse, error) {
	doc := s.store.Current(ctx)
	layout := s.layout(doc, "Admin", "")

	if !s.gate.Authenticated(input.Session) {
		return s.renderPage(ctx, doc, templates.LoginPage(templates.LoginPageData{Layout: layout}), logrus.Fields{"page": "login"})
	}

	data := templates.AdminPageData{
		Layout:    layout,
		Document:  s.store.Raw(ctx),
		Templates: []string{string(site.TemplateHome), string(site.TemplateListing), string(site.TemplateDetail)},
	}
	for _, page := range doc.Pages {
		data.Pages = append(data.Pages, templates.AdminPageRow{
			Slug:     page.Slug,
			Title:    page.Title,
			Template: string(page.Template),
			Category: page.CategoryOrEmpty(),
			URL:      pageURL(page),
		})
	}

	return s.renderPage(ctx, doc, templates.AdminPage(data), logrus.Fields{"page": "admin"})
}

func (s *Server) loginHandler(ctx context.Context, input *loginInput) (*sessionOutput, error) {
	token, expires, err := s.gate.Login(input.Body.Password)
	if err != nil {
		if eris.Is(err, auth.ErrInvalidPassword) {
			s.logAdmin(ctx, "admin login rejected", nil)
			return nil, huma.Error401Unauthorized("Invalid password. Please try again.")
		}
		s.recordError(ctx, err, "issuing admin session", nil)
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}

	s.logAdmin(ctx, "admin session started", nil)
	return &sessionOutput{SetCookie: s.sessionCookie(token, expires)}, nil
}

func (s *Server) logoutHandler(_ context.Context, _ *struct{}) (*sessionOutput, error) {
	cookie := s.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	return &sessionOutput{SetCookie: cookie}, nil
}

func (s *Server) saveHandler(ctx context.Context, input *saveInput) (*saveOutput, error) {
	if err := s.requireSession(input.Session); err != nil {
		return nil, err
	}

	text := input.Body.Document
	if err := s.store.Save(ctx, text); err != nil {
		switch {
		case eris.Is(err, codec.ErrMalformedDocument):
			return nil, huma.Error400BadRequest(err.Error())
		case eris.Is(err, site.ErrDuplicateSlug), eris.Is(err, site.ErrInvalidEntry):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		case eris.Is(err, store.ErrStorageUnavailable):
			s.recordError(ctx, err, "saving document", nil)
			return nil, huma.Error503ServiceUnavailable("The document could not be stored. Please try again.")
		default:
			s.recordError(ctx, err, "saving document", nil)
			return nil, huma.Error500InternalServerError(errorFallbackMessage)
		}
	}

	out := &saveOutput{}
	out.Body.Status = "saved"
	out.Body.Pages = len(s.store.Current(ctx).Pages)
	out.Body.Bytes = len(text)

	s.logAdmin(ctx, "document saved", logrus.Fields{"pages": out.Body.Pages})
	return out, nil
}

func (s *Server) addPageHandler(ctx context.Context, input *addPageInput) (*documentOutput, error) {
	if err := s.requireSession(input.Session); err != nil {
		return nil, err
	}

	doc, err := s.workingDocument(ctx, input.Body.Document)
	if err != nil {
		return nil, err
	}

	entry := input.Body.Page.entry()
	for _, existing := range doc.Pages {
		if existing.Template == entry.Template && existing.CategoryOrEmpty() == entry.CategoryOrEmpty() && existing.Slug == entry.Slug {
			return nil, huma.Error409Conflict("A " + string(entry.Template) + " page with slug \"" + entry.Slug + "\" already exists.")
		}
	}
	doc.Pages = append(doc.Pages, entry)

	out := &documentOutput{}
	out.Body.Document = codec.EncodeString(doc)
	out.Body.Pages = len(doc.Pages)
	return out, nil
}

func (s *Server) removePageHandler(ctx context.Context, input *removePageInput) (*documentOutput, error) {
	if err := s.requireSession(input.Session); err != nil {
		return nil, err
	}

	var text string
	if input.Body != nil {
		text = input.Body.Document
	}

	doc, err := s.workingDocument(ctx, text)
	if err != nil {
		return nil, err
	}

	kept := doc.Pages[:0]
	for _, page := range doc.Pages {
		if page.Slug != input.Slug {
			kept = append(kept, page)
		}
	}
	removed := len(doc.Pages) - len(kept)
	if removed == 0 {
		return nil, huma.Error404NotFound("No page with slug \"" + input.Slug + "\" in the document.")
	}
	doc.Pages = kept

	out := &documentOutput{}
	out.Body.Document = codec.EncodeString(doc)
	out.Body.Pages = len(doc.Pages)
	out.Body.Removed = removed
	return out, nil
}

func (s *Server) exportHandler(ctx context.Context, input *sessionInput) (*exportOutput, error) {
	if err := s.requireSession(input.Session); err != nil {
		return nil, err
	}

	return &exportOutput{
		ContentType:        store.ExportMediaType,
		ContentDisposition: exportDisposition,
		Body:               []byte(s.store.Raw(ctx)),
	}, nil
}

func (s *Server) workingDocument(ctx context.Context, text string) (*site.SiteData, error) {
	if strings.TrimSpace(text) == "" {
		text = s.store.Raw(ctx)
	}

	doc, err := codec.DecodeString(text)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return doc, nil
}

func (s *Server) requireSession(token string) error {
	if !s.gate.Authenticated(token) {
		return huma.Error401Unauthorized("An admin session is required.")
	}
	return nil
}

func (s *Server) sessionCookie(value string, expires time.Time) stdhttp.Cookie {
	return stdhttp.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: stdhttp.SameSiteLaxMode,
	}
}

func (s *Server) logAdmin(ctx context.Context, message string, fields logrus.Fields) {
	if s.logger == nil {
		return
	}
	entry := s.logger.WithField("component", "admin")
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Info(message)
}

func (p newPage) entry() site.PageEntry {
	entry := site.PageEntry{
		Slug:     strings.TrimSpace(p.Slug),
		Title:    strings.TrimSpace(p.Title),
		Template: site.Template(p.Template),
	}
	entry.Description = optional(p.Description)
	entry.Category = optional(p.Category)
	entry.Author = optional(p.Author)
	entry.PublishDate = optional(p.PublishDate)
	entry.FeaturedImage = optional(p.FeaturedImage)
	entry.Content = optional(p.Content)
	if p.ReadTime > 0 {
		entry.ReadTime = site.Int(p.ReadTime)
	}
	if len(p.Tags) > 0 {
		entry.Tags = append([]string(nil), p.Tags...)
	}
	return entry
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return site.String(value)
}

func pageURL(page site.PageEntry) string {
	switch page.Template {
	case site.TemplateHome:
		return "/"
	case site.TemplateDetail:
		return "/" + page.CategoryOrEmpty() + "/" + page.Slug
	default:
		return "/" + page.Slug
	}
}
