package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/auth"
	"staticcms/app/internal/codec"
	"staticcms/app/internal/db"
	"staticcms/app/internal/store"
)

const testPassword = "admin123"

func TestHomeRouteRendersPage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	body := rec.Body.String()
	for _, want := range []string{"My Static CMS", "Welcome to My CMS", `href="/blog"`, "View Details"} {
		if !contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestListingRouteRendersItemsAndEntries(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/blog", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"Blog Posts", "Best Practices for Content Management", `href="/blog/getting-started"`, `aria-current="page"`} {
		if !contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
}

func TestDetailRouteRendersArticle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/blog/getting-started", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`<h2 id="key-features">Key Features</h2>`,
		`href="#key-features"`,
		"5 min read",
		"By CMS Team",
		"January 15, 2024",
		"<li>tutorial</li>",
	} {
		if !contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
}

func TestUnknownPathsRenderNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})

	for _, path := range []string{"/portfolio", "/Blog", "/news/getting-started", "/blog/getting-started/extra", "/blog/home"} {
		rec := serve(srv, "GET", path, nil, nil)
		if rec.Code != 404 {
			t.Fatalf("expected status 404 for %s, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
			t.Fatalf("expected content type %q for %s, got %q", htmlContentType, path, ct)
		}
		if !contains(rec.Body.String(), notFoundMessage) {
			t.Fatalf("expected not found message for %s", path)
		}
	}
}

func TestRootWithoutHomePage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{document: `site:
  title: "Empty"
  description: "No home"
pages:
  - slug: "blog"
    title: "Blog"
    template: "listing"
`})

	rec := serve(srv, "GET", "/", nil, nil)
	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !contains(rec.Body.String(), noHomeMessage) {
		t.Fatalf("expected missing home message, got %q", rec.Body.String())
	}
}

func TestAdminShowsLoginWithoutSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/admin", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !contains(rec.Body.String(), "Admin Password") {
		t.Fatalf("expected login form, got %q", rec.Body.String())
	}
	if contains(rec.Body.String(), "<textarea") {
		t.Fatalf("expected editor to stay hidden without a session")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected admin screen to be uncacheable, got %q", got)
	}

	if got := serve(srv, "GET", "/", nil, nil).Header().Get("Cache-Control"); got != "" {
		t.Fatalf("expected public pages without cache directive, got %q", got)
	}
}

func TestAdminRoutesRejectUnauthenticatedRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{"PUT", "/admin/document", map[string]string{"document": "site: {}"}},
		{"POST", "/admin/pages", map[string]any{"page": map[string]string{"slug": "x", "title": "X", "template": "listing"}}},
		{"DELETE", "/admin/pages/blog", map[string]string{}},
		{"GET", "/admin/export", nil},
	}

	for _, tc := range cases {
		rec := serve(srv, tc.method, tc.path, tc.body, nil)
		if rec.Code != 401 {
			t.Fatalf("expected 401 for %s %s, got %d", tc.method, tc.path, rec.Code)
		}
	}

	forged := &stdhttp.Cookie{Name: auth.CookieName, Value: "not-a-token"}
	if rec := serve(srv, "GET", "/admin/export", nil, forged); rec.Code != 401 {
		t.Fatalf("expected 401 for forged session, got %d", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "POST", "/admin/login", map[string]string{"password": "wrong"}, nil)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no session cookie")
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	cookie := login(t, srv)

	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie")
	}

	rec := serve(srv, "GET", "/admin", nil, cookie)
	if rec.Code != 200 || !contains(rec.Body.String(), "<textarea") {
		t.Fatalf("expected editor with a session, got %d", rec.Code)
	}
	if !contains(rec.Body.String(), "getting-started") {
		t.Fatalf("expected page table to list entries")
	}

	logout := serve(srv, "POST", "/admin/logout", nil, cookie)
	if logout.Code != 204 {
		t.Fatalf("expected status 204 on logout, got %d", logout.Code)
	}
	cleared := logout.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected logout to expire the cookie, got %#v", cleared)
	}
}

func TestSaveRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	cookie := login(t, srv)

	rec := serve(srv, "PUT", "/admin/document", map[string]string{"document": "site:\n  title: [\n"}, cookie)
	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !contains(rec.Body.String(), "line") {
		t.Fatalf("expected parser position in response, got %q", rec.Body.String())
	}

	home := serve(srv, "GET", "/", nil, nil)
	if !contains(home.Body.String(), "Welcome to My CMS") {
		t.Fatalf("expected committed document to survive a failed save")
	}
}

func TestSaveRejectsDuplicateSlugs(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	cookie := login(t, srv)

	text := `site:
  title: "Dupes"
  description: "d"
pages:
  - slug: "a"
    title: "A"
    template: "listing"
  - slug: "a"
    title: "Again"
    template: "listing"
`
	rec := serve(srv, "PUT", "/admin/document", map[string]string{"document": text}, cookie)
	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestSaveCommitsDocument(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	cookie := login(t, srv)

	text := `site:
  title: "Renamed"
  description: "Fresh"
pages:
  - slug: "home"
    title: "Hello again"
    template: "home"
`
	rec := serve(srv, "PUT", "/admin/document", map[string]string{"document": text}, cookie)
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Status string `json:"status"`
		Pages  int    `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if payload.Status != "saved" || payload.Pages != 1 {
		t.Fatalf("unexpected payload %#v", payload)
	}

	home := serve(srv, "GET", "/", nil, nil)
	if !contains(home.Body.String(), "Hello again") {
		t.Fatalf("expected saved document to be rendered, got %q", home.Body.String())
	}

	export := serve(srv, "GET", "/admin/export", nil, cookie)
	if export.Code != 200 {
		t.Fatalf("expected status 200 on export, got %d", export.Code)
	}
	if ct := export.Header().Get("Content-Type"); ct != store.ExportMediaType {
		t.Fatalf("expected content type %q, got %q", store.ExportMediaType, ct)
	}
	if cd := export.Header().Get("Content-Disposition"); !contains(cd, `filename="site-data.yaml"`) {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
	if export.Body.String() != text {
		t.Fatalf("expected exported text to match saved text, got %q", export.Body.String())
	}
}

func TestAddAndRemovePages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	cookie := login(t, srv)

	add := serve(srv, "POST", "/admin/pages", map[string]any{
		"page": map[string]any{
			"slug":     "portfolio",
			"title":    "Portfolio",
			"template": "listing",
			"tags":     []string{"work"},
		},
	}, cookie)
	if add.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", add.Code, add.Body.String())
	}

	var added struct {
		Document string `json:"document"`
		Pages    int    `json:"pages"`
	}
	if err := json.Unmarshal(add.Body.Bytes(), &added); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if added.Pages != 5 {
		t.Fatalf("expected 5 pages, got %d", added.Pages)
	}
	doc, err := codec.DecodeString(added.Document)
	if err != nil {
		t.Fatalf("returned document does not decode: %v", err)
	}
	if last := doc.Pages[len(doc.Pages)-1]; last.Slug != "portfolio" || len(last.Tags) != 1 {
		t.Fatalf("unexpected appended page %#v", last)
	}

	if rec := serve(srv, "GET", "/portfolio", nil, nil); rec.Code != 404 {
		t.Fatalf("expected unsaved page to stay unpublished, got %d", rec.Code)
	}

	conflict := serve(srv, "POST", "/admin/pages", map[string]any{
		"document": added.Document,
		"page":     map[string]any{"slug": "portfolio", "title": "Again", "template": "listing"},
	}, cookie)
	if conflict.Code != 409 {
		t.Fatalf("expected status 409, got %d", conflict.Code)
	}

	remove := serve(srv, "DELETE", "/admin/pages/portfolio", map[string]string{"document": added.Document}, cookie)
	if remove.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", remove.Code, remove.Body.String())
	}
	var removed struct {
		Pages   int `json:"pages"`
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(remove.Body.Bytes(), &removed); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if removed.Pages != 4 || removed.Removed != 1 {
		t.Fatalf("unexpected removal result %#v", removed)
	}

	missing := serve(srv, "DELETE", "/admin/pages/nope", map[string]string{}, cookie)
	if missing.Code != 404 {
		t.Fatalf("expected status 404, got %d", missing.Code)
	}
}

func TestSeedDocumentIsServed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/site-data.yaml", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/yaml") {
		t.Fatalf("expected yaml content type, got %q", ct)
	}

	doc, err := codec.DecodeString(rec.Body.String())
	if err != nil {
		t.Fatalf("embedded seed does not decode: %v", err)
	}
	if doc.Site.Title != "My Static CMS" || len(doc.Pages) != 4 {
		t.Fatalf("unexpected seed document %#v", doc.Site)
	}
}

func TestStaticAssetsAreServed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})

	if rec := serve(srv, "GET", "/static/styles.css", nil, nil); rec.Code != 200 {
		t.Fatalf("expected status 200 for stylesheet, got %d", rec.Code)
	}
	if rec := serve(srv, "GET", "/favicon.ico", nil, nil); rec.Code != 200 {
		t.Fatalf("expected status 200 for favicon, got %d", rec.Code)
	}

	for _, script := range []string{"/static/login.js", "/static/admin.js"} {
		rec := serve(srv, "GET", script, nil, nil)
		if rec.Code != 200 {
			t.Fatalf("expected status 200 for %s, got %d", script, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !contains(ct, "javascript") {
			t.Fatalf("expected javascript content type for %s, got %q", script, ct)
		}
	}
}

func TestHealthRouteReportsOK(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	rec := serve(srv, "GET", "/healthz", nil, nil)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !contains(rec.Body.String(), `"database":"ok"`) {
		t.Fatalf("expected database status in body, got %q", rec.Body.String())
	}
}

func TestRateLimitReturns429(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{burst: 1, rps: 0.001})

	if rec := serve(srv, "GET", "/", nil, nil); rec.Code != 200 {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec := serve(srv, "GET", "/", nil, nil)
	if rec.Code != 429 {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if !contains(rec.Body.String(), rateLimitMessage) {
		t.Fatalf("expected rate limit message, got %q", rec.Body.String())
	}
}

func TestPanickingHandlerReturns500(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testServerConfig{})
	huma.Get(srv.API(), "/panics", func(context.Context, *struct{}) (*struct{}, error) {
		panic("template exploded")
	})

	rec := serve(srv, "GET", "/panics", nil, nil)
	if rec.Code != 500 {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if rec.Body.String() != "internal server error" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	if rec := serve(srv, "GET", "/", nil, nil); rec.Code != 200 {
		t.Fatalf("expected server to keep serving after a panic, got %d", rec.Code)
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error without store")
	}
}

// helper utilities

type testServerConfig struct {
	document string
	burst    int
	rps      float64
}

func newTestServer(t *testing.T, cfg testServerConfig) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gormDB, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "http.db")})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	cache := newStubCache()
	if cfg.document != "" {
		cache.entries[store.DocumentKey] = cfg.document
	}

	st, err := store.New(store.Options{Cache: cache, Logger: logger, StrictSlugs: true})
	if err != nil {
		t.Fatalf("store.New returned error: %v", err)
	}

	gate, err := auth.NewGate(auth.Options{Password: testPassword, Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("auth.NewGate returned error: %v", err)
	}

	if cfg.burst == 0 {
		cfg.burst = 1000
	}
	if cfg.rps == 0 {
		cfg.rps = 1000
	}

	srv, err := NewServer(Options{
		Store:    st,
		Gate:     gate,
		Database: gormDB,
		Logger:   logger,
		RateLimiter: RateLimiterSettings{
			RequestsPerSecond: cfg.rps,
			Burst:             cfg.burst,
			ClientTTL:         time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func serve(srv *Server, method, path string, body any, cookie *stdhttp.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = strings.NewReader(string(payload))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server) *stdhttp.Cookie {
	t.Helper()

	rec := serve(srv, "POST", "/admin/login", map[string]string{"password": testPassword}, nil)
	if rec.Code != 204 {
		t.Fatalf("expected status 204 on login, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("expected %s cookie", auth.CookieName)
	return nil
}

func contains(body, substring string) bool {
	return strings.Contains(body, substring)
}

// stubs

type stubCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *stubCache) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

var _ store.Cache = (*stubCache)(nil)
