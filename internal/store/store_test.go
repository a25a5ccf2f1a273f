package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/codec"
	"staticcms/app/internal/db"
	"staticcms/app/internal/site"
)

const seedText = `site:
  title: "Seeded"
  description: "From the seed"
pages:
  - slug: "home"
    title: "Welcome"
    template: "home"
`

func TestNewRequiresCache(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error when cache is nil")
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	st := newTestStore(t, Options{Cache: cache, Seeder: failingSeeder{}})

	doc := st.Load(context.Background())
	if doc.Site.Title != "My Static CMS" {
		t.Fatalf("expected default title, got %q", doc.Site.Title)
	}
	if len(doc.Pages) == 0 || doc.Pages[0].Slug != "home" || doc.Pages[0].Template != site.TemplateHome {
		t.Fatalf("expected first page to be home/home, got %#v", doc.Pages)
	}

	cached, ok := cache.value(DocumentKey)
	if !ok {
		t.Fatalf("expected defaults to be cached")
	}
	if cached != codec.EncodeString(site.Default()) {
		t.Fatalf("expected cached text to be the encoded defaults")
	}
}

func TestLoadCachesSeedVerbatim(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	st := newTestStore(t, Options{Cache: cache, Seeder: staticSeeder(seedText)})

	doc := st.Load(context.Background())
	if doc.Site.Title != "Seeded" {
		t.Fatalf("expected seeded title, got %q", doc.Site.Title)
	}

	cached, _ := cache.value(DocumentKey)
	if cached != seedText {
		t.Fatalf("expected raw seed text cached, got %q", cached)
	}
}

func TestLoadPrefersCacheOverSeed(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	cache.entries[DocumentKey] = strings.Replace(seedText, "Seeded", "Cached", 1)
	seeder := &countingSeeder{text: seedText}
	st := newTestStore(t, Options{Cache: cache, Seeder: seeder})

	doc := st.Load(context.Background())
	if doc.Site.Title != "Cached" {
		t.Fatalf("expected cached title, got %q", doc.Site.Title)
	}
	if seeder.calls != 0 {
		t.Fatalf("expected seeder not to be called, got %d calls", seeder.calls)
	}
}

func TestLoadCorruptCacheFallsThrough(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	cache.entries[DocumentKey] = "site: [unterminated"
	st := newTestStore(t, Options{Cache: cache, Seeder: staticSeeder(seedText)})

	doc := st.Load(context.Background())
	if doc.Site.Title != "Seeded" {
		t.Fatalf("expected seed after corrupt cache, got %q", doc.Site.Title)
	}
	if cache.puts != 1 {
		t.Fatalf("expected corrupt entry to be overwritten once, got %d puts", cache.puts)
	}
}

func TestLoadSurvivesBrokenStorage(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Options{Cache: brokenCache{}, Seeder: failingSeeder{}})

	doc := st.Load(context.Background())
	if doc.Site.Title != "My Static CMS" {
		t.Fatalf("expected defaults with broken storage, got %q", doc.Site.Title)
	}
}

func TestSaveMalformedLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	st := newTestStore(t, Options{Cache: cache, Seeder: staticSeeder(seedText)})
	ctx := context.Background()
	st.Load(ctx)
	puts := cache.puts

	err := st.Save(ctx, "site:\n  title: [\n")
	if err == nil {
		t.Fatalf("expected malformed save to fail")
	}
	if !eris.Is(err, codec.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if cache.puts != puts {
		t.Fatalf("expected no cache writes on failed save")
	}

	if title := st.Load(ctx).Site.Title; title != "Seeded" {
		t.Fatalf("expected reload to return previous document, got %q", title)
	}
	if title := st.Current(ctx).Site.Title; title != "Seeded" {
		t.Fatalf("expected current document unchanged, got %q", title)
	}
}

func TestSaveRejectsDuplicateSlugsWhenStrict(t *testing.T) {
	t.Parallel()

	text := seedText + `  - slug: "news"
    title: "News"
    template: "listing"
  - slug: "news"
    title: "More news"
    template: "listing"
`

	strict := newTestStore(t, Options{Cache: newMemCache(), StrictSlugs: true})
	err := strict.Save(context.Background(), text)
	if !eris.Is(err, site.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}

	lenient := newTestStore(t, Options{Cache: newMemCache()})
	if err := lenient.Save(context.Background(), text); err != nil {
		t.Fatalf("expected lenient save to succeed, got %v", err)
	}
}

func TestSaveCommitsAndExports(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "export"))
	if err != nil {
		t.Fatalf("NewFileExporter returned error: %v", err)
	}
	st := newTestStore(t, Options{Cache: cache, Exporter: exporter, StrictSlugs: true})
	ctx := context.Background()

	if err := st.Save(ctx, seedText); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if cached, _ := cache.value(DocumentKey); cached != seedText {
		t.Fatalf("expected text cached verbatim, got %q", cached)
	}
	if st.Raw(ctx) != seedText {
		t.Fatalf("expected Raw to return committed text")
	}
	if st.Current(ctx).Site.Title != "Seeded" {
		t.Fatalf("expected current document replaced")
	}

	exported, err := os.ReadFile(exporter.Path(SeedFileName))
	if err != nil {
		t.Fatalf("reading export failed: %v", err)
	}
	if string(exported) != seedText {
		t.Fatalf("expected byte-identical export, got %q", exported)
	}
}

func TestSaveSurfacesStorageFailure(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Options{Cache: brokenCache{}})
	err := st.Save(context.Background(), seedText)
	if !eris.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestCurrentReturnsCopies(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Options{Cache: newMemCache()})
	ctx := context.Background()

	first := st.Current(ctx)
	first.Site.Title = "mutated"

	if st.Current(ctx).Site.Title == "mutated" {
		t.Fatalf("expected Current to return an independent copy")
	}
}

func TestRawEncodesCurrentWithoutCacheEntry(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, Options{Cache: brokenCache{}})
	if got := st.Raw(context.Background()); got != codec.EncodeString(site.Default()) {
		t.Fatalf("expected encoded defaults, got %q", got)
	}
}

func TestHTTPSeederFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+SeedFileName {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = io.WriteString(w, seedText)
	}))
	t.Cleanup(srv.Close)

	seeder, err := NewHTTPSeeder(HTTPSeederOptions{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewHTTPSeeder returned error: %v", err)
	}
	if seeder.URL() != srv.URL+"/"+SeedFileName {
		t.Fatalf("unexpected seed url %q", seeder.URL())
	}

	body, err := seeder.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != seedText {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestHTTPSeederNon2xxIsFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	seeder, err := NewHTTPSeeder(HTTPSeederOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPSeeder returned error: %v", err)
	}

	if _, err := seeder.Fetch(context.Background()); !eris.Is(err, ErrFetchFailure) {
		t.Fatalf("expected ErrFetchFailure, got %v", err)
	}
}

func TestFSSeeder(t *testing.T) {
	t.Parallel()

	seeder, err := NewFSSeeder(fstest.MapFS{SeedFileName: {Data: []byte(seedText)}})
	if err != nil {
		t.Fatalf("NewFSSeeder returned error: %v", err)
	}
	body, err := seeder.Fetch(context.Background())
	if err != nil || string(body) != seedText {
		t.Fatalf("unexpected fetch result %q, %v", body, err)
	}

	empty, _ := NewFSSeeder(fstest.MapFS{})
	if _, err := empty.Fetch(context.Background()); !eris.Is(err, ErrFetchFailure) {
		t.Fatalf("expected ErrFetchFailure for missing file, got %v", err)
	}
}

func TestGormCacheUpsert(t *testing.T) {
	t.Parallel()

	cache := setupGormCache(t)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, DocumentKey); err != nil || ok {
		t.Fatalf("expected missing entry, got ok=%v err=%v", ok, err)
	}

	if err := cache.Put(ctx, DocumentKey, "first"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := cache.Put(ctx, DocumentKey, "second"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	value, ok, err := cache.Get(ctx, DocumentKey)
	if err != nil || !ok {
		t.Fatalf("expected stored entry, got ok=%v err=%v", ok, err)
	}
	if value != "second" {
		t.Fatalf("expected upserted value, got %q", value)
	}

	var count int64
	if err := cache.db.Model(&CacheEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("counting entries failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestStoreWithGormCacheReloads(t *testing.T) {
	t.Parallel()

	cache := setupGormCache(t)
	ctx := context.Background()

	first := newTestStore(t, Options{Cache: cache, Seeder: failingSeeder{}})
	if err := first.Save(ctx, seedText); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	second := newTestStore(t, Options{Cache: cache, Seeder: failingSeeder{}})
	if title := second.Load(ctx).Site.Title; title != "Seeded" {
		t.Fatalf("expected persisted document after restart, got %q", title)
	}
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()

	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		opts.Logger = logger
	}

	st, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return st
}

func setupGormCache(t *testing.T) *GormCache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.db")
	gormDB, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if err := Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	cache, err := NewGormCache(gormDB, logger)
	if err != nil {
		t.Fatalf("NewGormCache returned error: %v", err)
	}
	return cache
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memCache) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.puts++
	return nil
}

func (c *memCache) value(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, eris.Wrap(ErrStorageUnavailable, "disk on fire")
}

func (brokenCache) Put(context.Context, string, string) error {
	return eris.Wrap(ErrStorageUnavailable, "disk on fire")
}

type staticSeeder string

func (s staticSeeder) Fetch(context.Context) ([]byte, error) {
	return []byte(s), nil
}

type failingSeeder struct{}

func (failingSeeder) Fetch(context.Context) ([]byte, error) {
	return nil, eris.Wrap(ErrFetchFailure, "offline")
}

type countingSeeder struct {
	text  string
	calls int
}

func (s *countingSeeder) Fetch(context.Context) ([]byte, error) {
	s.calls++
	return []byte(s.text), nil
}
