package store

import (
	"context"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/codec"
	"staticcms/app/internal/site"
)

var (
	// ErrFetchFailure indicates the seed document could not be obtained.
	ErrFetchFailure = eris.New("seed document unavailable")
	// ErrStorageUnavailable indicates the persistent cache cannot be used.
	ErrStorageUnavailable = eris.New("storage unavailable")
)

// Options wires a Store.
type Options struct {
	Cache    Cache
	Seeder   Seeder
	Exporter Exporter
	Logger   *logrus.Logger
	Sentry   *sentry.Hub
	// StrictSlugs rejects saves whose slugs collide within a template and
	// category group.
	StrictSlugs bool
}

// Store owns the committed document. Load and Save run one cycle at a time.
type Store struct {
	mu       sync.RWMutex
	current  *site.SiteData
	cache    Cache
	seeder   Seeder
	exporter Exporter
	logger   *logrus.Logger
	sentry   *sentry.Hub
	strict   bool
}

// New builds a Store. Cache is required; Seeder and Exporter are optional.
func New(opts Options) (*Store, error) {
	if opts.Cache == nil {
		return nil, eris.New("cache is required")
	}

	return &Store{
		cache:    opts.Cache,
		seeder:   opts.Seeder,
		exporter: opts.Exporter,
		logger:   opts.Logger,
		sentry:   opts.Sentry,
		strict:   opts.StrictSlugs,
	}, nil
}

// Load obtains the document from the cache, then the seed, then the
// built-in defaults. It never fails; each failure falls through to the next
// source.
func (s *Store) Load(ctx context.Context) *site.SiteData {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	s.current = doc
	return doc.Clone()
}

func (s *Store) load(ctx context.Context) *site.SiteData {
	cached, ok, err := s.cache.Get(ctx, DocumentKey)
	switch {
	case err != nil:
		s.warn(err, "reading cached document", "cache")
	case ok:
		doc, decodeErr := codec.DecodeString(cached)
		if decodeErr == nil {
			return doc
		}
		s.warn(decodeErr, "cached document is malformed", "cache")
	}

	if s.seeder != nil {
		if doc, seeded := s.loadSeed(ctx); seeded {
			return doc
		}
	}

	doc := site.Default()
	if err := s.cache.Put(ctx, DocumentKey, codec.EncodeString(doc)); err != nil {
		s.warn(err, "caching default document", "defaults")
	}
	s.info("using built-in default document", "defaults")
	return doc
}

func (s *Store) loadSeed(ctx context.Context) (*site.SiteData, bool) {
	text, err := s.seeder.Fetch(ctx)
	if err != nil {
		s.warn(err, "fetching seed document", "seed")
		return nil, false
	}

	doc, err := codec.Decode(text)
	if err != nil {
		s.warn(err, "seed document is malformed", "seed")
		return nil, false
	}

	if err := s.cache.Put(ctx, DocumentKey, string(text)); err != nil {
		s.warn(err, "caching seed document", "seed")
	}

	s.info("loaded seed document", "seed")
	return doc, true
}

// Save validates text and commits it verbatim. A rejected document leaves the
// cache and the current model untouched.
func (s *Store) Save(ctx context.Context, text string) error {
	doc, err := codec.DecodeString(text)
	if err != nil {
		s.recordError(err, "rejecting malformed document")
		return eris.Wrap(err, "saving document")
	}

	if s.strict {
		if err := site.Validate(doc); err != nil {
			s.recordError(err, "rejecting invalid document")
			return eris.Wrap(err, "saving document")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Put(ctx, DocumentKey, text); err != nil {
		s.recordError(err, "persisting document")
		return eris.Wrap(err, "saving document")
	}
	s.current = doc

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, SeedFileName, []byte(text)); err != nil {
			s.recordError(err, "exporting document")
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "store",
			"pages":     len(doc.Pages),
			"bytes":     len(text),
		}).Info("document saved")
	}

	return nil
}

// Current returns a copy of the committed document, loading it on first use.
func (s *Store) Current(ctx context.Context) *site.SiteData {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return s.Load(ctx)
	}
	return current.Clone()
}

// Raw returns the committed text for editing. Without a cache entry it falls
// back to the encoded current document.
func (s *Store) Raw(ctx context.Context) string {
	text, ok, err := s.cache.Get(ctx, DocumentKey)
	if err != nil {
		s.warn(err, "reading cached document for editing", "cache")
	}
	if err == nil && ok {
		return text
	}
	return codec.EncodeString(s.Current(ctx))
}

func (s *Store) warn(err error, message, source string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"component": "store",
		"source":    source,
		"error":     err.Error(),
	}).Warn(message)
}

func (s *Store) info(message, source string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{"component": "store", "source": source}).Info(message)
}

func (s *Store) recordError(err error, message string) {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"component": "store", "error": err.Error()}).Error(message)
	}
	if s.sentry != nil && eris.Is(err, ErrStorageUnavailable) {
		s.sentry.CaptureException(err)
	}
}
