package store

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// SeedFileName is the well-known name of the seed document.
const SeedFileName = "site-data.yaml"

const maxSeedBytes = 4 << 20

// Seeder obtains the seed document used when the cache is empty.
type Seeder interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSeeder fetches the seed document with a plain GET request.
type HTTPSeeder struct {
	url    string
	client *http.Client
}

var _ Seeder = (*HTTPSeeder)(nil)

// HTTPSeederOptions configures an HTTPSeeder.
type HTTPSeederOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewHTTPSeeder builds a seeder for <BaseURL>/site-data.yaml.
func NewHTTPSeeder(opts HTTPSeederOptions) (*HTTPSeeder, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, eris.New("seed base url is required")
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPSeeder{
		url:    strings.TrimRight(base, "/") + "/" + SeedFileName,
		client: client,
	}, nil
}

// URL returns the address the seeder fetches.
func (s *HTTPSeeder) URL() string {
	return s.url
}

// Fetch performs the GET request. Transport errors and non-2xx responses
// wrap ErrFetchFailure.
func (s *HTTPSeeder) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrap(ErrFetchFailure, err.Error())
	}
	req.Header.Set("Accept", "text/yaml, application/yaml;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(ErrFetchFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Wrapf(ErrFetchFailure, "GET %s returned status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes))
	if err != nil {
		return nil, eris.Wrap(ErrFetchFailure, err.Error())
	}

	return body, nil
}

// FSSeeder reads the seed document from a filesystem, typically the
// embedded static assets.
type FSSeeder struct {
	fsys fs.FS
	name string
}

var _ Seeder = (*FSSeeder)(nil)

// NewFSSeeder builds a seeder reading SeedFileName from fsys.
func NewFSSeeder(fsys fs.FS) (*FSSeeder, error) {
	if fsys == nil {
		return nil, eris.New("seed filesystem is required")
	}
	return &FSSeeder{fsys: fsys, name: SeedFileName}, nil
}

// Fetch reads the seed file. A missing file wraps ErrFetchFailure.
func (s *FSSeeder) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(ErrFetchFailure, err.Error())
	}

	body, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		return nil, eris.Wrap(ErrFetchFailure, err.Error())
	}
	return body, nil
}
