// Package resolver maps request paths to page entries. Matching is exact,
// case-sensitive, and the first match in document order wins.
package resolver

import (
	"strings"

	"github.com/rotisserie/eris"

	"staticcms/app/internal/site"
)

// ErrNotFound indicates no entry matches the requested path.
var ErrNotFound = eris.New("page not found")

// Resolve selects the entry for path. The root path maps to the first home
// entry, one segment to a listing slug, and two segments to a detail entry
// keyed by category and slug.
func Resolve(doc *site.SiteData, path string) (*site.PageEntry, error) {
	segments := Segments(path)
	for _, segment := range segments {
		if segment == "" {
			return nil, eris.Wrapf(ErrNotFound, "resolving %q", path)
		}
	}

	switch len(segments) {
	case 0:
		return Home(doc)
	case 1:
		return Listing(doc, segments[0])
	case 2:
		return Detail(doc, segments[0], segments[1])
	default:
		return nil, eris.Wrapf(ErrNotFound, "resolving %q", path)
	}
}

// Segments splits a URL path on "/" after trimming leading and trailing
// slashes. Inner empty segments are kept so "blog//post" never matches
// "/blog/post".
func Segments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Home returns the first entry using the home template.
func Home(doc *site.SiteData) (*site.PageEntry, error) {
	return first(doc, func(p *site.PageEntry) bool {
		return p.Template == site.TemplateHome
	}, "home page")
}

// Listing returns the first listing entry with the given slug.
func Listing(doc *site.SiteData, slug string) (*site.PageEntry, error) {
	return first(doc, func(p *site.PageEntry) bool {
		return p.Template == site.TemplateListing && p.Slug == slug
	}, "listing "+slug)
}

// Detail returns the first detail entry in category with the given slug.
func Detail(doc *site.SiteData, category, slug string) (*site.PageEntry, error) {
	return first(doc, func(p *site.PageEntry) bool {
		return p.Template == site.TemplateDetail &&
			p.Category != nil && *p.Category == category &&
			p.Slug == slug
	}, "detail "+category+"/"+slug)
}

// Category returns every detail entry of category, in document order.
func Category(doc *site.SiteData, category string) []site.PageEntry {
	if doc == nil {
		return nil
	}

	var entries []site.PageEntry
	for _, page := range doc.Pages {
		if page.Template == site.TemplateDetail && page.Category != nil && *page.Category == category {
			entries = append(entries, page)
		}
	}
	return entries
}

func first(doc *site.SiteData, match func(*site.PageEntry) bool, what string) (*site.PageEntry, error) {
	if doc == nil {
		return nil, eris.Wrapf(ErrNotFound, "resolving %s: no document", what)
	}

	for i := range doc.Pages {
		if match(&doc.Pages[i]) {
			return &doc.Pages[i], nil
		}
	}

	return nil, eris.Wrapf(ErrNotFound, "resolving %s", what)
}
