package site

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrDuplicateSlug indicates two entries share a slug within the same
	// template and category, which makes resolution ambiguous.
	ErrDuplicateSlug = eris.New("duplicate slug")
	// ErrInvalidEntry indicates an entry is missing a required field or uses an
	// unknown template.
	ErrInvalidEntry = eris.New("invalid page entry")
)

type slugKey struct {
	template Template
	category string
	slug     string
}

// Validate checks the invariants the resolver relies on. Decoding alone does
// not enforce them.
func Validate(doc *SiteData) error {
	if doc == nil {
		return eris.New("document is nil")
	}

	seen := make(map[slugKey]int, len(doc.Pages))
	for idx, page := range doc.Pages {
		if strings.TrimSpace(page.Slug) == "" {
			return eris.Wrapf(ErrInvalidEntry, "page %d: slug is required", idx)
		}
		if strings.TrimSpace(page.Title) == "" {
			return eris.Wrapf(ErrInvalidEntry, "page %q: title is required", page.Slug)
		}
		if !page.Template.Valid() {
			return eris.Wrapf(ErrInvalidEntry, "page %q: unknown template %q", page.Slug, page.Template)
		}

		key := slugKey{template: page.Template, category: page.CategoryOrEmpty(), slug: page.Slug}
		if first, ok := seen[key]; ok {
			return eris.Wrapf(ErrDuplicateSlug, "page %d repeats slug %q of page %d (template %s, category %q)",
				idx, page.Slug, first, page.Template, key.category)
		}
		seen[key] = idx
	}

	return nil
}
