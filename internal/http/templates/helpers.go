package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// RawHTML returns a templ component that writes the provided HTML without escaping.
func RawHTML(html string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := io.WriteString(w, html)
		return err
	})
}

// IsExternal reports whether link leaves the site.
func IsExternal(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}

func documentTitle(data LayoutData) string {
	if data.PageTitle == "" || data.PageTitle == data.SiteTitle {
		return data.SiteTitle
	}
	return data.PageTitle + " | " + data.SiteTitle
}

func footerLine(data LayoutData) string {
	note := data.FooterNote
	if note == "" {
		note = DefaultFooterNote
	}

	line := data.SiteTitle + ". " + note
	if data.Year > 0 {
		line = strconv.Itoa(data.Year) + " " + line
	}
	return line
}

// cardLink falls back to a same-page anchor for items without a link.
func cardLink(link string) string {
	if link == "" {
		return "#"
	}
	return link
}

func hasMeta(publishDate string, readTime int, author string) bool {
	return publishDate != "" || readTime > 0 || author != ""
}
