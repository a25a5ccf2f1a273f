package codec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"staticcms/app/internal/site"
)

const (
	pageIndent    = "    "
	contentIndent = "      "
	itemIndent    = "        "
)

// Encode serializes a document. It is the left inverse of Decode for every
// document whose strings are valid UTF-8, and its field order is fixed so
// repeated saves produce stable diffs.
func Encode(doc *site.SiteData) []byte {
	var b strings.Builder

	b.WriteString("site:\n")
	writeField(&b, "  ", "title", doc.Site.Title)
	writeField(&b, "  ", "description", doc.Site.Description)
	b.WriteString("\n")

	if len(doc.Pages) == 0 {
		b.WriteString("pages: []\n")
		return []byte(b.String())
	}

	b.WriteString("pages:\n")
	for _, page := range doc.Pages {
		writePage(&b, page)
	}

	return []byte(b.String())
}

// EncodeString is Encode returning a string.
func EncodeString(doc *site.SiteData) string {
	return string(Encode(doc))
}

func writePage(b *strings.Builder, page site.PageEntry) {
	b.WriteString("  - slug: ")
	b.WriteString(quote(page.Slug))
	b.WriteString("\n")

	writeField(b, pageIndent, "title", page.Title)
	writeField(b, pageIndent, "template", string(page.Template))
	writeOptional(b, pageIndent, "description", page.Description)
	writeOptional(b, pageIndent, "category", page.Category)
	writeOptional(b, pageIndent, "author", page.Author)
	writeOptional(b, pageIndent, "publishDate", page.PublishDate)
	if page.ReadTime != nil {
		fmt.Fprintf(b, "%sreadTime: %d\n", pageIndent, *page.ReadTime)
	}
	writeOptional(b, pageIndent, "featuredImage", page.FeaturedImage)
	if page.Content != nil {
		writeContent(b, *page.Content)
	}

	if page.Tags != nil {
		if len(page.Tags) == 0 {
			b.WriteString(pageIndent + "tags: []\n")
		} else {
			b.WriteString(pageIndent + "tags:\n")
			for _, tag := range page.Tags {
				b.WriteString(contentIndent + "- ")
				b.WriteString(quote(tag))
				b.WriteString("\n")
			}
		}
	}

	if page.Items != nil {
		if len(page.Items) == 0 {
			b.WriteString(pageIndent + "items: []\n")
		} else {
			b.WriteString(pageIndent + "items:\n")
			for _, item := range page.Items {
				b.WriteString(contentIndent + "- title: ")
				b.WriteString(quote(item.Title))
				b.WriteString("\n")
				writeOptional(b, itemIndent, "description", item.Description)
				writeOptional(b, itemIndent, "link", item.Link)
			}
		}
	}
}

func writeField(b *strings.Builder, indent, key, value string) {
	b.WriteString(indent)
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(quote(value))
	b.WriteString("\n")
}

func writeOptional(b *strings.Builder, indent, key string, value *string) {
	if value == nil {
		return
	}
	writeField(b, indent, key, *value)
}

// writeContent emits multi-line content as a literal block scalar. The
// explicit indentation indicator keeps leading whitespace on the first line,
// and the chomping indicator reproduces the exact number of trailing newlines.
func writeContent(b *strings.Builder, content string) {
	body := strings.TrimRight(content, "\n")
	trailing := len(content) - len(body)

	if body == "" || !strings.Contains(content, "\n") || !blockSafe(content) {
		writeField(b, pageIndent, "content", content)
		return
	}

	chomp := ""
	switch {
	case trailing == 0:
		chomp = "-"
	case trailing > 1:
		chomp = "+"
	}

	b.WriteString(pageIndent + "content: |2" + chomp + "\n")

	lines := strings.Split(body, "\n")
	for extra := 1; extra < trailing; extra++ {
		lines = append(lines, "")
	}
	for _, line := range lines {
		b.WriteString(contentIndent)
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// blockSafe reports whether every character can appear verbatim inside a
// literal block scalar.
func blockSafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if needsEscape(r) {
			return false
		}
	}
	return true
}

// quote renders s as a double-quoted scalar.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\uFFFD`)
			continue
		}

		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if needsEscape(r) {
				b.WriteString(escapeRune(r))
			} else {
				b.WriteRune(r)
			}
		}
	}

	b.WriteByte('"')
	return b.String()
}

// needsEscape reports characters outside the printable set accepted by the
// parser, plus the ones it treats as line breaks.
func needsEscape(r rune) bool {
	switch {
	case r < 0x20, r == 0x7f:
		return true
	case r >= 0x80 && r < 0xa0:
		return true
	case r == 0x2028, r == 0x2029, r == 0xfeff:
		return true
	case r >= 0xd800 && r <= 0xdfff:
		return true
	case r == 0xfffe, r == 0xffff:
		return true
	default:
		return false
	}
}

func escapeRune(r rune) string {
	if r <= 0xff {
		return `\x` + pad(strconv.FormatInt(int64(r), 16), 2)
	}
	return `\u` + pad(strconv.FormatInt(int64(r), 16), 4)
}

func pad(hex string, width int) string {
	hex = strings.ToUpper(hex)
	if len(hex) >= width {
		return hex
	}
	return strings.Repeat("0", width-len(hex)) + hex
}
