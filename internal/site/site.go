package site

// Template selects how an entry is rendered and resolved.
type Template string

const (
	TemplateHome    Template = "home"
	TemplateListing Template = "listing"
	TemplateDetail  Template = "detail"
)

// Valid reports whether t is one of the known templates.
func (t Template) Valid() bool {
	switch t {
	case TemplateHome, TemplateListing, TemplateDetail:
		return true
	default:
		return false
	}
}

// SiteConfig carries site-wide metadata.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// PageItem is one card rendered by home and listing templates.
type PageItem struct {
	Title       string  `yaml:"title"`
	Description *string `yaml:"description,omitempty"`
	Link        *string `yaml:"link,omitempty"`
}

// PageEntry is a single content unit. Nil optional fields are unset.
type PageEntry struct {
	Slug          string     `yaml:"slug"`
	Title         string     `yaml:"title"`
	Template      Template   `yaml:"template"`
	Description   *string    `yaml:"description,omitempty"`
	Category      *string    `yaml:"category,omitempty"`
	Author        *string    `yaml:"author,omitempty"`
	PublishDate   *string    `yaml:"publishDate,omitempty"`
	ReadTime      *int       `yaml:"readTime,omitempty"`
	FeaturedImage *string    `yaml:"featuredImage,omitempty"`
	Content       *string    `yaml:"content,omitempty"`
	Tags          []string   `yaml:"tags,omitempty"`
	Items         []PageItem `yaml:"items,omitempty"`
}

// CategoryOrEmpty returns the category or "" when unset.
func (p PageEntry) CategoryOrEmpty() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// SiteData is the whole document.
type SiteData struct {
	Site  SiteConfig  `yaml:"site"`
	Pages []PageEntry `yaml:"pages"`
}

// Clone returns a deep copy so callers can edit a working copy without
// touching the committed document.
func (d *SiteData) Clone() *SiteData {
	if d == nil {
		return nil
	}

	out := &SiteData{Site: d.Site, Pages: make([]PageEntry, len(d.Pages))}
	for i, page := range d.Pages {
		out.Pages[i] = page.clone()
	}
	return out
}

func (p PageEntry) clone() PageEntry {
	out := p
	out.Description = cloneString(p.Description)
	out.Category = cloneString(p.Category)
	out.Author = cloneString(p.Author)
	out.PublishDate = cloneString(p.PublishDate)
	out.FeaturedImage = cloneString(p.FeaturedImage)
	out.Content = cloneString(p.Content)
	if p.ReadTime != nil {
		v := *p.ReadTime
		out.ReadTime = &v
	}
	if p.Tags != nil {
		out.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	}
	if p.Items != nil {
		out.Items = make([]PageItem, len(p.Items))
		for i, item := range p.Items {
			out.Items[i] = PageItem{
				Title:       item.Title,
				Description: cloneString(item.Description),
				Link:        cloneString(item.Link),
			}
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// String returns a pointer to s, for building optional fields.
func String(s string) *string {
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}
