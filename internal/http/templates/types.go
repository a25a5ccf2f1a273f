package templates

// DefaultFooterNote is shown in the shared layout when a page does not supply custom text.
const DefaultFooterNote = "All rights reserved."

// LayoutData carries the values shared by every page.
type LayoutData struct {
	SiteTitle       string
	SiteDescription string
	PageTitle       string
	Nav             []NavLink
	FooterNote      string
	Year            int
}

// NavLink is one entry of the header navigation.
type NavLink struct {
	Label  string
	URL    string
	Active bool
}

// ItemView is a card linking somewhere else.
type ItemView struct {
	Title       string
	Description string
	Link        string
}

// EntryView summarises a detail page inside a listing.
type EntryView struct {
	Title       string
	Description string
	URL         string
	Author      string
	PublishDate string
	ReadTime    int
}

// HomePageData contains dynamic values rendered on the landing page.
type HomePageData struct {
	Layout      LayoutData
	Title       string
	Description string
	Items       []ItemView
}

// ListingPageData contains the values for a listing page.
type ListingPageData struct {
	Layout      LayoutData
	Title       string
	Description string
	Items       []ItemView
	Entries     []EntryView
}

// OutlineLink points at a heading inside the article body.
type OutlineLink struct {
	ID   string
	Text string
}

// DetailPageData contains the dynamic values for a detail entry.
type DetailPageData struct {
	Layout        LayoutData
	Title         string
	Description   string
	CategoryLabel string
	CategoryURL   string
	Author        string
	PublishDate   string
	ReadTime      int
	FeaturedImage string
	HTML          string
	Outline       []OutlineLink
	Tags          []string
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	Layout      LayoutData
	StatusLabel string
	Message     string
}

// LoginPageData holds the values for the admin password prompt.
type LoginPageData struct {
	Layout LayoutData
}

// AdminPageRow is one page of the committed document in the admin table.
type AdminPageRow struct {
	Slug     string
	Title    string
	Template string
	Category string
	URL      string
}

// AdminPageData bundles the editor screen.
type AdminPageData struct {
	Layout    LayoutData
	Document  string
	Pages     []AdminPageRow
	Templates []string
}
