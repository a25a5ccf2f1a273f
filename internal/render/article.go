package render

import (
	"staticcms/app/internal/site"
)

// Article is the rendered body of a detail page.
type Article struct {
	HTML     string
	Outline  []Heading
	ReadTime int
}

// Detail renders the content of a detail entry. An explicit readTime on the
// entry wins over the estimate.
func Detail(entry site.PageEntry) (Article, error) {
	var content string
	if entry.Content != nil {
		content = *entry.Content
	}

	body, err := Markdown(content)
	if err != nil {
		return Article{}, err
	}

	outline, err := Outline(body)
	if err != nil {
		return Article{}, err
	}

	readTime := EstimateReadTime(body)
	if entry.ReadTime != nil && *entry.ReadTime > 0 {
		readTime = *entry.ReadTime
	}

	return Article{HTML: body, Outline: outline, ReadTime: readTime}, nil
}
