package codec

import (
	"bytes"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"staticcms/app/internal/site"
)

// ErrMalformedDocument is the single error kind returned by Decode. The
// wrapping message carries the parser's own diagnostic.
var ErrMalformedDocument = eris.New("malformed document")

// Decode parses text into a document. Beyond what the parser checks, it only
// asserts the top-level shape: site.title, site.description and a pages
// sequence must be present.
func Decode(text []byte) (*site.SiteData, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return nil, eris.Wrap(ErrMalformedDocument, err.Error())
	}

	if len(bytes.TrimSpace(text)) == 0 || len(root.Content) == 0 {
		return nil, eris.Wrap(ErrMalformedDocument, "document is empty")
	}

	body := root.Content[0]
	if err := checkShape(body); err != nil {
		return nil, err
	}

	var doc site.SiteData
	if err := body.Decode(&doc); err != nil {
		return nil, eris.Wrap(ErrMalformedDocument, err.Error())
	}

	if doc.Pages == nil {
		doc.Pages = []site.PageEntry{}
	}

	return &doc, nil
}

// DecodeString is Decode for string input.
func DecodeString(text string) (*site.SiteData, error) {
	return Decode([]byte(text))
}

func checkShape(body *yaml.Node) error {
	if body.Kind != yaml.MappingNode {
		return malformedAt(body, "document root must be a mapping")
	}

	siteNode := mappingValue(body, "site")
	if siteNode == nil {
		return malformedAt(body, "missing site section")
	}
	if siteNode.Kind != yaml.MappingNode {
		return malformedAt(siteNode, "site must be a mapping")
	}
	for _, key := range []string{"title", "description"} {
		value := mappingValue(siteNode, key)
		if value == nil {
			return malformedAt(siteNode, "missing site."+key)
		}
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
			return malformedAt(value, "site."+key+" must be a scalar")
		}
	}

	pagesNode := mappingValue(body, "pages")
	if pagesNode == nil {
		return malformedAt(body, "missing pages section")
	}
	if pagesNode.Kind != yaml.SequenceNode {
		return malformedAt(pagesNode, "pages must be a sequence")
	}

	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolveAlias(node.Content[i+1])
		}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func malformedAt(node *yaml.Node, message string) error {
	return eris.Wrapf(ErrMalformedDocument, "yaml: line %d: %s", node.Line, message)
}
