package render

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WordsPerMinute is the reading speed used by EstimateReadTime.
const WordsPerMinute = 200

// Heading is one entry of a page outline.
type Heading struct {
	ID   string
	Text string
}

// Outline lists the h2 headings of an HTML fragment in document order.
// Headings without an id cannot be linked and are skipped.
func Outline(fragment string) ([]Heading, error) {
	root, err := parseFragment(fragment)
	if err != nil {
		return nil, err
	}

	headings := []Heading{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.H2 {
			id := attr(n, "id")
			text := strings.Join(strings.Fields(textContent(n)), " ")
			if id != "" && text != "" {
				headings = append(headings, Heading{ID: id, Text: text})
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return headings, nil
}

// EstimateReadTime returns the minutes needed to read the visible text of an
// HTML fragment, never less than one.
func EstimateReadTime(fragment string) int {
	root, err := parseFragment(fragment)
	if err != nil {
		return 1
	}

	words := len(strings.Fields(textContent(root)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func parseFragment(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, eris.Wrap(err, "parsing html fragment")
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

func textContent(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			builder.WriteString(node.Data)
			builder.WriteByte(' ')
		case html.ElementNode:
			if node.DataAtom == atom.Script || node.DataAtom == atom.Style {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return builder.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
