// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are elements whose text content is never visible (R2.1).
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ExtractText parses HTML and returns the page title and its visible text
// with whitespace collapsed (R2.1-R2.3). Markup that fails to parse as HTML
// is returned as-is: the tokenizer is lenient and real pages are rarely
// well-formed anyway.
func ExtractText(htmlSrc string) (title, text string) {
	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return "", collapseWhitespace(htmlSrc)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" {
				title = nodeText(n)
				return
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(title), collapseWhitespace(b.String())
}

// nodeText concatenates the text children of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
