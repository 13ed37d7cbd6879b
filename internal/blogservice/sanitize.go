package blogservice

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var scriptTagPattern = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

func sanitizeHTML(content string) string {
	return scriptTagPattern.ReplaceAllString(content, "")
}

// extractText returns the rendered text of an HTML fragment.
func extractText(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String(), nil
}
