package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Block elements become paragraphs and
// ordered list items are renumbered.
type HTMLParser struct {
	MinPageChars int
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, &CorruptDocumentError{Filename: filename, Err: fmt.Errorf("parse html: %w", err)}
	}

	var blocks []string
	emit := func(t string) {
		if t = strings.TrimSpace(t); t != "" {
			blocks = append(blocks, t)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "head":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "td", "blockquote", "pre":
				emit(textContent(n))
				return
			case "ol":
				num := 1
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "li" {
						if t := textContent(c); t != "" {
							emit(fmt.Sprintf("%d. %s", num, t))
						}
						num++
					}
				}
				return
			case "li":
				emit(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	return singlePage(filename, "html", strings.Join(blocks, "\n\n"), p.MinPageChars), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
