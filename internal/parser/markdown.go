package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/examscope/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Ordered list items
// keep their numbers so the segmenter can still find question boundaries.
type MarkdownParser struct {
	MinPageChars int
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, markdownBlocks(n, src)...)
	}
	return singlePage(filename, "md", strings.Join(blocks, "\n\n"), p.MinPageChars), nil
}

func markdownBlocks(n ast.Node, src []byte) []string {
	switch node := n.(type) {
	case *ast.List:
		var items []string
		num := node.Start
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			body := strings.Join(childBlocks(c, src), "\n")
			if body == "" {
				continue
			}
			if node.IsOrdered() {
				items = append(items, fmt.Sprintf("%d%c %s", num, node.Marker, body))
				num++
			} else {
				items = append(items, body)
			}
		}
		return items
	case *ast.ThematicBreak:
		return nil
	}
	if t := extractText(n, src); t != "" {
		return []string{t}
	}
	return nil
}

func childBlocks(n ast.Node, src []byte) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, markdownBlocks(c, src)...)
	}
	return out
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
