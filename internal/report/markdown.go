package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders the report as a markdown document.
func Markdown(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Exam analysis: %s\n\n", cell(r.Filename))
	fmt.Fprintf(&sb, "- Total questions: %d\n", r.TotalQuestions)
	fmt.Fprintf(&sb, "- Unclassified: %d\n", r.UnclassifiedCount)
	fmt.Fprintf(&sb, "- Primary subject: %s\n", cell(r.PrimarySubject))
	fmt.Fprintf(&sb, "- Analysis method: %s\n", r.Method)
	if len(r.ProvidersUsed) > 0 {
		fmt.Fprintf(&sb, "- Providers: %s\n", strings.Join(r.ProvidersUsed, ", "))
	}
	fmt.Fprintf(&sb, "- Pages: %d (%d via OCR)\n", r.Pages, r.OCRPages)
	if len(r.Files) > 1 {
		fmt.Fprintf(&sb, "- Files: %s\n", cell(strings.Join(r.Files, ", ")))
	}

	writeTable(&sb, "Chapters", "Chapter", r.RankedChapters())
	writeTable(&sb, "Topics", "Topic", r.RankedTopics())

	if len(r.Samples) > 0 {
		sb.WriteString("\n## Sample questions\n\n")
		sb.WriteString("| # | Question | Chapter | Topics |\n|---|---|---|---|\n")
		for i, s := range r.Samples {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, cell(s.Question), cell(s.Chapter), cell(strings.Join(s.Topics, ", ")))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "- %s\n", cell(w))
		}
	}
	return sb.String()
}

func writeTable(sb *strings.Builder, title, label string, counts []Count) {
	fmt.Fprintf(sb, "\n## %s\n\n", title)
	if len(counts) == 0 {
		sb.WriteString("_None._\n")
		return
	}
	fmt.Fprintf(sb, "| Rank | %s | Questions |\n|---:|---|---:|\n", label)
	for i, c := range counts {
		fmt.Fprintf(sb, "| %d | %s | %d |\n", i+1, cell(c.Name), c.Count)
	}
}

// cell flattens text so it stays inside one table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return s
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders the markdown report to a standalone HTML page.
func HTML(r *Report) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>Exam analysis: %s</title>\n", html.EscapeString(r.Filename))
	out.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3em .6em}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
