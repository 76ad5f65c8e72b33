// Package atlas turns Atlas Files into shareable documents: slugs,
// sanitized HTML and PDF.
package atlas

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"html/template"
	"strings"

	"travelatlas/internal/domain/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	// section bodies are user content
	ugc   = bluemonday.UGCPolicy()
	strip = bluemonday.StrictPolicy()
)

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return ugc.Sanitize(buf.String()), nil
}

// PlainText renders markdown and drops all markup, keeping block line breaks.
func PlainText(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return src
	}
	text := stdhtml.UnescapeString(strip.Sanitize(buf.String()))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

type htmlSection struct {
	models.AtlasSection
	BodyHTML template.HTML
}

type htmlDoc struct {
	models.AtlasFile
	Sections []htmlSection
}

var documentTmpl = template.Must(template.New("atlas").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<article class="atlas-file">
<header>
<h1>{{.Title}}</h1>
{{- if .Destination}}
<p class="destination">{{.Destination}}</p>
{{- end}}
{{- if .CoverImageURL}}
<img class="cover" src="{{.CoverImageURL}}" alt="{{.Title}}">
{{- end}}
{{- if .Summary}}
<p class="summary">{{.Summary}}</p>
{{- end}}
{{- if .Tags}}
<ul class="tags">{{range .Tags}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
</header>
{{- range .Sections}}
<section class="day" data-day="{{.DayNumber}}">
<h2>{{.Title}}</h2>
{{.BodyHTML}}
{{- range .Images}}
<img src="{{.}}" alt="" loading="lazy">
{{- end}}
</section>
{{- end}}
</article>
</body>
</html>
`))

// RenderHTML renders a standalone HTML document for f. Image paths are
// expected to be resolved to public URLs already.
func RenderHTML(f models.AtlasFile) ([]byte, error) {
	doc := htmlDoc{AtlasFile: f}
	for _, s := range f.Sections {
		body, err := RenderMarkdown(s.Body)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, htmlSection{AtlasSection: s, BodyHTML: template.HTML(body)})
	}
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render atlas html: %w", err)
	}
	return buf.Bytes(), nil
}
