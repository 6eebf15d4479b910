package assets

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
<main>
{{.Body}}
{{with .Message}}<p class="message">{{.}}</p>{{end}}
{{with .Form}}<form method="post" action="{{.Action}}">
<label for="{{.Field}}">{{.Label}}</label>
<input type="url" id="{{.Field}}" name="{{.Field}}" placeholder="{{.Placeholder}}" required>
<button type="submit">{{.Submit}}</button>
</form>{{end}}
</main>
</body>
</html>`

// Form describes the single-field form rendered below a page.
type Form struct {
	Action      string
	Field       string
	Label       string
	Placeholder string
	Submit      string
}

// PageData is the per-request input to Render.
type PageData struct {
	Title   string
	Message string
	Form    *Form
}

// Renderer converts Markdown pages to complete HTML documents.
type Renderer struct {
	loader Loader
	style  string
	md     goldmark.Markdown
	layout *template.Template
}

// NewRenderer creates a Renderer reading pages from loader and styling them
// with the named style.
func NewRenderer(loader Loader, style string) (*Renderer, error) {
	if style == "" {
		style = DefaultStyleName
	}
	css, err := loader.LoadStyle(style)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	return &Renderer{
		loader: loader,
		style:  css,
		md:     md,
		layout: template.Must(template.New("layout").Parse(layoutHTML)),
	}, nil
}

// Render writes page name as HTML to w.
func (r *Renderer) Render(w io.Writer, name string, data PageData) error {
	src, err := r.loader.LoadPage(name)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := r.md.Convert([]byte(src), &body); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}

	// #nosec G203 -- goldmark output with raw HTML disabled
	return r.layout.Execute(w, struct {
		PageData
		Style template.CSS
		Body  template.HTML
	}{
		PageData: data,
		Style:    template.CSS(r.style),
		Body:     template.HTML(body.String()),
	})
}
