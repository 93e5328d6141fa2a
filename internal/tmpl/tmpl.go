// Package tmpl instantiates query and response templates against an
// execution context.
//
// Templates use Go template syntax. Query templates and non-HTML responses are
// text templates; HTML responses are html templates so values are escaped for
// their context. Only the functions in funcs.go are callable: templates can
// read the context, rows and terms, and build links, but cannot reach host
// logic.
package tmpl

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"github.com/hanpama/graphview/internal/execctx"
)

// ErrEmptyQuery signals that a query template rendered to blank text. It is a
// control signal: the query is skipped and its result is empty.
var ErrEmptyQuery = errors.New("tmpl: query rendered empty")

// Error is a template that failed to parse or execute.
type Error struct {
	Template string
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("template %s: %v", e.Template, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Template is a parsed query or response template.
type Template struct {
	name      string
	mediaType string
	text      *texttemplate.Template
	html      *htmltemplate.Template
}

// ParseQuery parses a query template.
func ParseQuery(name, src string) (*Template, error) {
	t, err := texttemplate.New(name).Funcs(texttemplate.FuncMap(funcMap(nil))).Parse(src)
	if err != nil {
		return nil, &Error{Template: name, Err: err}
	}
	return &Template{name: name, text: t}, nil
}

// ParseResponse parses a response template producing mediaType.
func ParseResponse(name, mediaType, src string) (*Template, error) {
	if IsHTML(mediaType) {
		t, err := htmltemplate.New(name).Funcs(htmltemplate.FuncMap(funcMap(nil))).Parse(src)
		if err != nil {
			return nil, &Error{Template: name, Err: err}
		}
		return &Template{name: name, mediaType: mediaType, html: t}, nil
	}
	t, err := texttemplate.New(name).Funcs(texttemplate.FuncMap(funcMap(nil))).Parse(src)
	if err != nil {
		return nil, &Error{Template: name, Err: err}
	}
	return &Template{name: name, mediaType: mediaType, text: t}, nil
}

// IsHTML reports whether mediaType needs HTML escaping.
func IsHTML(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func (t *Template) Name() string      { return t.name }
func (t *Template) MediaType() string { return t.mediaType }

// Execute renders t against ec into w.
func (t *Template) Execute(w io.Writer, ec *execctx.ExecutionContext) error {
	fm := funcMap(ec)
	data := ec.Data()
	var err error
	if t.html != nil {
		var c *htmltemplate.Template
		if c, err = t.html.Clone(); err == nil {
			err = c.Funcs(htmltemplate.FuncMap(fm)).Execute(w, data)
		}
	} else {
		var c *texttemplate.Template
		if c, err = t.text.Clone(); err == nil {
			err = c.Funcs(texttemplate.FuncMap(fm)).Execute(w, data)
		}
	}
	if err != nil {
		return &Error{Template: t.name, Err: err}
	}
	return nil
}

// Render renders t against ec to a string.
func Render(t *Template, ec *execctx.ExecutionContext) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, ec); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderedQuery is an instantiated query ready to send to a backend.
type RenderedQuery struct {
	Template string
	Text     string
}

// RenderQuery renders a query template and prepends the shared prefix
// fragment. A blank body yields ErrEmptyQuery.
func RenderQuery(t *Template, prefixes string, ec *execctx.ExecutionContext) (RenderedQuery, error) {
	body, err := Render(t, ec)
	if err != nil {
		return RenderedQuery{}, err
	}
	if strings.TrimSpace(body) == "" {
		return RenderedQuery{Template: t.name}, ErrEmptyQuery
	}
	text := body
	if p := strings.TrimSpace(prefixes); p != "" {
		text = p + "\n" + body
	}
	return RenderedQuery{Template: t.name, Text: text}, nil
}
