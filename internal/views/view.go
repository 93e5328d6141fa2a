package views

import (
	"fmt"
	"sort"

	"github.com/hanpama/graphview/internal/querytree"
	"github.com/hanpama/graphview/internal/tmpl"
)

// View is a compiled view: its query tree, the shared prefixes and one
// response template per media type. Views are immutable once compiled.
type View struct {
	Name       string
	Tree       *querytree.Tree
	Prefixes   string
	responses  map[string]*tmpl.Template
	mediaTypes []string
}

// Compile parses every template of src and builds its query tree.
func Compile(src *ViewSource, prefixes string) (*View, error) {
	queries := make(map[string]*tmpl.Template, len(src.Queries))
	for name, text := range src.Queries {
		q, err := tmpl.ParseQuery(querytree.Normalize(name), text)
		if err != nil {
			return nil, fmt.Errorf("view %q: %w", src.Name, err)
		}
		queries[name] = q
	}
	tree, err := querytree.Build(queries)
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", src.Name, err)
	}
	v := &View{
		Name:      src.Name,
		Tree:      tree,
		Prefixes:  prefixes,
		responses: make(map[string]*tmpl.Template, len(src.Responses)),
	}
	for mt, text := range src.Responses {
		r, err := tmpl.ParseResponse(FileFromMediaType(mt), mt, text)
		if err != nil {
			return nil, fmt.Errorf("view %q: %w", src.Name, err)
		}
		v.responses[mt] = r
		v.mediaTypes = append(v.mediaTypes, mt)
	}
	sort.Strings(v.mediaTypes)
	return v, nil
}

// MediaTypes lists the representations the view can produce, sorted.
func (v *View) MediaTypes() []string { return append([]string(nil), v.mediaTypes...) }

// Response returns the template for an exact media type.
func (v *View) Response(mediaType string) (*tmpl.Template, bool) {
	t, ok := v.responses[mediaType]
	return t, ok
}
