package tmpl

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/graphview/internal/execctx"
	"github.com/hanpama/graphview/internal/linkstate"
	"github.com/hanpama/graphview/internal/result"
)

// funcMap returns the functions visible to templates. With a nil context the
// request-bound functions are placeholders, which is enough for parsing.
func funcMap(ec *execctx.ExecutionContext) map[string]any {
	if ec == nil {
		ec = execctx.New(nil, execctx.Options{})
	}
	param := func(name string) string {
		s, _ := ec.String(name)
		return s
	}
	return map[string]any{
		// context
		"param":     param,
		"params":    func(name string) []string { return ec.Strings(name) },
		"has":       ec.Has,
		"reasoning": func() bool { return ec.Options().Reasoning },
		"debug":     func() bool { return ec.Options().Debug },
		"link":      func() *linkstate.LinkBuilder { return newLink(ec.Request()) },

		// rows and terms
		"get":       getTerm,
		"value":     func(row *result.Row, name string) string { return row.Value(name) },
		"children":  func(row *result.Row, name string) *result.ResultSet { return row.Child(name) },
		"nt":        termNT,
		"iri":       func(s string) string { return result.IRI(s).NT() },
		"literal":   func(s string) string { return result.QuoteLiteral(s) },
		"localName": localName,
		"first":     first,

		// utilities
		"pivotMap":   result.PivotMap,
		"pivotTable": pivotTable,
		"join":       func(sep string, list []string) string { return strings.Join(list, sep) },
		"json":       toJSON,
		"default":    defaultValue,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
	}
}

func newLink(req *execctx.Request) *linkstate.LinkBuilder {
	base := req.BaseURL
	if base == "" {
		base = "/" + req.View
	}
	return linkstate.New(base, req.Params, req.ParamOrder...)
}

// termNT fails on an unbound term so a missing variable never renders as an
// empty query fragment.
func termNT(t result.Term) (string, error) {
	if t.IsZero() {
		return "", errors.New("nt: unbound term")
	}
	return t.NT(), nil
}

func getTerm(row *result.Row, name string) result.Term { return row.Get(name) }

func localName(v any) string {
	switch x := v.(type) {
	case result.Term:
		return x.LocalName()
	case string:
		return result.LocalName(x)
	default:
		return fmt.Sprint(v)
	}
}

func first(v any) any {
	switch x := v.(type) {
	case []string:
		if len(x) > 0 {
			return x[0]
		}
	case *result.ResultSet:
		if r := x.First(); r != nil {
			return r
		}
	case []result.Term:
		if len(x) > 0 {
			return x[0]
		}
	}
	return nil
}

func pivotTable(rs *result.ResultSet, s, p, o string, label ...string) *result.Table {
	l := ""
	if len(label) > 0 {
		l = label[0]
	}
	return result.PivotTable(rs, s, p, o, l)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// defaultValue returns def when v is empty, for use as {{ .x | default "y" }}.
func defaultValue(def, v any) any {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		if x == "" {
			return def
		}
	case []string:
		if len(x) == 0 {
			return def
		}
	case result.Term:
		if x.IsZero() {
			return def
		}
	}
	return v
}
