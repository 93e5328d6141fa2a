package result

import (
	"encoding/json"
	"strings"
)

// TermKind distinguishes the RDF term types a binding can hold.
type TermKind uint8

const (
	KindIRI TermKind = iota + 1
	KindLiteral
	KindBNode
)

func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "uri"
	case KindLiteral:
		return "literal"
	case KindBNode:
		return "bnode"
	default:
		return "unbound"
	}
}

// Term is a single bound value: a resource identifier, a blank node or a
// (possibly language-tagged or typed) literal. The zero Term means unbound.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

func IRI(v string) Term               { return Term{Kind: KindIRI, Value: v} }
func BNode(id string) Term            { return Term{Kind: KindBNode, Value: id} }
func Literal(v string) Term           { return Term{Kind: KindLiteral, Value: v} }
func LangLiteral(v, lang string) Term { return Term{Kind: KindLiteral, Value: v, Lang: lang} }
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// IsZero reports whether t is unbound.
func (t Term) IsZero() bool { return t.Kind == 0 }

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }
func (t Term) IsBNode() bool   { return t.Kind == KindBNode }

// String returns the lexical value, so templates print plain text by default.
func (t Term) String() string { return t.Value }

// NT returns the N-Triples form of t. The same syntax is valid SPARQL, which is
// how bound parent values are spliced into child queries.
func (t Term) NT() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBNode:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" && t.Datatype != xsdString {
			return s + "^^<" + escapeIRI(t.Datatype) + ">"
		}
		return s
	default:
		return ""
	}
}

// LocalName returns the part of an IRI after the last '#', '/' or ':'.
// Non-IRI terms return their value unchanged.
func (t Term) LocalName() string {
	if t.Kind != KindIRI {
		return t.Value
	}
	return LocalName(t.Value)
}

// LocalName returns the fragment or last path segment of an identifier.
func LocalName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/:"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}

// MarshalJSON encodes t in the SPARQL 1.1 JSON results term shape.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	m := map[string]string{"type": t.Kind.String(), "value": t.Value}
	if t.Lang != "" {
		m["xml:lang"] = t.Lang
	}
	if t.Datatype != "" {
		m["datatype"] = t.Datatype
	}
	return json.Marshal(m)
}

const xsdString = "http://www.w3.org/2001/XMLSchema#string"

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string { return literalEscaper.Replace(s) }

var iriEscaper = strings.NewReplacer(
	">", "%3E",
	"<", "%3C",
	" ", "%20",
	`"`, "%22",
	"{", "%7B",
	"}", "%7D",
	"\\", "%5C",
)

func escapeIRI(s string) string { return iriEscaper.Replace(s) }

// QuoteLiteral returns s as a quoted, escaped plain literal.
func QuoteLiteral(s string) string { return `"` + escapeLiteral(s) + `"` }
