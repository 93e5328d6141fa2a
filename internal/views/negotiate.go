package views

import (
	"strings"

	"github.com/munnerz/goautoneg"
)

// Negotiate picks the response template for an Accept header.
//
// Clauses are tried in preference order. A media type whose most specific
// matching clause has q=0 is refused and never chosen, not even as fallback.
// A wildcard clause prefers fallback when the view has it, otherwise the
// first media type in sorted order. An empty header behaves like "*/*". When
// nothing matches, fallback is used if the view has it and it is not refused;
// otherwise the result is ErrNoAcceptableRepresentation.
func (v *View) Negotiate(accept, fallback string) (string, error) {
	if len(v.mediaTypes) == 0 {
		return "", ErrNoAcceptableRepresentation
	}
	_, hasFallback := v.responses[fallback]
	if strings.TrimSpace(accept) == "" {
		if hasFallback {
			return fallback, nil
		}
		return v.mediaTypes[0], nil
	}
	clauses := goautoneg.ParseAccept(accept)
	acceptable := func(mt string) bool { return !refused(clauses, mt) }
	hasFallback = hasFallback && acceptable(fallback)

	for _, clause := range clauses {
		if clause.Q <= 0 {
			continue
		}
		if hasFallback && matches(clause, fallback) && (clause.Type == "*" || clause.SubType == "*") {
			return fallback, nil
		}
		for _, mt := range v.mediaTypes {
			if matches(clause, mt) && acceptable(mt) {
				return mt, nil
			}
		}
	}
	if hasFallback {
		return fallback, nil
	}
	return "", ErrNoAcceptableRepresentation
}

// refused reports whether the most specific clause matching mediaType has
// q=0. "text/html;q=0, */*" refuses text/html only; "text/*;q=0, text/html"
// still accepts text/html.
func refused(clauses []goautoneg.Accept, mediaType string) bool {
	best, q := -1, 0.0
	for _, c := range clauses {
		if !matches(c, mediaType) {
			continue
		}
		if s := specificity(c); s > best {
			best, q = s, c.Q
		}
	}
	return best >= 0 && q <= 0
}

func specificity(c goautoneg.Accept) int {
	switch {
	case c.Type == "*":
		return 0
	case c.SubType == "*":
		return 1
	default:
		return 2
	}
}

func matches(clause goautoneg.Accept, mediaType string) bool {
	typ, sub, _ := strings.Cut(strings.ToLower(mediaType), "/")
	ct, cs := strings.ToLower(clause.Type), strings.ToLower(clause.SubType)
	switch {
	case ct == "*" && cs == "*":
		return true
	case ct == typ && cs == "*":
		return true
	default:
		return ct == typ && cs == sub
	}
}

// ContentType is the header value for a negotiated media type.
func ContentType(mediaType string) string {
	if strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "json") || strings.HasSuffix(mediaType, "+xml") {
		return mediaType + "; charset=utf-8"
	}
	return mediaType
}
