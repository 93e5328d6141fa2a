package views

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrViewNotFound is a view name no Discovery knows.
	ErrViewNotFound = errors.New("views: view not found")
	// ErrNoAcceptableRepresentation is an Accept header no response template
	// of the view satisfies.
	ErrNoAcceptableRepresentation = errors.New("views: no acceptable representation")
)

// PrefixesFile is the shared prefix fragment at the views root.
const PrefixesFile = "prefixes.sparql"

const (
	queryExt    = ".query"
	responseExt = ".response"
)

// ViewSource is the raw template text of one view.
type ViewSource struct {
	Name string
	// Queries maps query names ("fields", "fields_devices") to template text.
	Queries map[string]string
	// Responses maps media types to template text.
	Responses map[string]string
}

// Discovery finds view definitions.
type Discovery interface {
	ListViews(ctx context.Context) ([]string, error)
	// ReadView returns ErrViewNotFound for unknown names.
	ReadView(ctx context.Context, name string) (*ViewSource, error)
	// ReadPrefixes returns the shared prefix fragment, "" when there is none.
	ReadPrefixes(ctx context.Context) (string, error)
}

// MediaTypeFromFile decodes a response file base name: the first '_' stands
// for '/', so "application_ld+json" is "application/ld+json".
func MediaTypeFromFile(base string) string {
	return strings.Replace(base, "_", "/", 1)
}

// FileFromMediaType is the inverse of MediaTypeFromFile.
func FileFromMediaType(mediaType string) string {
	return strings.ReplaceAll(mediaType, "/", "_")
}

// ValidName reports whether name can address a view directory: one path
// segment, not hidden.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
