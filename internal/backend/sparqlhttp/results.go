package sparqlhttp

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hanpama/graphview/internal/result"
)

// resultsDocument is the SPARQL 1.1 Query Results JSON Format.
type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]jsonTerm `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang"`
	Datatype string `json:"datatype"`
}

func (j jsonTerm) term() (result.Term, error) {
	switch j.Type {
	case "uri":
		return result.IRI(j.Value), nil
	case "bnode":
		return result.BNode(j.Value), nil
	case "literal", "typed-literal":
		switch {
		case j.Lang != "":
			return result.LangLiteral(j.Value, j.Lang), nil
		case j.Datatype != "":
			return result.TypedLiteral(j.Value, j.Datatype), nil
		}
		return result.Literal(j.Value), nil
	}
	return result.Term{}, fmt.Errorf("%w: term type %q", ErrUnexpectedResponse, j.Type)
}

func decodeResults(r io.Reader) (*resultsDocument, error) {
	var doc resultsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return &doc, nil
}

// resultSet converts the bindings section, keeping head variable order.
// Variables bound in rows but missing from head are appended.
func (d *resultsDocument) resultSet() (*result.ResultSet, error) {
	if d.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrUnexpectedResponse)
	}
	vars := append([]string(nil), d.Head.Vars...)
	known := make(map[string]bool, len(vars))
	for _, v := range vars {
		known[v] = true
	}
	rs := result.NewResultSet(vars)
	for _, b := range d.Results.Bindings {
		row := result.NewRow()
		for _, v := range vars {
			if jt, ok := b[v]; ok {
				t, err := jt.term()
				if err != nil {
					return nil, err
				}
				row.Bind(v, t)
			}
		}
		for v, jt := range b {
			if known[v] {
				continue
			}
			t, err := jt.term()
			if err != nil {
				return nil, err
			}
			row.Bind(v, t)
			known[v] = true
			rs.Vars = append(rs.Vars, v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func (d *resultsDocument) boolean() (bool, error) {
	if d.Boolean == nil {
		return false, fmt.Errorf("%w: missing boolean", ErrUnexpectedResponse)
	}
	return *d.Boolean, nil
}
