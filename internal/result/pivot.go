package result

import "sort"

// PivotMap groups subject/predicate/object rows by subject. Each output row
// binds the subject under s and every predicate twice: by full identifier and
// by local name. Subjects keep their order of first appearance; for repeated
// predicates the first object wins.
func PivotMap(rs *ResultSet, s, p, o string) *ResultSet {
	out := &ResultSet{Vars: []string{s}}
	seenVar := map[string]bool{s: true}
	bySubject := make(map[Term]*Row)
	if rs == nil {
		return out
	}
	for _, in := range rs.Rows {
		subj, ok := in.Lookup(s)
		if !ok {
			continue
		}
		row, ok := bySubject[subj]
		if !ok {
			row = NewRow().Bind(s, subj)
			bySubject[subj] = row
			out.Rows = append(out.Rows, row)
		}
		pred, ok := in.Lookup(p)
		if !ok {
			continue
		}
		obj := in.Get(o)
		for _, name := range []string{pred.Value, pred.LocalName()} {
			if row.Has(name) {
				continue
			}
			row.Bind(name, obj)
			if !seenVar[name] {
				seenVar[name] = true
				out.Vars = append(out.Vars, name)
			}
		}
	}
	return out
}

// Table is a two-dimensional pivot. Header[0] and Rows[i][0] are the corner
// and subject columns; a zero Term marks a gap.
type Table struct {
	Header []Term
	Rows   [][]Term
}

// PivotTable lays subject/predicate/object rows out as a table with one
// column per distinct predicate (sorted by identifier) and one row per
// distinct subject (in order of first appearance). When label is non-empty,
// a header cell shows the label bound alongside its predicate instead.
func PivotTable(rs *ResultSet, s, p, o, label string) *Table {
	t := &Table{}
	if rs == nil {
		t.Header = []Term{{}}
		return t
	}
	preds := make(map[string]Term)
	labels := make(map[string]Term)
	var subjects []Term
	cells := make(map[Term]map[string]Term)
	for _, in := range rs.Rows {
		subj, ok := in.Lookup(s)
		if !ok {
			continue
		}
		if _, ok := cells[subj]; !ok {
			cells[subj] = make(map[string]Term)
			subjects = append(subjects, subj)
		}
		pred, ok := in.Lookup(p)
		if !ok {
			continue
		}
		preds[pred.Value] = pred
		if label != "" {
			if l, ok := in.Lookup(label); ok {
				if _, seen := labels[pred.Value]; !seen {
					labels[pred.Value] = l
				}
			}
		}
		if _, set := cells[subj][pred.Value]; !set {
			cells[subj][pred.Value] = in.Get(o)
		}
	}

	keys := make([]string, 0, len(preds))
	for k := range preds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t.Header = make([]Term, 0, len(keys)+1)
	t.Header = append(t.Header, Term{})
	for _, k := range keys {
		if l, ok := labels[k]; ok {
			t.Header = append(t.Header, l)
		} else {
			t.Header = append(t.Header, preds[k])
		}
	}
	for _, subj := range subjects {
		row := make([]Term, 0, len(keys)+1)
		row = append(row, subj)
		for _, k := range keys {
			row = append(row, cells[subj][k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
