package sqlstore

import (
	"database/sql/driver"
	"fmt"

	"github.com/hanpama/graphview/internal/result"
	"modernc.org/sqlite"
)

func init() {
	// Term accessors so SQL queries can filter and project on the lexical
	// parts of stored N-Triples terms.
	sqlite.MustRegisterDeterministicScalarFunction("term_value", 1, termFunc(func(t result.Term) string { return t.Value }))
	sqlite.MustRegisterDeterministicScalarFunction("term_lang", 1, termFunc(func(t result.Term) string { return t.Lang }))
	sqlite.MustRegisterDeterministicScalarFunction("term_localname", 1, termFunc(result.Term.LocalName))
	sqlite.MustRegisterDeterministicScalarFunction("term_kind", 1, termFunc(func(t result.Term) string { return t.Kind.String() }))
}

func termFunc(fn func(result.Term) string) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		s, ok := driverValueToString(args[0])
		if !ok {
			return nil, nil
		}
		return fn(parseValue(s)), nil
	}
}

func driverValueToString(v driver.Value) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// parseValue reads a stored column back into a term. Text that is not in
// N-Triples term syntax becomes a plain literal.
func parseValue(s string) result.Term {
	if t, err := result.ParseTerm(s); err == nil {
		return t
	}
	return result.Literal(s)
}
