package result

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTerm parses one term in N-Triples syntax. Text that is not a term is
// reported as an error; callers decide whether to fall back to a literal.
func ParseTerm(s string) (Term, error) {
	t, rest, err := readTerm(strings.TrimSpace(s))
	if err != nil {
		return Term{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return Term{}, fmt.Errorf("trailing input after term: %q", rest)
	}
	return t, nil
}

// ReadNTriples streams N-Triples (or N-Quads) statements from r to fn.
// Blank lines and comments are skipped.
func ReadNTriples(r io.Reader, fn func(Triple) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		st, err := parseStatement(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
	return sc.Err()
}

// WriteNTriples writes statements in N-Triples form, adding the graph label
// when present.
func WriteNTriples(w io.Writer, ts []Triple) error {
	bw := bufio.NewWriter(w)
	for _, t := range ts {
		bw.WriteString(t.Subject.NT())
		bw.WriteByte(' ')
		bw.WriteString(t.Predicate.NT())
		bw.WriteByte(' ')
		bw.WriteString(t.Object.NT())
		if !t.Graph.IsZero() {
			bw.WriteByte(' ')
			bw.WriteString(t.Graph.NT())
		}
		bw.WriteString(" .\n")
	}
	return bw.Flush()
}

func parseStatement(s string) (Triple, error) {
	var st Triple
	var err error
	if st.Subject, s, err = readTerm(s); err != nil {
		return st, fmt.Errorf("subject: %w", err)
	}
	if st.Predicate, s, err = readTerm(strings.TrimLeft(s, " \t")); err != nil {
		return st, fmt.Errorf("predicate: %w", err)
	}
	if st.Object, s, err = readTerm(strings.TrimLeft(s, " \t")); err != nil {
		return st, fmt.Errorf("object: %w", err)
	}
	s = strings.TrimLeft(s, " \t")
	if s != "" && s[0] != '.' {
		if st.Graph, s, err = readTerm(s); err != nil {
			return st, fmt.Errorf("graph: %w", err)
		}
		s = strings.TrimLeft(s, " \t")
	}
	if !strings.HasPrefix(s, ".") {
		return st, fmt.Errorf("missing terminating '.'")
	}
	if rest := strings.TrimSpace(s[1:]); rest != "" && rest[0] != '#' {
		return st, fmt.Errorf("unexpected input after '.': %q", rest)
	}
	if st.Subject.IsLiteral() || !st.Predicate.IsIRI() {
		return st, fmt.Errorf("invalid statement shape")
	}
	return st, nil
}

func readTerm(s string) (Term, string, error) {
	if s == "" {
		return Term{}, s, fmt.Errorf("unexpected end of input")
	}
	switch {
	case s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return Term{}, s, fmt.Errorf("unterminated IRI")
		}
		v, err := unescape(s[1:end])
		if err != nil {
			return Term{}, s, err
		}
		return IRI(v), s[end+1:], nil
	case strings.HasPrefix(s, "_:"):
		end := 2
		for end < len(s) && !isSpace(s[end]) {
			end++
		}
		for end > 2 && s[end-1] == '.' {
			end--
		}
		if end == 2 {
			return Term{}, s, fmt.Errorf("empty blank node label")
		}
		return BNode(s[2:end]), s[end:], nil
	case s[0] == '"':
		end := 1
		for end < len(s) {
			if s[end] == '\\' {
				end += 2
				continue
			}
			if s[end] == '"' {
				break
			}
			end++
		}
		if end >= len(s) {
			return Term{}, s, fmt.Errorf("unterminated literal")
		}
		v, err := unescape(s[1:end])
		if err != nil {
			return Term{}, s, err
		}
		rest := s[end+1:]
		switch {
		case strings.HasPrefix(rest, "@"):
			i := 1
			for i < len(rest) && !isSpace(rest[i]) && rest[i] != '.' {
				i++
			}
			return LangLiteral(v, rest[1:i]), rest[i:], nil
		case strings.HasPrefix(rest, "^^"):
			dt, rest2, err := readTerm(rest[2:])
			if err != nil || !dt.IsIRI() {
				return Term{}, s, fmt.Errorf("invalid datatype")
			}
			return TypedLiteral(v, dt.Value), rest2, nil
		}
		return Literal(v), rest, nil
	}
	return Term{}, s, fmt.Errorf("unexpected character %q", s[0])
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+n >= len(s) {
				return "", fmt.Errorf("short unicode escape")
			}
			cp, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape: %w", err)
			}
			b.WriteRune(rune(cp))
			i += n
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
