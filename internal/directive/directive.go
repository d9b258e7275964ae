// Package directive parses //durian: comment directives and indexes the
// declarations that carry them.
//
// A directive is a line comment of the form
//
//	//durian:name key=value key2="quoted value" flag
//
// written without a space after the slashes, like other Go tool directives.
// Values run until the next blank outside quotes and brackets, so Go
// expressions such as f(a, b) survive intact.
package directive

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Prefix starts every durian directive.
const Prefix = "//durian:"

const (
	// Partial opts a declaration in to receiving generated companion code.
	Partial = "partial"
	// Generated marks emitted code. User code must not carry it.
	Generated = "generated"
)

// Arg is one key=value pair. Value keeps its source spelling; a bare flag
// has an empty Value and Flag set.
type Arg struct {
	Key   string
	Value string
	Flag  bool
}

// Unquoted returns Value with Go string quoting removed when present.
func (a Arg) Unquoted() string {
	if s, err := strconv.Unquote(a.Value); err == nil {
		return s
	}
	return a.Value
}

// Directive is one parsed //durian: comment.
type Directive struct {
	Name string
	Args []Arg
	Raw  string
	Pos  token.Pos
	End  token.Pos
}

// Get returns the argument with key.
func (d Directive) Get(key string) (Arg, bool) {
	for _, a := range d.Args {
		if a.Key == key {
			return a, true
		}
	}
	return Arg{}, false
}

func (d Directive) String() string {
	return d.Raw
}

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("malformed directive")

// IsDirective reports whether text is a durian directive comment.
func IsDirective(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Parse parses a single comment text. ok is false when text is not a durian
// directive at all.
func Parse(text string) (d Directive, ok bool, err error) {
	if !IsDirective(text) {
		return Directive{}, false, nil
	}
	raw := norm.NFC.String(strings.TrimRightFunc(text, unicode.IsSpace))
	body := raw[len(Prefix):]

	name, rest := body, ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		name, rest = body[:i], body[i:]
	}
	d = Directive{Name: name, Raw: raw}
	if !validName(name) {
		return d, true, fmt.Errorf("%w: invalid name %q", ErrMalformed, name)
	}

	fields, err := splitArgs(rest)
	if err != nil {
		return d, true, err
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		key, value, hasValue := strings.Cut(f, "=")
		if !validName(key) {
			return d, true, fmt.Errorf("%w: invalid argument %q", ErrMalformed, f)
		}
		if _, dup := seen[key]; dup {
			return d, true, fmt.Errorf("%w: duplicate argument %q", ErrMalformed, key)
		}
		seen[key] = struct{}{}
		if hasValue && value == "" {
			return d, true, fmt.Errorf("%w: empty value for %q", ErrMalformed, key)
		}
		d.Args = append(d.Args, Arg{Key: key, Value: value, Flag: !hasValue})
	}
	return d, true, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// splitArgs splits on blanks that are outside quotes and brackets.
func splitArgs(s string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		depth int
		quote rune
		esc   bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			switch {
			case esc:
				esc = false
			case r == '\\' && quote == '"':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		case r == '"' || r == '`' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced %q", ErrMalformed, r)
			}
		case unicode.IsSpace(r) && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", ErrMalformed)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced brackets", ErrMalformed)
	}
	flush()
	return out, nil
}

// List is the ordered set of directives attached to one declaration.
type List []Directive

// Has reports whether a directive named name is present.
func (l List) Has(name string) bool {
	_, ok := l.Find(name)
	return ok
}

// Find returns the first directive named name.
func (l List) Find(name string) (Directive, bool) {
	for _, d := range l {
		if d.Name == name {
			return d, true
		}
	}
	return Directive{}, false
}

// Names returns directive names in order of appearance.
func (l List) Names() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.Name
	}
	return out
}

// Problem is a directive comment that failed to parse.
type Problem struct {
	Raw    string
	Pos    token.Pos
	End    token.Pos
	Reason string
}

// FromComments parses every durian directive in groups. Groups may be nil.
func FromComments(groups ...*ast.CommentGroup) (List, []Problem) {
	var (
		list     List
		problems []Problem
	)
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			d, ok, err := Parse(c.Text)
			if !ok {
				continue
			}
			if err != nil {
				problems = append(problems, Problem{
					Raw:    d.Raw,
					Pos:    c.Pos(),
					End:    c.End(),
					Reason: strings.TrimPrefix(err.Error(), ErrMalformed.Error()+": "),
				})
				continue
			}
			d.Pos, d.End = c.Pos(), c.End()
			list = append(list, d)
		}
	}
	return list, problems
}
