// Package partition compiles sink key templates such as
// "logs/{{host}}/app.log" and resolves them against events to produce the
// key an event is routed or written under.
//
// A template holds at most one placeholder kind. The first "{{key}}" found
// decides the field that is looked up; every occurrence of that exact
// placeholder text is substituted, any other placeholder is kept verbatim.
package partition

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/bittrance/vector/pkg/event"
)

// placeholder matches "{{" followed by one or more non-digit characters and
// "}}". The key is matched lazily so "{{a}}-{{b}}" yields "a".
var placeholder = regexp.MustCompile(`\{\{(?P<key>[^0-9]+?)\}\}`)

// Spec is a compiled key template. It is either Static or Field.
type Spec interface {
	isSpec()
}

// Static is a template without placeholders; it resolves to itself.
type Static struct {
	Bytes []byte
}

// Field is a template whose placeholder is replaced by the value of Key.
type Field struct {
	// Matcher matches exactly the placeholder text found in Template.
	Matcher  *regexp.Regexp
	Template []byte
	Key      string
}

func (Static) isSpec() {}
func (Field) isSpec()  {}

// Compile turns template into a Spec. It never fails: a template without a
// usable placeholder compiles to Static.
func Compile(template string) Spec {
	loc := placeholder.FindStringSubmatchIndex(template)
	if loc == nil {
		return Static{Bytes: []byte(template)}
	}

	key := template[loc[2]:loc[3]]
	if !utf8.ValidString(key) {
		return Static{Bytes: []byte(template)}
	}

	return Field{
		Matcher:  regexp.MustCompile(regexp.QuoteMeta(template[loc[0]:loc[1]])),
		Template: []byte(template),
		Key:      key,
	}
}

// Resolve produces the key for e. The boolean is false when the field named
// by the template is missing from e; the caller must then drop the event.
// The returned slice is never shared with spec or e. Resolve panics on a
// nil spec.
func Resolve(e event.Event, spec Spec, logger *slog.Logger) ([]byte, bool) {
	switch s := spec.(type) {
	case Static:
		return bytes.Clone(s.Bytes), true
	case Field:
		value, ok := e.Get(s.Key)
		if !ok {
			if logger != nil {
				logger.Warn("event key does not exist on the event and the event will be dropped",
					"key", s.Key)
			}
			return nil, false
		}
		return s.Matcher.ReplaceAllLiteral(s.Template, value.Bytes()), true
	default:
		// Spec is sealed; only a nil Spec gets here.
		panic(fmt.Sprintf("partition: cannot resolve spec %T", spec))
	}
}
