package iris

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// The template grammar is deliberately a single flat bracket form:
// {0[field.path]} references a dotted field of the first match record.
// Nothing else is interpreted; nesting and escaping are not supported.

const (
	tokenOpen  = "{0["
	tokenClose = "]}"
	// missingFormat marks unresolvable fields in the rendered output.
	// Formatting is total: a missing field never aborts the alert.
	missingFormat = "<MISSING: %s>"
)

// segment is one parsed piece of a template: either literal text or a field
// reference.
type segment struct {
	literal string
	field   string
}

// parseTemplate splits a template string into literal and field segments.
// Malformed tokens (an opener without a matching "]}") pass through as
// literal text.
func parseTemplate(s string) []segment {
	var segs []segment
	for {
		open := strings.Index(s, tokenOpen)
		if open < 0 {
			break
		}
		rest := s[open+len(tokenOpen):]
		end := strings.Index(rest, tokenClose)
		if end < 0 {
			break
		}
		if open > 0 {
			segs = append(segs, segment{literal: s[:open]})
		}
		segs = append(segs, segment{field: rest[:end]})
		s = rest[end+len(tokenClose):]
	}
	if s != "" {
		segs = append(segs, segment{literal: s})
	}
	return segs
}

// formatTemplate expands a template against the first match record. An empty
// template means "not configured" and renders as nil so the caller can carry
// the distinction into the payload. List values are joined with ", ".
func formatTemplate(tmpl string, matches []events.Match) any {
	if tmpl == "" {
		return nil
	}
	return formatString(tmpl, matches)
}

// formatString is like formatTemplate but always yields a string, for fields
// such as the title that are present even when templated text is empty.
func formatString(tmpl string, matches []events.Match) string {
	var first events.Match
	if len(matches) > 0 {
		first = matches[0]
	}

	var b strings.Builder
	for _, seg := range parseTemplate(tmpl) {
		if seg.field == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := events.Lookup(first, seg.field)
		if !ok {
			fmt.Fprintf(&b, missingFormat, seg.field)
			continue
		}
		b.WriteString(stringify(v))
	}
	return b.String()
}

// stringify converts a resolved field value to its rendered form: sequences
// are flattened with ", ", scalars use their default formatting.
func stringify(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []string:
		return strings.Join(vv, ", ")
	case []any:
		parts := make([]string, len(vv))
		for i, item := range vv {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	}

	// Other slice kinds (e.g. []int decoded from YAML) flatten the same way.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
