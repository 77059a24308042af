package events

import (
	"fmt"
	"sort"
	"strings"
)

// RenderBody builds the standard plain-text alert body used when a rule does
// not configure its own description template: the rule name followed by a
// key-sorted dump of every match record.
func RenderBody(ruleName string, matches []Match) string {
	var b strings.Builder
	b.WriteString(ruleName)
	b.WriteString("\n\n")

	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n")
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %v\n", k, m[k])
		}
	}
	return b.String()
}
