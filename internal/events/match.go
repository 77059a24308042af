// Package events defines the match record model shared by the intake and
// alerter packages, along with dotted-path field lookup.
package events

import "strings"

// Match is a single event record that triggered a detection. A dispatch
// invocation carries an ordered slice of matches; field lookups and template
// expansion consult only the first record.
type Match map[string]any

// Lookup resolves a dotted field path against a match record. It first tries
// the path as a literal flat key (event sources may emit keys that contain
// dots), then walks nested maps segment by segment. At each level the longest
// remaining flat key wins before descending further.
//
// A missing field or an explicit nil value both report ok=false; absence is
// data here, not an error.
func Lookup(m Match, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	return lookup(map[string]any(m), path)
}

func lookup(node map[string]any, path string) (any, bool) {
	if v, ok := node[path]; ok {
		if v == nil {
			return nil, false
		}
		return v, true
	}

	// Walk segments, preferring the longest flat key at each level.
	segs := strings.Split(path, ".")
	for i := len(segs) - 1; i >= 1; i-- {
		head := strings.Join(segs[:i], ".")
		v, ok := node[head]
		if !ok {
			continue
		}
		child, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if res, ok := lookup(child, strings.Join(segs[i:], ".")); ok {
			return res, true
		}
	}
	return nil, false
}
