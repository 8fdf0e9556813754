package schema

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ExtractKeys returns the deduplicated query keys of a schema: every field
// name plus its dotted path. Keys with more path segments come first; equal
// depths keep the order in which they were first met.
func ExtractKeys(n *Node) []string {
	var raw []string
	collectKeys(n, "", &raw)

	seen := make(map[string]struct{}, len(raw))
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if utf8.RuneCountInString(k) <= 1 {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return strings.Count(keys[i], ".") > strings.Count(keys[j], ".")
	})
	return keys
}

func collectKeys(n *Node, parent string, keys *[]string) {
	if n == nil {
		return
	}
	switch n.Kind {
	case Object:
		for _, f := range n.Fields {
			full := f.Name
			if parent != "" {
				full = parent + "." + f.Name
			}
			*keys = append(*keys, f.Name, full)
			if !f.Value.IsLeaf() {
				collectKeys(f.Value, full, keys)
			}
		}
	default:
		// Arrays are not descended into; like non-string primitives they
		// only contribute the path that led to them.
		if parent != "" {
			*keys = append(*keys, parent)
		}
	}
}
