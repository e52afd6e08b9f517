package sortutil

import "sort"

// Keys returns the keys of a name-keyed map in lexicographic order.
func Keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
