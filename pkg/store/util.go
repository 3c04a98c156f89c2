package store

import "sort"

// DedupeStrings drops empty and repeated values, keeping first occurrences.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SortedKeys returns the deduplicated, sorted lookup keys for a working set.
func SortedKeys(in []string) []string {
	out := DedupeStrings(in)
	sort.Strings(out)
	return out
}
