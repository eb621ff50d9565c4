package util

import "strings"

// SplitList splits a comma separated list, trimming blanks and dropping empty and duplicate items.
// Order of first occurrence is kept.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Dedupe drops duplicate and empty names, keeping order of first occurrence.
func Dedupe(names []string) []string {
	return SplitList(strings.Join(names, ","))
}
