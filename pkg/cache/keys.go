package cache

import "strings"

// JoinKey joins key segments with ':'. Empty segments are kept so that positional
// keys stay unambiguous.
func JoinKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// PrefixPattern matches every key under prefix. The prefix is terminated with ':' so
// "series:fred" does not also match "series:fredx".
func PrefixPattern(parts ...string) string {
	return JoinKey(parts...) + ":*"
}
