package keys

import (
	"strings"
)

const (
	// PfxCreatorLookup prefixes memoized creator reputation lookups
	PfxCreatorLookup = "creator"
	// PfxDedup prefixes seen-log dedup keys
	PfxDedup = "dedup"
	// PfxSpam prefixes per-creator launch counters
	PfxSpam = "spam"
)

// CustomKey joins key components with the given delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// CacheKey joins cache key components with ":"
func CacheKey(components ...string) string {
	return CustomKey(":", components...)
}
