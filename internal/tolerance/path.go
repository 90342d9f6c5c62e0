package tolerance

import "strings"

// ShouldSortArray implements spec §4.C's array-sort decision: if
// ArrayFields is empty and SortArrays is enabled, sort every array;
// otherwise only sort when path equals or is a prefix of a listed
// field.
func (c *Config) ShouldSortArray(path string) bool {
	if len(c.ArrayFields) == 0 {
		return c.SortArrays
	}
	for _, field := range c.ArrayFields {
		if pathMatchesPrefix(path, field) {
			return true
		}
	}
	return false
}

// IsIgnored reports whether path is covered by an IgnoreFields entry:
// exact match, prefix-dot match, or regex match.
func (c *Config) IsIgnored(path string) bool {
	c.compile()
	for i, field := range c.IgnoreFields {
		if pathMatchesPrefix(path, field) {
			return true
		}
		if re := c.ignoreFieldRegexes[i]; re != nil && re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsHeaderIgnored reports whether a (lowercased) header name is in the
// IgnoreHeaders set.
func (c *Config) IsHeaderIgnored(name string) bool {
	c.compile()
	_, ok := c.ignoreHeaderSet[strings.ToLower(name)]
	return ok
}

// pathMatchesPrefix reports whether path equals field, or is a
// dot/bracket-delimited descendant of it (e.g. "items[0].id" is a
// descendant of "items").
func pathMatchesPrefix(path, field string) bool {
	if path == field {
		return true
	}
	if strings.HasPrefix(path, field+".") || strings.HasPrefix(path, field+"[") {
		return true
	}
	return false
}
