package ratelimit

import "strings"

// Match returns the rule governing a request. Exempt patterns yield a rule
// with no limit. Exact patterns beat prefixes and the longest prefix wins.
// ok is false when only the default limit applies.
func (c *Config) Match(method, path string) (rule Rule, ok bool) {
	pattern := method + " " + path
	for _, p := range c.Exempt {
		if p == pattern {
			return Rule{Pattern: p}, true
		}
	}

	best := -1
	for i, r := range c.Rules {
		m, p := r.split()
		if m != method {
			continue
		}
		if p == path {
			return r, true
		}
		if r.prefix() && strings.HasPrefix(path, p) && (best < 0 || len(r.Pattern) > len(c.Rules[best].Pattern)) {
			best = i
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return c.Rules[best], true
}
