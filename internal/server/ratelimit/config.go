package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one route. Pattern has the form "METHOD /path". A path ending
// in "/" covers every path below it, and those paths share one bucket.
type Rule struct {
	Pattern string
	Limit   int           // requests per Window; zero means unlimited
	Window  time.Duration
	Burst   int           // defaults to Limit
}

func (r Rule) split() (method, path string) {
	method, path, _ = strings.Cut(r.Pattern, " ")
	return method, path
}

func (r Rule) prefix() bool {
	_, path := r.split()
	return strings.HasSuffix(path, "/")
}

// DefaultRules returns the per-route limits. Routes that call an LLM or
// launch a browser are the most expensive.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "POST /api/job/analyze", Limit: 30, Window: time.Hour, Burst: 5},
		{Pattern: "POST /api/tailor", Limit: 30, Window: time.Hour, Burst: 5},
		{Pattern: "POST /api/match/stream", Limit: 30, Window: time.Hour, Burst: 5},
		{Pattern: "POST /api/export/", Limit: 60, Window: time.Hour, Burst: 10},

		{Pattern: "POST /api/auth/register", Limit: 10, Window: time.Hour, Burst: 3},
		{Pattern: "POST /api/auth/login", Limit: 20, Window: time.Minute, Burst: 5},
		{Pattern: "PUT /api/auth/password", Limit: 10, Window: time.Hour, Burst: 3},

		// debounced sync pushes
		{Pattern: "POST /api/resume", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// DefaultExempt lists the patterns that are never limited.
func DefaultExempt() []string {
	return []string{"GET /health", "GET /metrics"}
}

// LoadConfig reads the limiter configuration from RATE_LIMIT_* variables.
//
// RATE_LIMIT_RULES overrides or adds routes, separated by ";", each written
// as "METHOD /path=LIMIT/WINDOW" with an optional "+BURST" suffix, for
// example "POST /api/tailor=10/1h+2". Malformed entries are ignored.
func LoadConfig() *Config {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) *Config {
	e := envReader(getenv)
	cfg := &Config{Enabled: e.bool("RATE_LIMIT_ENABLED", true)}
	if !cfg.Enabled {
		return cfg
	}
	cfg.DefaultLimit = e.int("RATE_LIMIT_DEFAULT_LIMIT", 1000)
	cfg.DefaultWindow = e.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute)
	cfg.CleanupInterval = e.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	cfg.Trusted = e.set("RATE_LIMIT_TRUSTED")
	cfg.Blocked = e.set("RATE_LIMIT_BLOCKED")
	cfg.Exempt = DefaultExempt()
	cfg.Rules = mergeRules(DefaultRules(), parseRules(getenv("RATE_LIMIT_RULES")))
	return cfg
}

// parseRules parses the RATE_LIMIT_RULES syntax.
func parseRules(s string) []Rule {
	var rules []Rule
	for _, entry := range strings.Split(s, ";") {
		if r, err := parseRule(strings.TrimSpace(entry)); err == nil {
			rules = append(rules, r)
		}
	}
	return rules
}

func parseRule(entry string) (Rule, error) {
	pattern, quota, ok := strings.Cut(entry, "=")
	method, path, hasPath := strings.Cut(strings.TrimSpace(pattern), " ")
	if !ok || !hasPath || method == "" || !strings.HasPrefix(path, "/") {
		return Rule{}, fmt.Errorf("invalid rate limit rule %q", entry)
	}
	quota, burst, hasBurst := strings.Cut(quota, "+")
	limit, window, ok := strings.Cut(quota, "/")
	if !ok {
		return Rule{}, fmt.Errorf("invalid rate limit rule %q: missing window", entry)
	}

	r := Rule{Pattern: strings.ToUpper(method) + " " + path}
	var err error
	if r.Limit, err = strconv.Atoi(limit); err != nil || r.Limit < 0 {
		return Rule{}, fmt.Errorf("invalid rate limit rule %q: bad limit", entry)
	}
	if r.Window, err = time.ParseDuration(window); err != nil || r.Window <= 0 {
		return Rule{}, fmt.Errorf("invalid rate limit rule %q: bad window", entry)
	}
	if hasBurst {
		if r.Burst, err = strconv.Atoi(burst); err != nil || r.Burst < 0 {
			return Rule{}, fmt.Errorf("invalid rate limit rule %q: bad burst", entry)
		}
	}
	return r, nil
}

// mergeRules replaces base rules that share a pattern with an override and
// appends the rest.
func mergeRules(base, overrides []Rule) []Rule {
	out := append([]Rule(nil), base...)
next:
	for _, o := range overrides {
		for i := range out {
			if out[i].Pattern == o.Pattern {
				out[i] = o
				continue next
			}
		}
		out = append(out, o)
	}
	return out
}

type envReader func(string) string

func (e envReader) int(key string, def int) int {
	if v, err := strconv.Atoi(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	if v, err := strconv.ParseBool(e(key)); err == nil {
		return v
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(e(key)); err == nil {
		return v
	}
	return def
}

// set parses a comma separated list of client ids.
func (e envReader) set(key string) map[string]bool {
	out := make(map[string]bool)
	for _, item := range strings.Split(e(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out[item] = true
		}
	}
	return out
}
