package llm

import "strings"

// ExtractJSON returns the JSON payload of a model reply. Replies often wrap
// the payload in a ``` fence (with or without a language tag) or surround
// it with prose; the first balanced object or array wins. Delimiters inside
// JSON strings are ignored. It returns "" when nothing JSON-like is found.
func ExtractJSON(text string) string {
	if body, ok := fenced(text); ok {
		text = body
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	if end := balancedEnd(text[start:]); end > 0 {
		return text[start : start+end]
	}
	// Truncated or unbalanced object: take the outermost braces so the
	// decoder can report a precise error.
	if text[start] == '{' {
		if end := strings.LastIndexByte(text, '}'); end > start {
			return text[start : end+1]
		}
	}
	return ""
}

// fenced returns the body of the first ``` block in text.
func fenced(text string) (string, bool) {
	_, rest, ok := strings.Cut(text, "```")
	if !ok {
		return "", false
	}
	// drop the info string ("json", "JSON", "javascript", ...)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	body, _, _ := strings.Cut(rest, "```")
	return strings.TrimSpace(body), true
}

// balancedEnd returns the length of the leading JSON object or array of s,
// or 0 when it never closes.
func balancedEnd(s string) int {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case c == '}' || c == ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1
			}
		}
	}
	return 0
}
