package msbuild

import (
	"strings"
)

// scope resolves names while an expression is expanded.
type scope interface {
	property(name string) string
	itemIncludes(itemType string) []string
}

// expand substitutes $(property) and @(item) references in s. Static
// property functions ($([Type]::Member())) and registry lookups have no
// evaluator here and expand to the empty string. Property instance calls
// such as $(Name.Trim()) yield the property's value. Item transforms and
// %(metadata) references are left as written.
func expand(s string, sc scope) string {
	if !strings.ContainsAny(s, "$@") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if (c == '$' || c == '@') && i+1 < len(s) && s[i+1] == '(' {
			end := matchParen(s, i+1)
			if end < 0 {
				b.WriteString(s[i:])
				break
			}
			inner := s[i+2 : end]
			if c == '$' {
				b.WriteString(expandProperty(inner, sc))
			} else {
				b.WriteString(expandItemList(s[i:end+1], inner, sc))
			}
			i = end + 1
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// matchParen returns the index of the parenthesis closing the one at open,
// skipping over quoted strings, or -1.
func matchParen(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			if depth > 1 {
				quote = c
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func expandProperty(inner string, sc scope) string {
	inner = strings.TrimSpace(inner)
	if inner == "" || inner[0] == '[' {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(inner), "registry:") {
		return ""
	}
	name := inner
	if i := strings.IndexAny(inner, ".["); i >= 0 {
		name = inner[:i]
	}
	if !validName(name) {
		return ""
	}
	return sc.property(name)
}

func expandItemList(raw, inner string, sc scope) string {
	inner = strings.TrimSpace(inner)
	if strings.Contains(inner, "->") {
		return raw
	}
	sep := ";"
	if i := strings.IndexByte(inner, ','); i >= 0 {
		sep = unquote(strings.TrimSpace(inner[i+1:]))
		inner = strings.TrimSpace(inner[:i])
	}
	if !validName(inner) {
		return raw
	}
	return strings.Join(sc.itemIncludes(inner), sep)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// validName reports whether s is a legal property or item type name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
		case i > 0 && (c == '-' || (c >= '0' && c <= '9')):
		default:
			return false
		}
	}
	return true
}

// splitList splits a semicolon-separated MSBuild list, dropping empty
// entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
