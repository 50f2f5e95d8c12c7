package sqltext

import (
	"regexp"
	"strings"
)

// Policy defines which statements the validator accepts. The allowed and
// forbidden sets vary by deployment, so they are configuration, not law:
// pick one policy per deployment, never mix.
type Policy struct {
	// AllowedLeading are the keywords a statement may start with.
	AllowedLeading []string
	// Forbidden rejects any statement it matches.
	Forbidden *regexp.Regexp
}

// DefaultPolicy permits the full statement set the sanitizer extracts and
// blocks the classic injection vocabulary.
func DefaultPolicy() *Policy {
	return &Policy{
		AllowedLeading: leadingKeywords,
		Forbidden: regexp.MustCompile(
			`(?i)(\bSCRIPT\b|\bDECLARE\b|\bEXEC\b|\bSP_|\bXP_|;\s*--|--\s*--)`),
	}
}

// ReadOnlyPolicy restricts output to SELECT and WITH statements and
// additionally blocks UNION and MERGE.
func ReadOnlyPolicy() *Policy {
	return &Policy{
		AllowedLeading: []string{"WITH", "SELECT"},
		Forbidden: regexp.MustCompile(
			`(?i)(\bSCRIPT\b|\bDECLARE\b|\bEXEC\b|\bSP_|\bXP_|\bUNION\b|\bMERGE\b|;\s*--|--\s*--)`),
	}
}

// PolicyByName maps a config value to a policy; unknown names fall back to
// the default.
func PolicyByName(name string) *Policy {
	if strings.EqualFold(name, "read_only") {
		return ReadOnlyPolicy()
	}
	return DefaultPolicy()
}

// IsValid reports whether sql passes the policy: an allowed leading keyword,
// no forbidden pattern, balanced parentheses, and a single statement.
func (p *Policy) IsValid(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return false
	}

	if !p.hasAllowedLeading(trimmed) {
		return false
	}
	if p.Forbidden != nil && p.Forbidden.MatchString(trimmed) {
		return false
	}
	if !parensBalanced(trimmed) {
		return false
	}
	return singleStatement(trimmed)
}

func (p *Policy) hasAllowedLeading(sql string) bool {
	upper := strings.ToUpper(sql)
	for _, kw := range p.AllowedLeading {
		if strings.HasPrefix(upper, kw+" ") || strings.HasPrefix(upper, kw+"(") ||
			upper == kw || strings.HasPrefix(upper, kw+";") {
			return true
		}
	}
	return false
}

// parensBalanced scans left to right outside single-quoted literals, failing
// immediately when the depth goes negative. Skipping literal content is a
// deliberate tightening over a plain character count: a statement selecting
// "'('" is balanced SQL and must not be rejected for its string content.
func parensBalanced(sql string) bool {
	depth := 0
	inQuote := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// singleStatement permits semicolons only inside quoted literals or as the
// statement terminator. As with parensBalanced, quote-awareness keeps
// legitimate literal content from tripping the check.
func singleStatement(sql string) bool {
	inQuote := false
	for i, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote:
		case r == ';':
			rest := strings.TrimSpace(sql[i+1:])
			if rest != "" {
				return false
			}
		}
	}
	return true
}
