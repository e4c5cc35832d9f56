package capture

import (
	"regexp"
	"strings"

	apperrors "github.com/livp123/axtext/pkg/errors"
)

const redactedMarker = "[REDACTED]"

var namedPatterns = map[string]string{
	"email": `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
	"cc16":  `\b(?:\d[ -]?){16}\b`,
	"jwt":   `eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+`,
}

// Redactor masks sensitive substrings. The zero value is a no-op.
// Redactor 屏蔽敏感子串；零值不做任何处理。
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the built-in email pattern (when redactEmails is set)
// followed by custom expressions; "email", "cc16" and "jwt" name built-ins.
// NewRedactor 编译内置邮箱模式及自定义表达式。
func NewRedactor(redactEmails bool, custom []string) (Redactor, error) {
	patterns := make([]*regexp.Regexp, 0, len(custom)+1)
	if redactEmails {
		patterns = append(patterns, regexp.MustCompile(namedPatterns["email"]))
	}

	for _, expr := range custom {
		trimmed := strings.TrimSpace(expr)
		if trimmed == "" {
			continue
		}
		candidate := trimmed
		if mapped, ok := namedPatterns[strings.ToLower(trimmed)]; ok {
			candidate = mapped
		}
		rx, err := regexp.Compile(candidate)
		if err != nil {
			return Redactor{}, apperrors.NewPatternError(trimmed, err)
		}
		patterns = append(patterns, rx)
	}
	return Redactor{patterns: patterns}, nil
}

// Apply returns input with every match replaced by [REDACTED].
func (r Redactor) Apply(input string) string {
	for _, rx := range r.patterns {
		input = rx.ReplaceAllString(input, redactedMarker)
	}
	return input
}

// Active reports whether any pattern is configured.
func (r Redactor) Active() bool {
	return len(r.patterns) > 0
}
