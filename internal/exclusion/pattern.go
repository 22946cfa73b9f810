package exclusion

import (
	"fmt"
	"regexp"
	"strings"
)

const wildcard = "*"

// CompilePattern converts a glob pattern into a regular expression that must
// match the whole candidate. "*" matches any sequence of characters, including
// separators; everything else is literal.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, wildcard)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}

	re, err := regexp.Compile("^(?:" + strings.Join(parts, ".*") + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// Compile compiles patterns in order. The returned slice has the same length
// and order as the input.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := CompilePattern(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
