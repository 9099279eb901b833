package erp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The tabular query protocol has no bind variables, so query text must be
// assembled locally. Params are the only way values enter a template:
// every value is escaped or formatted at bind time, and callers never
// splice raw strings into query text.

// Param binds a named template placeholder to a rendered literal.
type Param struct {
	name     string
	rendered string
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// escapeString renders a string literal: single quotes doubled, control
// characters stripped.
func escapeString(v string) string {
	v = controlChars.ReplaceAllString(v, "")
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// StringParam binds a quoted, escaped string literal.
func StringParam(name, v string) Param {
	return Param{name: name, rendered: escapeString(v)}
}

// IntParam binds an integer literal.
func IntParam(name string, v int) Param {
	return Param{name: name, rendered: strconv.Itoa(v)}
}

// DecimalParam binds an exact numeric literal.
func DecimalParam(name string, v decimal.Decimal) Param {
	return Param{name: name, rendered: v.String()}
}

// DateParam binds a date literal in the platform's expected format.
func DateParam(name string, v time.Time) Param {
	return Param{name: name, rendered: "TO_DATE('" + v.Format("2006-01-02") + "', 'YYYY-MM-DD')"}
}

// ListParam binds a parenthesized list of escaped string literals, for
// use with IN clauses.
func ListParam(name string, vals []string) Param {
	escaped := make([]string, len(vals))
	for i, v := range vals {
		escaped[i] = escapeString(v)
	}
	return Param{name: name, rendered: "(" + strings.Join(escaped, ", ") + ")"}
}

// placeholderPattern matches {name} tokens in a template.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// BuildQuery expands a template's {name} placeholders with bound params.
// Every placeholder must be bound and every param must be used; mismatches
// are programming errors and surface immediately.
func BuildQuery(template string, params ...Param) (string, error) {
	bound := make(map[string]string, len(params))
	for _, p := range params {
		bound[p.name] = p.rendered
	}

	used := make(map[string]bool, len(params))
	var expandErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		rendered, ok := bound[name]
		if !ok {
			if expandErr == nil {
				expandErr = fmt.Errorf("%w: %s", ErrUnknownPlaceholder, name)
			}
			return token
		}
		used[name] = true
		return rendered
	})
	if expandErr != nil {
		return "", expandErr
	}

	for _, p := range params {
		if !used[p.name] {
			return "", fmt.Errorf("%w: %s", ErrUnusedParam, p.name)
		}
	}

	return out, nil
}
