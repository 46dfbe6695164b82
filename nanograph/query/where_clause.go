package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/arthur-debert/nanograph/types"
)

// ClauseError reports a where clause that could not be parsed or bound
type ClauseError struct {
	Clause string
	Reason string
}

func (e *ClauseError) Error() string {
	return fmt.Sprintf("invalid where clause %q: %s", e.Clause, e.Reason)
}

// Supported operators. Keyword operators are tried first, longest first, so
// " not like " wins over " like " and a symbol inside a LIKE pattern is never
// taken as the operator.
var (
	suffixOperators  = []string{" is not null", " is null"}
	keywordOperators = []string{" not like ", " like "}
	symbolOperators  = []string{"!=", "<=", ">=", "=", "<", ">"}
)

const andSeparator = " and "

// condition is one parsed "field op value" term
type condition struct {
	field    string
	operator string
	value    types.Value
	pattern  *regexp.Regexp
}

// whereEvaluator matches records against a conjunction of conditions.
// Values are bound as typed Values, never spliced back into the clause text.
type whereEvaluator struct {
	conditions []condition
}

func newWhereEvaluator(clause string, args ...interface{}) (*whereEvaluator, error) {
	clause = collapseSpace(clause)
	if clause == "" {
		return &whereEvaluator{}, nil
	}

	bound := 0
	next := func() (types.Value, error) {
		if bound >= len(args) {
			return types.Value{}, &ClauseError{Clause: clause, Reason: fmt.Sprintf("missing argument for placeholder %d", bound+1)}
		}
		v, err := types.From(args[bound])
		if err != nil {
			return types.Value{}, &ClauseError{Clause: clause, Reason: fmt.Sprintf("argument %d: %v", bound+1, err)}
		}
		bound++
		return v, nil
	}

	parts := splitAnd(clause)
	ev := &whereEvaluator{conditions: make([]condition, 0, len(parts))}
	for _, part := range parts {
		cond, err := parseCondition(clause, strings.TrimSpace(part), next)
		if err != nil {
			return nil, err
		}
		ev.conditions = append(ev.conditions, cond)
	}

	if bound != len(args) {
		return nil, &ClauseError{
			Clause: clause,
			Reason: fmt.Sprintf("placeholder count (%d) doesn't match argument count (%d)", bound, len(args)),
		}
	}
	return ev, nil
}

// collapseSpace trims clause and folds whitespace runs outside quoted
// literals into one space
func collapseSpace(clause string) string {
	var b strings.Builder
	inQuote, pending := false, false
	for _, r := range strings.TrimSpace(clause) {
		if !inQuote && unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		if r == '\'' {
			inQuote = !inQuote
		}
		b.WriteRune(r)
	}
	return b.String()
}

// maskQuoted returns s with ASCII letters lowered and every byte inside a
// quoted literal replaced by NUL. Offsets in the result match offsets in s.
func maskQuoted(s string) string {
	out := make([]byte, len(s))
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			out[i] = c
		case inQuote:
			out[i] = 0
		case c >= 'A' && c <= 'Z':
			out[i] = c + ('a' - 'A')
		default:
			out[i] = c
		}
	}
	return string(out)
}

// splitAnd splits clause at AND keywords outside quoted literals
func splitAnd(clause string) []string {
	masked := maskQuoted(clause)
	var parts []string
	start := 0
	for {
		idx := strings.Index(masked[start:], andSeparator)
		if idx < 0 {
			return append(parts, clause[start:])
		}
		parts = append(parts, clause[start:start+idx])
		start += idx + len(andSeparator)
	}
}

// findOperator locates the operator of term, ignoring quoted literals
func findOperator(term string) (string, int) {
	masked := maskQuoted(term)
	for _, op := range suffixOperators {
		if strings.HasSuffix(masked, op) && len(masked) > len(op) {
			return op, len(masked) - len(op)
		}
	}
	for _, group := range [][]string{keywordOperators, symbolOperators} {
		for _, op := range group {
			if idx := strings.Index(masked, op); idx > 0 {
				return op, idx
			}
		}
	}
	return "", -1
}

func parseCondition(clause, term string, next func() (types.Value, error)) (condition, error) {
	op, idx := findOperator(term)
	if idx < 0 {
		return condition{}, &ClauseError{Clause: clause, Reason: fmt.Sprintf("no valid operator found in condition: %s", term)}
	}

	cond := condition{
		field:    strings.TrimSpace(term[:idx]),
		operator: strings.TrimSpace(op),
	}
	if cond.operator == "is null" || cond.operator == "is not null" {
		return cond, nil
	}

	raw := strings.TrimSpace(term[idx+len(op):])
	if raw == "?" {
		v, err := next()
		if err != nil {
			return condition{}, err
		}
		cond.value = v
	} else {
		cond.value = parseLiteral(raw)
	}

	if cond.operator == "like" || cond.operator == "not like" {
		pattern, err := likePattern(cond.value.Key())
		if err != nil {
			return condition{}, &ClauseError{Clause: clause, Reason: err.Error()}
		}
		cond.pattern = pattern
	}
	return cond, nil
}

// parseLiteral turns an inline clause value into a Value: quoted text is a
// string, then numbers, booleans and null are recognized.
func parseLiteral(raw string) types.Value {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return types.String(strings.ReplaceAll(raw[1:len(raw)-1], "''", "'"))
	}
	switch strings.ToLower(raw) {
	case "null":
		return types.Null()
	case "true":
		return types.Bool(true)
	case "false":
		return types.Bool(false)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return types.Number(n)
	}
	return types.String(raw)
}

// likePattern converts a SQL LIKE pattern: % matches any run, _ one character
func likePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid LIKE pattern '%s': %w", pattern, err)
	}
	return re, nil
}

func (we *whereEvaluator) matches(rec types.Record) bool {
	for _, cond := range we.conditions {
		if !cond.matches(rec.Get(cond.field)) {
			return false
		}
	}
	return true
}

func (c condition) matches(actual types.Value) bool {
	empty := actual.IsMissing() || actual.IsNull()
	switch c.operator {
	case "is null":
		return empty
	case "is not null":
		return !empty
	}

	if empty {
		// NULL only compares equal to an explicit null
		switch c.operator {
		case "=":
			return c.value.IsNull()
		case "!=":
			return !c.value.IsNull()
		default:
			return false
		}
	}

	switch c.operator {
	case "=":
		return equalLoose(actual, c.value)
	case "!=":
		return !equalLoose(actual, c.value)
	case ">":
		return types.Compare(actual, c.value) > 0
	case ">=":
		return types.Compare(actual, c.value) >= 0
	case "<":
		return types.Compare(actual, c.value) < 0
	case "<=":
		return types.Compare(actual, c.value) <= 0
	case "like":
		return c.pattern.MatchString(actual.Key())
	case "not like":
		return !c.pattern.MatchString(actual.Key())
	}
	return false
}

// equalLoose compares canonical keys, with booleans case-insensitive
func equalLoose(a, b types.Value) bool {
	if _, ok := a.Truth(); ok {
		return strings.EqualFold(a.Key(), b.Key())
	}
	return a.Key() == b.Key()
}
