// Package prompt composes chat message lists from a system prompt, a user
// prompt template, substitution variables and an optional image reference.
package prompt

import (
	"fmt"
	"strings"
)

// Variable is a single placeholder substitution.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Variables is an ordered list of substitutions. Literal substitution applies
// them in slice order.
type Variables []Variable

// Vars builds Variables from alternating key, value arguments.
// A trailing key without a value is ignored.
func Vars(kv ...string) Variables {
	vars := make(Variables, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		vars = append(vars, Variable{Key: kv[i], Value: kv[i+1]})
	}
	return vars
}

// ParseVariables parses "key=value" pairs, keeping their order. Only the
// first '=' splits, so values may contain '='.
func ParseVariables(pairs []string) (Variables, error) {
	vars := make(Variables, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q: expected key=value", pair)
		}
		vars = append(vars, Variable{Key: key, Value: value})
	}
	return vars, nil
}

// Map returns the variables as template data. Later duplicates win.
func (v Variables) Map() map[string]string {
	m := make(map[string]string, len(v))
	for _, kv := range v {
		m[kv.Key] = kv.Value
	}
	return m
}

// Replace applies each substitution to s in order, replacing every literal
// occurrence of the key. Overlapping keys interact in order of application.
func (v Variables) Replace(s string) string {
	for _, kv := range v {
		if kv.Key == "" {
			continue
		}
		s = strings.ReplaceAll(s, kv.Key, kv.Value)
	}
	return s
}
