// Package conform turns arbitrary source stream and property names into
// valid, safely-unique relational identifiers.
package conform

import (
	"regexp"
	"strings"
)

var (
	illegalRuns = regexp.MustCompile(`[^A-Za-z0-9_]+`)

	// wordBoundary splits an uppercase run followed by a lowercase letter
	// ("XMLHttp" -> "XML_Http"); caseEdge splits a lowercase letter or digit
	// followed by an uppercase letter ("html5Parser" -> "html5_Parser").
	wordBoundary = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	caseEdge     = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// Name conforms a source name to a target identifier. Deterministic and
// idempotent: Name(Name(x)) == Name(x) for all x.
//
// Steps, in order: squash every run of characters outside [A-Za-z0-9_] to a
// single underscore, rotate leading underscores to the end of the string,
// convert to lower snake case, and prefix names that would start with a
// digit.
func Name(name string) string {
	name = illegalRuns.ReplaceAllString(name, "_")
	name = rotateLeadingUnderscores(name)
	name = snakeCase(name)
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "n" + name
	}
	return name
}

// Names conforms every name in order.
func Names(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Name(n)
	}
	return out
}

// rotateLeadingUnderscores moves leading underscores to the tail, preserving
// their count: "__Foo" -> "Foo__". Identifiers starting with an underscore
// collide with reserved system column prefixes on some targets.
func rotateLeadingUnderscores(name string) string {
	trimmed := strings.TrimLeft(name, "_")
	return trimmed + name[:len(name)-len(trimmed)]
}

func snakeCase(name string) string {
	name = wordBoundary.ReplaceAllString(name, "${1}_${2}")
	name = caseEdge.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(name)
}
