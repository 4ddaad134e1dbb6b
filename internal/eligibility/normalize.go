package eligibility

import (
	"sort"
	"strconv"
	"strings"
)

// normalizeTerms lowercases and trims a free-text term set. A nil input stays
// nil so that "set not documented" remains distinguishable from an empty set.
func normalizeTerms(terms []string) []string {
	if terms == nil {
		return nil
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(strings.TrimSpace(t)))
	}
	return out
}

// hasAny reports whether any needle appears in the haystack set.
// Both sides are expected normalized; needles are normalized defensively
// because they come straight from trial JSON.
func hasAny(haystack, needles []string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[strings.ToLower(strings.TrimSpace(n))]; ok {
			return true
		}
	}
	return false
}

// hasAll reports whether every needle appears in the haystack set.
func hasAll(haystack, needles []string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[strings.ToLower(strings.TrimSpace(n))]; !ok {
			return false
		}
	}
	return true
}

// sortedUnique deduplicates and lexicographically sorts a message bucket,
// giving presentation-stable output regardless of evaluation order.
func sortedUnique(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// fmtNum renders a numeric value the way it was written: no exponent,
// no trailing zeros.
func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fmtBounds renders a [min,max] interval, with "-" for an open side.
func fmtBounds(min, max *float64) string {
	lo, hi := "-", "-"
	if min != nil {
		lo = fmtNum(*min)
	}
	if max != nil {
		hi = fmtNum(*max)
	}
	return "[" + lo + "," + hi + "]"
}
