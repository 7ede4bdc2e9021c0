// Package extract pulls ranked film titles out of free-form model prose.
//
// Extraction is a best-effort heuristic, not a parse: lines that don't
// match the expected numbered shape are skipped, and a missing rank is not
// an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Titles holds one slot per rank 1-3. An empty string means the rank was
// not found in the response.
type Titles [3]string

// lineRe matches "N. [Title:] fragment" at the start of a line, capturing
// the rank and the title fragment up to the first colon or period.
var lineRe = regexp.MustCompile(`(?m)^\s*(\d+)\.\s*(?:Title:\s*)?([^:.\n]+)`)

// trailingRe strips a trailing comma or period left on the captured fragment.
var trailingRe = regexp.MustCompile(`[,.]\s*$`)

// Extract scans the response text for numbered title lines. Ranks outside
// 1-3 are ignored; a repeated rank overwrites the earlier capture, so the
// last occurrence wins.
func Extract(text string) Titles {
	var out Titles
	for _, m := range lineRe.FindAllStringSubmatch(text, -1) {
		rank, err := strconv.Atoi(m[1])
		if err != nil || rank < 1 || rank > 3 {
			continue
		}
		title := strings.TrimSpace(trailingRe.ReplaceAllString(m[2], ""))
		out[rank-1] = title
	}
	return out
}

// Count returns how many ranks were filled.
func (t Titles) Count() int {
	n := 0
	for _, s := range t {
		if s != "" {
			n++
		}
	}
	return n
}
