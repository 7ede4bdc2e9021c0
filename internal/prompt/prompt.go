// Package prompt builds the model instruction from accumulated dialog
// selections.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when genres or years are empty.
var ErrInvalidInput = errors.New("prompt: genres and years must be non-empty")

// Build renders the model prompt for the given selections. The numbered
// answer format it requests is the one the title extractor parses; the two
// packages share that contract. Output is deterministic for given inputs.
func Build(genres, years []string, keywords string) (string, error) {
	if len(genres) == 0 || len(years) == 0 {
		return "", ErrInvalidInput
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommend the top 3 films in the %s genre, released in %s.",
		strings.Join(genres, ", "), strings.Join(years, ", "))
	if keywords != "" {
		fmt.Fprintf(&b, " Match these keywords: '%s'.", keywords)
	}
	b.WriteString(" Answer with a numbered list of exactly three films, each on its own line,")
	b.WriteString(` in the format "1. Title: Year, Genre. Short description."`)
	return b.String(), nil
}
