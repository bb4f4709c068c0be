// Package dictation applies user-maintained corrections to finished
// transcripts. Speech recognition reliably mangles names and jargon
// the same way every time; a small corrections file fixes the
// recurring ones.
package dictation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// iteration cap for corrections whose replacements re-trigger other
// corrections.
const maxPasses = 10

type correction struct {
	re          *regexp.Regexp
	replacement string
}

// Corrections is a compiled set of literal transcript fixes.
type Corrections struct {
	rules []correction
}

// LoadFile reads corrections from path. A missing or empty path yields
// an empty set, which Apply treats as the identity.
//
// Each non-blank, non-comment line has the form:
//
//	misheard text => corrected text
//
// Matching is case-insensitive.
func LoadFile(path string) (*Corrections, error) {
	if strings.TrimSpace(path) == "" {
		return &Corrections{}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Corrections{}, nil
		}
		return nil, fmt.Errorf("failed to read corrections file %q: %w", path, err)
	}
	return Parse(string(contents))
}

// Parse compiles corrections from file contents.
func Parse(contents string) (*Corrections, error) {
	var rules []correction
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		from, to, found := strings.Cut(line, "=>")
		if !found {
			return nil, fmt.Errorf("line %d: expected \"misheard => corrected\"", index+1)
		}
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" {
			return nil, fmt.Errorf("line %d: correction source cannot be empty", index+1)
		}

		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		rules = append(rules, correction{re: re, replacement: to})
	}
	return &Corrections{rules: rules}, nil
}

// Len reports the number of loaded corrections.
func (c *Corrections) Len() int {
	return len(c.rules)
}

// Apply rewrites text until no correction matches or the pass limit is
// reached.
func (c *Corrections) Apply(text string) string {
	if len(c.rules) == 0 {
		return text
	}

	result := text
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, rule := range c.rules {
			next := rule.re.ReplaceAllString(result, rule.replacement)
			if next != result {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result
}
