// Package parser extracts hashtags, known entities and report headers from
// analysis text.
package parser

import (
	"regexp"
	"strings"
)

// tagRe matches '#' followed by Unicode word characters.
var tagRe = regexp.MustCompile(`#[\p{L}\p{M}\p{N}_]+`)

// ExtractTags returns the hashtags found in text, deduplicated
// case-insensitively. The first spelling of each tag wins and the output
// keeps the order of first appearance.
func ExtractTags(text string) []string {
	matches := tagRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, t := range matches {
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
