// Package crossref finds corroborating quotes for candidate insights in
// the reports of other respondents, using literal keyword overlap.
package crossref

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/starford/insights/internal/models"
)

const (
	minKeywordRunes = 5 // keywords are longer than four characters
	minMatches      = 2
	maxMentions     = 5

	minQuoteRunes    = 20
	maxQuoteRunes    = 300
	maxFallbackRunes = 200
)

// ReportReader loads report content by filename.
type ReportReader interface {
	Read(filename string) (string, bool)
}

// Matcher cross-references insights against stored reports.
type Matcher struct {
	reports ReportReader
	logger  *slog.Logger
}

// New returns a Matcher reading report content through r.
func New(r ReportReader, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{reports: r, logger: logger}
}

// Compare returns one comparison per insight. Reports belonging to
// current are skipped, as are reports that cannot be loaded.
func (m *Matcher) Compare(insights []models.Insight, current string, all []models.ReportInfo) []models.Comparison {
	out := make([]models.Comparison, 0, len(insights))
	for _, in := range insights {
		out = append(out, models.Comparison{
			Insight:  in.Text,
			Quote:    in.Quote,
			Mentions: m.mentions(Keywords(in.Text), current, all),
		})
	}
	return out
}

func (m *Matcher) mentions(keywords []string, current string, all []models.ReportInfo) []models.Mention {
	found := []models.Mention{}
	if len(keywords) < minMatches {
		return found
	}
	for _, r := range all {
		if r.Respondent == current {
			continue
		}
		content, ok := m.reports.Read(r.Filename)
		if !ok {
			m.logger.Debug("crossref: report skipped", slog.String("filename", r.Filename))
			continue
		}
		matched := matchKeywords(keywords, strings.ToLower(content))
		if len(matched) < minMatches {
			continue
		}
		found = append(found, models.Mention{
			Respondent:    r.Respondent,
			Quote:         ExtractQuote(content, matched),
			MatchStrength: len(matched),
		})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].MatchStrength > found[j].MatchStrength
	})
	if len(found) > maxMentions {
		found = found[:maxMentions]
	}
	return found
}

// Keywords splits text on whitespace and keeps the lowercased words longer
// than four characters. Repeated words are kept.
func Keywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) >= minKeywordRunes {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// matchKeywords returns the keywords that occur in lower.
func matchKeywords(keywords []string, lower string) []string {
	var out []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// ExtractQuote picks a representative line of text for keywords. A line
// with a keyword and a quotation marker is preferred; otherwise the first
// long enough line with a keyword is used, cut to 200 characters with an
// ellipsis when the untrimmed line is longer than that.
func ExtractQuote(text string, keywords []string) string {
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if !containsAny(strings.ToLower(line), keywords) || !hasQuoteMarker(line) {
			continue
		}
		quote := strings.TrimSpace(line)
		quote = strings.TrimSpace(strings.TrimLeft(quote, ">"))
		if n := utf8.RuneCountInString(quote); n > minQuoteRunes && n < maxQuoteRunes {
			return quote
		}
	}

	for _, line := range lines {
		if !containsAny(strings.ToLower(line), keywords) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) <= minQuoteRunes {
			continue
		}
		// The ellipsis depends on the untrimmed line length.
		if utf8.RuneCountInString(line) > maxFallbackRunes {
			if r := []rune(trimmed); len(r) > maxFallbackRunes {
				trimmed = string(r[:maxFallbackRunes])
			}
			return trimmed + "..."
		}
		return trimmed
	}
	return ""
}

func hasQuoteMarker(line string) bool {
	return strings.ContainsAny(line, "«\">")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
