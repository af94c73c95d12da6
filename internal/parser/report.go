package parser

import (
	"strings"

	"github.com/starford/insights/internal/models"
)

// reportSeparator divides a report header from the analysis body.
const reportSeparator = "\n---\n"

// Report is a stored report split into its parts.
type Report struct {
	Title    string          `json:"title"`
	Metadata models.Metadata `json:"metadata"`
	Body     string          `json:"body"`
	Tags     []string        `json:"tags"`
}

// ParseReport splits report text into header fields and the analysis body.
// Text without a separator is treated as body only.
func ParseReport(text string) *Report {
	header, body, ok := strings.Cut(text, reportSeparator)
	if !ok {
		header, body = "", text
	}
	body = strings.TrimLeft(body, "\n")
	body = strings.TrimSuffix(body, "\n")

	r := &Report{
		Title:    deriveTitle(header),
		Metadata: headerFields(header),
		Body:     body,
		Tags:     ExtractTags(body),
	}
	return r
}

// headerFields collects "- key: value" lines from a report header.
func headerFields(header string) models.Metadata {
	var out models.Metadata
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		key, value, ok := strings.Cut(rest, ": ")
		if !ok {
			continue
		}
		out = append(out, models.Field{Key: key, Value: value})
	}
	return out
}

// deriveTitle returns the first H1 heading, or empty string.
func deriveTitle(header string) string {
	for _, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
