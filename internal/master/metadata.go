package master

import (
	"regexp"
	"strconv"
)

// Labels of the two metadata fields in the master document header.
const (
	countLabel      = "Всего проанализировано интервью: "
	lastUpdateLabel = "Последнее обновление: "
	neverUpdated    = "не проводилось"
)

var (
	countRe      = regexp.MustCompile(countLabel + `(\d+)`)
	lastUpdateRe = regexp.MustCompile(lastUpdateLabel + `(.+)`)
)

// header is the parsed metadata block. The text form stays the source of
// truth; this is the only place that knows how the fields are spelled.
type header struct {
	count      int
	lastUpdate string
}

// readHeader pulls the metadata fields out of text, defaulting fields
// that are missing or unparseable.
func readHeader(text string) header {
	h := header{lastUpdate: neverUpdated}
	if m := countRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			h.count = n
		}
	}
	if m := lastUpdateRe.FindStringSubmatch(text); m != nil {
		h.lastUpdate = m[1]
	}
	return h
}

// writeHeader rewrites the first occurrence of each field. Absent fields
// are not inserted.
func writeHeader(text string, h header) string {
	text = replaceFirst(text, countRe, countLabel+strconv.Itoa(h.count))
	text = replaceFirst(text, lastUpdateRe, lastUpdateLabel+h.lastUpdate)
	return text
}

func replaceFirst(text string, re *regexp.Regexp, repl string) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + repl + text[loc[1]:]
}
