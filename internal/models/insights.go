// Package models defines the record shapes shared by the insights packages.
package models

import (
	"encoding/json"
	"time"
)

// ReportInfo describes one stored report file.
type ReportInfo struct {
	Filename   string    `json:"filename"`
	Respondent string    `json:"respondent"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size"`
	ModifiedAt time.Time `json:"modified"`
}

// Field is a single key/value line of a report header.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is an ordered list of report header fields.
type Metadata []Field

// Add appends a field and returns the extended list.
func (m Metadata) Add(key string, value any) Metadata {
	return append(m, Field{Key: key, Value: stringify(value)})
}

// Insight is a candidate finding to cross-reference against prior reports.
type Insight struct {
	Text  string `json:"text"`
	Quote string `json:"quote"`
}

// UnmarshalJSON accepts either an object or a bare string, which becomes
// the insight text.
func (in *Insight) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*in = Insight{Text: text}
		return nil
	}
	type plain Insight
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*in = Insight(p)
	return nil
}

// Mention is corroborating evidence found in another respondent's report.
type Mention struct {
	Respondent    string `json:"respondent"`
	Quote         string `json:"quote"`
	MatchStrength int    `json:"match_strength"`
}

// Comparison is the cross-reference result for one insight.
type Comparison struct {
	Insight  string    `json:"insight"`
	Quote    string    `json:"quote"`
	Mentions []Mention `json:"mentions"`
}

// SearchHit is one search result. Master hits carry a line number and
// context; report hits carry only the respondent and a match flag.
type SearchHit struct {
	Source     string `json:"source"`
	LineNumber int    `json:"line_number,omitempty"`
	Context    string `json:"context,omitempty"`
	Respondent string `json:"respondent,omitempty"`
	Matched    bool   `json:"matched,omitempty"`
}

// Statistics summarises the master document.
type Statistics struct {
	TotalInterviews int      `json:"total_interviews"`
	LastUpdate      string   `json:"last_update"`
	TagCount        int      `json:"unique_tags"`
	Tags            []string `json:"tags"`
	MasterFileSize  int64    `json:"master_file_size"`
	ReportCount     int      `json:"report_count"`
}

// Transcript is what the document reader hands over for one interview.
type Transcript struct {
	RespondentName string `json:"respondent_name"`
	Content        string `json:"content"`
	WordCount      int    `json:"word_count"`
}

// AnalysisResult is what the AI provider returns for one transcript.
type AnalysisResult struct {
	Success    bool   `json:"success"`
	Analysis   string `json:"analysis"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
	Error      string `json:"error,omitempty"`
}

// FileMeta is a lightweight description of a stored markdown file.
type FileMeta struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
