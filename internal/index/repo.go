package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReportRow represents a row in the reports table.
type ReportRow struct {
	Filename   string    `json:"filename"`
	Respondent string    `json:"respondent"`
	Checksum   string    `json:"-"`
	SizeBytes  int64     `json:"size"`
	Tags       []string  `json:"tags"`
	Entities   []string  `json:"entities"`
	UpdatedAt  time.Time `json:"modified"`
}

// FacetCount is one facet value with the number of reports carrying it.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UpsertReport inserts or replaces a report and its facets within a transaction.
func (db *DB) UpsertReport(r ReportRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(r.Tags))
	entsJSON, _ := json.Marshal(nonNil(r.Entities))

	_, err = tx.Exec(`
		INSERT INTO reports (filename, respondent, checksum, size_bytes, tags, entities, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			respondent = excluded.respondent,
			checksum   = excluded.checksum,
			size_bytes = excluded.size_bytes,
			tags       = excluded.tags,
			entities   = excluded.entities,
			updated_at = excluded.updated_at
	`, r.Filename, r.Respondent, r.Checksum, r.SizeBytes, string(tagsJSON), string(entsJSON), r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert report: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM report_tags WHERE filename = ?`, r.Filename); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM report_entities WHERE filename = ?`, r.Filename); err != nil {
		return fmt.Errorf("index: clear entities: %w", err)
	}
	for _, tag := range r.Tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO report_tags (filename, tag, tag_key) VALUES (?, ?, ?)`,
			r.Filename, tag, tagKey(tag)); err != nil {
			return fmt.Errorf("index: insert tag: %w", err)
		}
	}
	for _, ent := range r.Entities {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO report_entities (filename, entity) VALUES (?, ?)`,
			r.Filename, ent); err != nil {
			return fmt.Errorf("index: insert entity: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteReport removes a report and its facets.
func (db *DB) DeleteReport(filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM report_tags WHERE filename = ?`, filename)
	_, _ = tx.Exec(`DELETE FROM report_entities WHERE filename = ?`, filename)
	_, _ = tx.Exec(`DELETE FROM reports WHERE filename = ?`, filename)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a report, or empty string if not found.
func (db *DB) GetChecksum(filename string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM reports WHERE filename = ?`, filename).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns filename → checksum for every catalogued report.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT filename, checksum FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

// ListReports returns catalogued reports, newest first. A non-empty tag
// (case-insensitive) or entity narrows the result to reports carrying it.
func (db *DB) ListReports(tag, entity string) ([]ReportRow, error) {
	q := `SELECT filename, respondent, checksum, size_bytes, tags, entities, updated_at FROM reports`
	var where []string
	var args []any
	if tag != "" {
		where = append(where, `filename IN (SELECT filename FROM report_tags WHERE tag_key = ?)`)
		args = append(args, tagKey(tag))
	}
	if entity != "" {
		where = append(where, `filename IN (SELECT filename FROM report_entities WHERE entity = ?)`)
		args = append(args, entity)
	}
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY updated_at DESC, filename`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list reports: %w", err)
	}
	defer rows.Close()

	out := []ReportRow{}
	for rows.Next() {
		var r ReportRow
		var tagsJSON, entsJSON string
		if err := rows.Scan(&r.Filename, &r.Respondent, &r.Checksum, &r.SizeBytes, &tagsJSON, &entsJSON, &r.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		_ = json.Unmarshal([]byte(entsJSON), &r.Entities)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TagCounts returns every tag with its report count, most used first.
// Tags are grouped case-insensitively.
func (db *DB) TagCounts() ([]FacetCount, error) {
	return db.facets(`
		SELECT MIN(tag), COUNT(*) FROM report_tags
		GROUP BY tag_key ORDER BY COUNT(*) DESC, tag_key`)
}

// EntityCounts returns every entity with its report count, most used first.
func (db *DB) EntityCounts() ([]FacetCount, error) {
	return db.facets(`
		SELECT entity, COUNT(*) FROM report_entities
		GROUP BY entity ORDER BY COUNT(*) DESC, entity`)
}

// Count returns the number of catalogued reports.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func (db *DB) facets(query string) ([]FacetCount, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("index: facets: %w", err)
	}
	defer rows.Close()
	out := []FacetCount{}
	for rows.Next() {
		var f FacetCount
		if err := rows.Scan(&f.Name, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// tagKey is the case-insensitive identity of a tag, with or without "#".
func tagKey(tag string) string {
	return strings.ToLower(strings.TrimPrefix(tag, "#"))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
