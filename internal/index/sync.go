package index

import (
	"log/slog"
	"path"

	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/parser"
	"github.com/starford/insights/internal/reports"
	"github.com/starford/insights/internal/storage"
)

// Source describes where reports live and how their entities are found.
type Source struct {
	Store    storage.Provider
	Dir      string // reports directory relative to the provider root
	Entities *parser.Entities
}

// Sync lists the reports directory and brings the catalog up to date:
//   - new/changed reports are parsed and upserted
//   - reports removed from disk are deleted from the catalog
func Sync(db Catalog, src Source, logger *slog.Logger) error {
	metas, err := src.Store.List(src.Dir)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Name] = struct{}{}

		data, err := readReport(src, m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("filename", m.Name), slog.String("error", err.Error()))
			continue
		}
		if checksums[m.Name] == storage.Checksum(data) {
			continue
		}
		if err := upsertData(db, src, m, data); err != nil {
			logger.Warn("sync: index failed", slog.String("filename", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("filename", m.Name))
		}
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteReport(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("filename", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("filename", name))
			}
		}
	}

	return nil
}

func readReport(src Source, filename string) ([]byte, error) {
	return src.Store.Read(path.Join(src.Dir, filename))
}

// indexFile reads the report described by m and upserts it into the catalog.
func indexFile(db Catalog, src Source, m models.FileMeta) error {
	data, err := readReport(src, m.Name)
	if err != nil {
		return err
	}
	return upsertData(db, src, m, data)
}

// upsertData stores the catalog row for report content data.
func upsertData(db Catalog, src Source, m models.FileMeta, data []byte) error {
	rep := parser.ParseReport(string(data))

	var ents []string
	if src.Entities != nil {
		ents = src.Entities.Extract(rep.Body)
	}

	return db.UpsertReport(ReportRow{
		Filename:   m.Name,
		Respondent: reports.RespondentFromFilename(m.Name),
		Checksum:   storage.Checksum(data),
		SizeBytes:  int64(len(data)),
		Tags:       rep.Tags,
		Entities:   ents,
		UpdatedAt:  m.UpdatedAt,
	})
}

// IndexReport refreshes the catalog row of a single report.
func IndexReport(db Catalog, src Source, filename string) error {
	meta, err := src.Store.Stat(path.Join(src.Dir, filename))
	if err != nil {
		return err
	}
	meta.Name = filename
	return indexFile(db, src, meta)
}
