package index

// Catalog defines the report catalog operations. Sync, Watch and the
// insights service depend on it rather than on *DB.
type Catalog interface {
	UpsertReport(r ReportRow) error
	DeleteReport(filename string) error
	GetChecksum(filename string) (string, error)
	AllChecksums() (map[string]string, error)
	ListReports(tag, entity string) ([]ReportRow, error)
	TagCounts() ([]FacetCount, error)
	EntityCounts() ([]FacetCount, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
