package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch records one Excel upload: how many rows landed, how many were
// skipped as duplicates, and the per-row validation divergences the importer
// collected (kept as JSON so the frontend can render them verbatim).
type ImportBatch struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	FileName       string         `gorm:"size:255;not null" json:"file_name"`
	FileReference  string         `gorm:"size:255;uniqueIndex" json:"file_reference"` // "{filename}||{ISO timestamp}"
	AuthorID       string         `gorm:"size:100" json:"author_id"`
	RowsImported   int            `json:"rows_imported"`
	RowsDuplicated int            `json:"rows_duplicated"`
	Divergences    datatypes.JSON `json:"divergences,omitempty"`
	DuplicatesFile *string        `gorm:"size:255" json:"duplicates_file,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
