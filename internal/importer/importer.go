package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/models"
)

// Service ingests transfer spreadsheets into the Desembarque stage.
type Service struct {
	db         *database.DB
	log        *logrus.Logger
	uploadsDir string
	now        func() time.Time
}

// NewService creates an import service. Duplicate reports are written under
// uploadsDir.
func NewService(db *database.DB, log *logrus.Logger, uploadsDir string) *Service {
	return &Service{
		db:         db,
		log:        log,
		uploadsDir: uploadsDir,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Summary reports the outcome of one spreadsheet import.
type Summary struct {
	BatchID        string       `json:"batch_id"`
	FileReference  string       `json:"file_reference"`
	RowsImported   int          `json:"rows_imported"`
	RowsDuplicated int          `json:"rows_duplicated"`
	Divergences    []Divergence `json:"divergences,omitempty"`
	DuplicatesFile string       `json:"duplicates_file,omitempty"`
}

// Import parses the workbook and inserts every row whose ID is not already
// in the Desembarque table. Duplicates are skipped, collected, and written
// to a downloadable report; the whole batch commits in one transaction.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader, authorID string) (*Summary, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, &lifecycle.ValidationError{Field: "file", Reason: err.Error()}
	}

	now := s.now()
	fileRef := fmt.Sprintf("%s||%s", fileName, now.Format(time.RFC3339))

	summary := &Summary{
		BatchID:       uuid.NewString(),
		FileReference: fileRef,
		Divergences:   parsed.Divergences,
	}

	var duplicateIDs []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range parsed.Rows {
			rec := parsed.Rows[i]
			rec.AuthorID = authorID
			rec.FileReference = fileRef
			rec.Created = now

			var count int64
			if err := tx.Model(&models.Desembarque{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
				return &lifecycle.PersistenceError{Op: "check import duplicate", Err: err}
			}
			if count > 0 {
				summary.RowsDuplicated++
				duplicateIDs = append(duplicateIDs, rec.ID)
				continue
			}

			if err := tx.Create(&rec).Error; err != nil {
				return &lifecycle.PersistenceError{Op: "insert imported row", Err: err}
			}
			summary.RowsImported++
		}

		batch := models.ImportBatch{
			ID:             summary.BatchID,
			FileName:       fileName,
			FileReference:  fileRef,
			AuthorID:       authorID,
			RowsImported:   summary.RowsImported,
			RowsDuplicated: summary.RowsDuplicated,
			CreatedAt:      now,
		}
		if len(parsed.Divergences) > 0 {
			raw, err := json.Marshal(parsed.Divergences)
			if err != nil {
				return fmt.Errorf("encode divergences: %w", err)
			}
			batch.Divergences = raw
		}
		if len(duplicateIDs) > 0 {
			name, err := s.writeDuplicatesReport(duplicateIDs)
			if err != nil {
				return err
			}
			summary.DuplicatesFile = name
			batch.DuplicatesFile = &name
		}

		if err := tx.Create(&batch).Error; err != nil {
			return &lifecycle.PersistenceError{Op: "record import batch", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"file":       fileName,
		"imported":   summary.RowsImported,
		"duplicated": summary.RowsDuplicated,
	}).Info("spreadsheet imported")
	return summary, nil
}

// writeDuplicatesReport saves a one-column workbook listing the skipped IDs
// and returns its base name.
func (s *Service) writeDuplicatesReport(ids []string) (string, error) {
	sort.Strings(ids)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "id")
	for i, id := range ids {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), id)
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	name := fmt.Sprintf("duplicados_%s.xlsx", uuid.NewString())
	if err := f.SaveAs(filepath.Join(s.uploadsDir, name)); err != nil {
		return "", fmt.Errorf("save duplicates report: %w", err)
	}
	return name, nil
}

// DuplicatesReportPath resolves a previously generated report name inside
// the uploads directory, refusing path escapes.
func (s *Service) DuplicatesReportPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", &lifecycle.ValidationError{Field: "filename", Reason: "invalid report name"}
	}
	path := filepath.Join(s.uploadsDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", &lifecycle.NotFoundError{Stage: "duplicates report", ID: name}
	}
	return path, nil
}
