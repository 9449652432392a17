package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/models"
)

// workbook builds an .xlsx stream with a header row followed by the given
// data rows, columns A onward.
func workbook(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{
		"Id", "FromVessel", "ToVessel", "FromDept", "ToDept", "SPN",
		"Position", "Description", "OraclePR", "PRTMMaster", "Qty", "Total",
	}
	all := append([][]interface{}{header}, rows...)
	for r, row := range all {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseMapsColumnsByPosition(t *testing.T) {
	res, err := Parse(workbook(t, [][]interface{}{
		{"REC-1", "Skandi Urca", "Skandi Vitória", "Maintenance", "Deck",
			"4711", "A-01", "Hydraulic seal kit", "ORC-1", "PR-8842", 10, "150.00"},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}

	rec := res.Rows[0]
	if rec.ID != "REC-1" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.FromVessel != "Skandi Urca" || rec.ToVessel != "Skandi Vitória" {
		t.Errorf("vessels = %q -> %q", rec.FromVessel, rec.ToVessel)
	}
	if rec.SPN != "004711" {
		t.Errorf("SPN = %q, want zero padded to six digits", rec.SPN)
	}
	if rec.OraclePRNumber == nil || *rec.OraclePRNumber != "ORC-1" {
		t.Errorf("oracle PR = %v", rec.OraclePRNumber)
	}
	if rec.QuantityToTransfer != 10 {
		t.Errorf("quantity = %d", rec.QuantityToTransfer)
	}
	if rec.UnitValueUSD == nil || rec.UnitValueUSD.String() != "15" {
		t.Errorf("unit value = %v, want 15", rec.UnitValueUSD)
	}
	if len(res.Divergences) != 0 {
		t.Errorf("divergences = %+v, want none", res.Divergences)
	}
}

func TestParseSkipsBlankRowsAndHeader(t *testing.T) {
	res, err := Parse(workbook(t, [][]interface{}{
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		{"REC-2", "A", "B", "", "", "1", "", "Thing", "", "PR-1", 1, ""},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].ID != "REC-2" {
		t.Fatalf("rows = %+v, want only REC-2", res.Rows)
	}
}

func TestParseFlagsDivergentCells(t *testing.T) {
	res, err := Parse(workbook(t, [][]interface{}{
		{"REC-3", "A", "B", "", "", "", "", "Thing", "", "PR-1", "ten", "abc"},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("divergent rows must still import, rows = %d", len(res.Rows))
	}

	types := map[string]int{}
	for _, d := range res.Divergences {
		types[d.Type]++
	}
	if types["required_field"] != 1 {
		t.Errorf("required_field divergences = %d, want 1 (blank SPN)", types["required_field"])
	}
	if types["numeric_field"] != 2 {
		t.Errorf("numeric_field divergences = %d, want 2", types["numeric_field"])
	}
}

func TestParseZeroQuantityLeavesUnitValueNil(t *testing.T) {
	res, err := Parse(workbook(t, [][]interface{}{
		{"REC-4", "A", "B", "", "", "1", "", "Thing", "", "PR-1", 0, "99.99"},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Rows[0].UnitValueUSD != nil {
		t.Errorf("unit value = %v, want nil for zero quantity", res.Rows[0].UnitValueUSD)
	}
}

func TestParseTruncatesLongIDs(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	res, err := Parse(workbook(t, [][]interface{}{
		{long, "A", "B", "", "", "1", "", "Thing", "", "PR-1", 1, ""},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := len(res.Rows[0].ID); got != maxImportedIDLength {
		t.Errorf("ID length = %d, want %d", got, maxImportedIDLength)
	}
}

func newTestImporter(t *testing.T) *Service {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: gdb}
	if err := db.AutoMigrate(&models.Desembarque{}, &models.ImportBatch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewService(db, log, t.TempDir())
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func importRows(n int, offset int) [][]interface{} {
	var rows [][]interface{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("REC-%d", offset+i)
		rows = append(rows, []interface{}{
			id, "A", "B", "", "", "1", "", "Thing", "", "PR-" + id, 1, "10.00",
		})
	}
	return rows
}

func TestImportInsertsAndRecordsBatch(t *testing.T) {
	svc := newTestImporter(t)

	sum, err := svc.Import(context.Background(), "carga.xlsx", workbook(t, importRows(3, 0)), "admin")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if sum.RowsImported != 3 || sum.RowsDuplicated != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	var count int64
	if err := svc.db.Model(&models.Desembarque{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("desembarque rows = %d, want 3", count)
	}

	var batch models.ImportBatch
	if err := svc.db.First(&batch, "id = ?", sum.BatchID).Error; err != nil {
		t.Fatalf("batch: %v", err)
	}
	if batch.FileName != "carga.xlsx" || batch.RowsImported != 3 {
		t.Errorf("batch = %+v", batch)
	}

	var rec models.Desembarque
	if err := svc.db.First(&rec, "id = ?", "REC-0").Error; err != nil {
		t.Fatalf("row: %v", err)
	}
	if rec.FileReference != sum.FileReference || rec.AuthorID != "admin" {
		t.Errorf("row provenance = %q by %q", rec.FileReference, rec.AuthorID)
	}
}

func TestImportSkipsDuplicatesAndWritesReport(t *testing.T) {
	svc := newTestImporter(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "first.xlsx", workbook(t, importRows(2, 0)), "admin"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Second file repeats REC-0 and REC-1 and adds REC-2.
	sum, err := svc.Import(ctx, "second.xlsx", workbook(t, importRows(3, 0)), "admin")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if sum.RowsImported != 1 || sum.RowsDuplicated != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.DuplicatesFile == "" {
		t.Fatal("expected a duplicates report")
	}

	path, err := svc.DuplicatesReportPath(sum.DuplicatesFile)
	if err != nil {
		t.Fatalf("report path: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	// Header plus the two skipped IDs.
	if len(rows) != 3 {
		t.Errorf("report rows = %d, want 3", len(rows))
	}
}

func TestDuplicatesReportPathRejectsEscape(t *testing.T) {
	svc := newTestImporter(t)
	if _, err := svc.DuplicatesReportPath(filepath.Join("..", "etc", "passwd")); err == nil {
		t.Fatal("path escape must be rejected")
	}
}
