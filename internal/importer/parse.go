package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/models"
)

// Spreadsheet layout. Columns are read by position, headers in the first
// row are ignored.
//
//	A  record ID          G  origin allocated position
//	B  origin vessel      H  item description
//	C  dest vessel        I  oracle PR number
//	D  origin department  J  PR TM master number
//	E  dest department    K  quantity to transfer
//	F  SPN                L  total amount USD
const (
	colID = iota
	colFromVessel
	colToVessel
	colFromDepartment
	colToDepartment
	colSPN
	colOriginPosition
	colItemDescription
	colOraclePR
	colPRTMMaster
	colQuantity
	colTotalAmount

	columnCount
)

const maxImportedIDLength = 50

// Divergence flags one suspect cell. Divergent rows are still imported;
// the list goes back to the operator for review.
type Divergence struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Error  string `json:"error"`
	Type   string `json:"type"`
}

var columnNames = [columnCount]string{
	"id", "from_vessel", "to_vessel", "from_department", "to_department",
	"spn", "origin_allocated_position", "item_description",
	"oracle_pr_number", "pr_number_tm_master", "quantity_to_transfer",
	"total_amount_usd",
}

var requiredColumns = []int{colFromVessel, colToVessel, colSPN, colItemDescription, colPRTMMaster}

// ParseResult is the outcome of reading one workbook.
type ParseResult struct {
	Rows        []models.Desembarque
	Divergences []Divergence
}

// Parse reads an .xlsx workbook into Desembarque rows. The first sheet is
// used, its first row is treated as headers and skipped, and cells map by
// position only.
func Parse(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	res := &ParseResult{}
	for i, raw := range rows[1:] {
		excelRow := i + 2 // 1-based, after the header
		cells := make([]string, columnCount)
		for c := 0; c < columnCount && c < len(raw); c++ {
			cells[c] = strings.TrimSpace(raw[c])
		}
		if blankRow(cells) {
			continue
		}

		rec := models.Desembarque{
			TransferItem: models.TransferItem{
				FromVessel:              cells[colFromVessel],
				ToVessel:                cells[colToVessel],
				FromDepartment:          cells[colFromDepartment],
				ToDepartment:            cells[colToDepartment],
				SPN:                     lifecycle.NormalizeSPN(cells[colSPN]),
				ItemDescription:         cells[colItemDescription],
				OriginAllocatedPosition: cells[colOriginPosition],
				PRNumberTMMaster:        cells[colPRTMMaster],
			},
		}

		rec.ID = importedID(cells[colID])
		if oracle := cells[colOraclePR]; oracle != "" {
			rec.OraclePRNumber = &oracle
		}

		for _, c := range requiredColumns {
			if cells[c] == "" {
				res.Divergences = append(res.Divergences, Divergence{
					Row:    excelRow,
					Column: columnNames[c],
					Error:  fmt.Sprintf("required column %q is empty", columnNames[c]),
					Type:   "required_field",
				})
			}
		}

		if qtyCell := cells[colQuantity]; qtyCell != "" {
			qty, err := parseQuantity(qtyCell)
			if err != nil {
				res.Divergences = append(res.Divergences, Divergence{
					Row:    excelRow,
					Column: columnNames[colQuantity],
					Value:  qtyCell,
					Error:  "not a whole number",
					Type:   "numeric_field",
				})
			} else {
				rec.QuantityToTransfer = qty
			}
		}

		if totalCell := cells[colTotalAmount]; totalCell != "" {
			total, err := decimal.NewFromString(normalizeDecimal(totalCell))
			if err != nil {
				res.Divergences = append(res.Divergences, Divergence{
					Row:    excelRow,
					Column: columnNames[colTotalAmount],
					Value:  totalCell,
					Error:  "not a monetary value",
					Type:   "numeric_field",
				})
			} else {
				truncated := lifecycle.TruncateUSD(total)
				rec.TotalAmountUSD = &truncated
			}
		}

		rec.UnitValueUSD = lifecycle.UnitValue(rec.TotalAmountUSD, rec.QuantityToTransfer)
		res.Rows = append(res.Rows, rec)
	}

	return res, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// importedID trims and caps the spreadsheet ID. Rows without one get a
// generated placeholder so they can still be tracked.
func importedID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "#AUTO-" + uuid.NewString()
	}
	if r := []rune(id); len(r) > maxImportedIDLength {
		id = string(r[:maxImportedIDLength])
	}
	return id
}

func parseQuantity(cell string) (int, error) {
	if qty, err := strconv.Atoi(cell); err == nil {
		return qty, nil
	}
	// Spreadsheets often render integers as "10.0".
	f, err := strconv.ParseFloat(normalizeDecimal(cell), 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number: %q", cell)
	}
	return int(f), nil
}

// normalizeDecimal accepts the comma decimal separator used in pt-BR sheets.
func normalizeDecimal(cell string) string {
	cell = strings.ReplaceAll(cell, " ", "")
	if strings.Contains(cell, ",") && !strings.Contains(cell, ".") {
		return strings.ReplaceAll(cell, ",", ".")
	}
	return strings.ReplaceAll(cell, ",", "")
}
