package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/snmlog/transferplus/internal/models"
)

// Manifest is the input for a shipment manifest document.
type Manifest struct {
	Vessel      string
	GeneratedBy string
	GeneratedAt time.Time
	Records     []models.Embarque
}

// GenerateManifestPDF renders a shipment manifest: one block per record with
// its key fields and a QR code carrying the record ID for scanning at the
// quayside.
func GenerateManifestPDF(m Manifest) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	translator := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, translator("Manifesto de Embarque"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	subtitle := fmt.Sprintf("Gerado em %s", m.GeneratedAt.Format("02/01/2006 15:04"))
	if m.Vessel != "" {
		subtitle = fmt.Sprintf("Embarcação: %s    %s", m.Vessel, subtitle)
	}
	if m.GeneratedBy != "" {
		subtitle += fmt.Sprintf("    por %s", m.GeneratedBy)
	}
	pdf.CellFormat(0, 6, translator(subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	const blockH = 32.0
	const qrSize = 24.0

	for i, rec := range m.Records {
		if pdf.GetY()+blockH > 277 {
			pdf.AddPage()
		}
		x, y := pdf.GetX(), pdf.GetY()

		pdf.Rect(x, y, 180, blockH, "D")

		qrPng, err := qrcode.Encode(rec.ID, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr for %s: %w", rec.ID, err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(imgName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPng))
		pdf.ImageOptions(imgName, x+4, y+4, qrSize, qrSize, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		textX := x + qrSize + 10
		pdf.SetXY(textX, y+4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 5, translator(rec.ID), "", 1, "L", false, 0, "")

		pdf.SetX(textX)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, translator(fmt.Sprintf("%s  ->  %s", rec.FromVessel, rec.ToVessel)), "", 1, "L", false, 0, "")

		pdf.SetX(textX)
		qty := "-"
		if rec.QuantityConfirmed != nil {
			qty = fmt.Sprintf("%d", *rec.QuantityConfirmed)
		} else if rec.ConferenciaQuantity != nil {
			qty = fmt.Sprintf("%d", *rec.ConferenciaQuantity)
		}
		pdf.CellFormat(0, 5, translator(fmt.Sprintf("SPN %s    Qtd %s    PR %s", rec.SPN, qty, rec.PRNumberTMMaster)), "", 1, "L", false, 0, "")

		pdf.SetX(textX)
		line := fmt.Sprintf("Status: %s", rec.StatusFinal)
		if rec.LOM != nil {
			line += fmt.Sprintf("    LOM: %s", *rec.LOM)
		}
		pdf.CellFormat(0, 5, translator(line), "", 1, "L", false, 0, "")

		pdf.SetXY(x, y+blockH+3)
	}

	if len(m.Records) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, translator("Nenhum registro para embarque."), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
