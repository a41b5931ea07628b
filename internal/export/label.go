package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/metrics"
	"instrument-tracker/internal/models"
)

const labelQRSize = 60.0 // mm

// LabelPDF writes an A6 label with the instrument name, location, status and
// the QR code pointing at its page. qrPNG is the encoded QR image.
func LabelPDF(w io.Writer, item *inventory.Item, url string, qrPNG []byte) error {
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetTitle(item.Name, true)
	pdf.SetMargins(8, 8, 8)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 16

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(contentW, 7, tr(item.Name), "", "C", false)
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, tr("Location: "+item.Location), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 6, tr(item.Status.Status.Label()), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(contentW, 5, tr(item.Status.Message), "", "C", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	y := pdf.GetY() + 3
	pdf.ImageOptions("qr", (pageW-labelQRSize)/2, y, labelQRSize, labelQRSize, false, opts, 0, url)
	pdf.SetY(y + labelQRSize + 2)

	pdf.SetFont("Courier", "", 7)
	pdf.MultiCell(contentW, 3.5, url, "", "C", false)

	if last := item.LastCalibrationDate; last != nil {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Last calibrated %s, every %d days", last, item.CalibrationPeriod), "", 1, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render label: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return err
	}
	metrics.IncExport("pdf")
	return nil
}

func dateCell(d *models.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}
