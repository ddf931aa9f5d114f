package ticketing

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Ticket holds what is printed on a PDF ticket.
type Ticket struct {
	Code       string
	BookingID  uint
	HolderName string
	EventTitle string
	Location   string
	StartTime  time.Time
	EndTime    time.Time
}

const timeLayout = "Mon 02 Jan 2006, 15:04"

// WritePDF renders an A4 ticket with the ticket code as a QR image.
func WritePDF(w io.Writer, t Ticket) error {
	qrPNG, err := qrcode.Encode(t.Code, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket "+t.Code, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Campus Events Ticket")
	pdf.Ln(16)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(120, 8, tr(t.EventTitle), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Location: " + t.Location,
		"Starts: " + t.StartTime.Format(timeLayout),
		"Ends: " + t.EndTime.Format(timeLayout),
		"Holder: " + t.HolderName,
		fmt.Sprintf("Booking #%d", t.BookingID),
	}
	for _, line := range lines {
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Courier", "B", 12)
	pdf.Cell(0, 8, t.Code)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 140, 30, 50, 50, false, opts, 0, "")

	return pdf.Output(w)
}
