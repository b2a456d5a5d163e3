// Package report renders a user's transactions as a PDF document.
package report

import (
	_ "embed"
	"fmt"
	"io"

	"expense-ledger/internal/models"

	"github.com/go-pdf/fpdf"
)

// DefaultTitle is the heading printed above the table.
const DefaultTitle = "Expense Report"

// fontFamily is a Unicode TrueType font so category labels print as stored.
const fontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

var header = []string{"Amount", "Category"}

const (
	amountWidth   = 50.0
	categoryWidth = 90.0
	rowHeight     = 8.0
)

// Renderer builds a two-column (amount, category) report.
type Renderer struct {
	Title string
	// Compress toggles stream compression. Tests turn it off to inspect the output.
	Compress bool
}

// New returns a Renderer with the default title and compression enabled.
func New() *Renderer {
	return &Renderer{Title: DefaultTitle, Compress: true}
}

// Rows returns the table contents, header first.
func Rows(transactions []models.Transaction) [][]string {
	rows := make([][]string, 0, len(transactions)+1)
	rows = append(rows, header)
	for _, t := range transactions {
		rows = append(rows, []string{t.Amount.String(), t.Category})
	}
	return rows
}

// Render writes the PDF for transactions to w.
func (r *Renderer) Render(w io.Writer, transactions []models.Transaction) error {
	title := r.Title
	if title == "" {
		title = DefaultTitle
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(title, true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	left := (pageWidth - amountWidth - categoryWidth) / 2
	widths := []float64{amountWidth, categoryWidth}

	for i, row := range Rows(transactions) {
		if i == 0 {
			pdf.SetFont(fontFamily, "B", 11)
			pdf.SetFillColor(128, 128, 128)
			pdf.SetTextColor(255, 255, 255)
		} else if i == 1 {
			pdf.SetFont(fontFamily, "", 11)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetX(left)
		for j, cell := range row {
			pdf.CellFormat(widths[j], rowHeight, cell, "1", 0, "L", i == 0, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
