// Package export renders administrator-facing documents: the fixed-layout
// bonafide certificate PDF and CSV dumps of the application register.
package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

// CertificateExporter renders a bonafide certificate onto the institutional
// template. Text coordinates are fixed so the fields land over the template's
// blanks; when the template image is missing the certificate is rendered on a
// plain page with the same layout.
type CertificateExporter struct {
	templatePath string
}

// NewCertificateExporter constructs the exporter with the template image path.
func NewCertificateExporter(templatePath string) *CertificateExporter {
	return &CertificateExporter{templatePath: templatePath}
}

// Render produces the certificate PDF for the assembled data.
func (e *CertificateExporter) Render(data models.CertificateData, place string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	if e.templatePath != "" {
		if _, err := os.Stat(e.templatePath); err == nil {
			pdf.ImageOptions(e.templatePath, 0, 0, pageW, pageH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}

	pdf.SetTextColor(0, 0, 0)

	// Student name, centered.
	pdf.SetFont("Times", "B", 22)
	pdf.SetXY(0, 95)
	pdf.CellFormat(pageW, 10, data.Name, "", 0, "C", false, 0, "")

	pdf.SetFont("Times", "", 14)
	pdf.Text(58, 122, data.Year)
	pdf.Text(110, 122, data.Branch)
	pdf.Text(65, 135, data.PRN)
	pdf.Text(90, 148, data.Batch)
	pdf.Text(60, 161, data.Purpose)

	pdf.SetFont("Times", "", 12)
	pdf.Text(40, 174, data.IssueDate.Format("02 / 01 / 2006"))
	pdf.Text(38, 187, place)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
