package interfaces

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"condo-billing/internal/charges/application"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("charges interfaces: unsupported export format")

// BuildExport renders detail in format and returns the content type.
func BuildExport(format string, detail *application.AnnouncementDetail) ([]byte, string, error) {
	if detail == nil || detail.Announcement == nil {
		return nil, "", errors.New("charges export: nil announcement")
	}
	switch format {
	case FormatPDF:
		content, err := BuildAnnouncementPDF(detail)
		return content, "application/pdf", err
	case FormatXLSX:
		content, err := BuildAnnouncementXLSX(detail)
		return content, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	case FormatCSV:
		content, err := BuildAnnouncementCSV(detail)
		return content, "text/csv", err
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// BuildAnnouncementPDF renders a printable charge notice.
func BuildAnnouncementPDF(detail *application.AnnouncementDetail) ([]byte, error) {
	ann := detail.Announcement
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Charge Announcement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Title: %s", ann.Title))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Building: %s", ann.BuildingID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Kind: %s  Scope: %s  Payer policy: %s", ann.Kind, ann.TargetScope, ann.PayerPolicy))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", ann.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", ann.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if ann.Recurrence != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Recurs on day %d of each month", ann.Recurrence.DayOfMonth))
		pdf.Ln(5)
	}
	if ann.VoidedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Voided: %s (%s)", ann.VoidedAt.Format(time.RFC3339), ann.VoidReason))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (%s): %.2f", ann.Currency, ann.TotalAmount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Owners: %d units, %.2f  Residents: %d units, %.2f",
		detail.Summary.OwnerUnits, detail.Summary.OwnerTotal, detail.Summary.ResidentUnits, detail.Summary.ResidentTotal))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Unit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Payer", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, record := range detail.Records {
		pdf.CellFormat(40, 6, record.UnitNumber, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, string(record.Payer), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", record.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAnnouncementXLSX renders a summary sheet and a per-unit records sheet.
func BuildAnnouncementXLSX(detail *application.AnnouncementDetail) ([]byte, error) {
	ann := detail.Announcement
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	recordsSheet := "records"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Title", ann.Title},
		{"Building", ann.BuildingID},
		{"Kind", string(ann.Kind)},
		{"Target Scope", string(ann.TargetScope)},
		{"Payer Policy", string(ann.PayerPolicy)},
		{"Status", ann.Status},
		{"Currency", ann.Currency},
		{"Total Amount", ann.TotalAmount},
		{"Owner Total", detail.Summary.OwnerTotal},
		{"Resident Total", detail.Summary.ResidentTotal},
	}
	_ = f.SetCellValue(summarySheet, "A1", "Charge Announcement")
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	_ = f.SetCellValue(recordsSheet, "A1", "Unit ID")
	_ = f.SetCellValue(recordsSheet, "B1", "Unit Number")
	_ = f.SetCellValue(recordsSheet, "C1", "Payer")
	_ = f.SetCellValue(recordsSheet, "D1", "Amount")
	for i, record := range detail.Records {
		row := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), record.UnitID)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), record.UnitNumber)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), string(record.Payer))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), record.Amount)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAnnouncementCSV renders one row per unit record.
func BuildAnnouncementCSV(detail *application.AnnouncementDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"announcement_id", "unit_id", "unit_number", "payer", "amount", "currency"}); err != nil {
		return nil, err
	}
	for _, record := range detail.Records {
		row := []string{
			detail.Announcement.ID,
			record.UnitID,
			record.UnitNumber,
			string(record.Payer),
			strconv.FormatFloat(record.Amount, 'f', 2, 64),
			detail.Announcement.Currency,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
