package payroll

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/settings"
)

type PayslipDocument struct {
	CompanyName string
	Employee    Employee
	Period      string
	Report      Report
}

// RenderPayslipPDF lays out a one-page A4 payslip with amounts formatted by f.
func RenderPayslipPDF(doc PayslipDocument, f settings.Formatter) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Payslip "+doc.Period), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.CompanyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Payslip for "+doc.Period), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 7, tr("Employee: "+doc.Employee.Name), "", 1, "L", false, 0, "")
	if doc.Employee.Email != "" {
		pdf.CellFormat(0, 7, tr("Email: "+doc.Employee.Email), "", 1, "L", false, 0, "")
	}
	a := doc.Report.Attendance
	pdf.CellFormat(0, 7, fmt.Sprintf("Working days: %d  Present: %d  Absent: %d  Half days: %d  Unpaid leave: %d",
		a.WorkingDays, a.Present, a.Absent, a.HalfDay, a.UnpaidLeave), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	row := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(120, 8, tr(label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, tr(f.Money(amount)), "1", 1, "R", false, 0, "")
	}

	row("Basic salary", doc.Report.Basic, false)
	for _, line := range doc.Report.Lines {
		if line.Type == ComponentEarning {
			row(line.Name, line.Amount, false)
		}
	}
	row("Overtime", doc.Report.Overtime, false)
	for _, line := range doc.Report.Lines {
		if line.Type == ComponentDeduction {
			row(line.Name, line.Amount.Neg(), false)
		}
	}
	row(fmt.Sprintf("Unpaid days (%s)", doc.Report.UnpaidDays.String()), doc.Report.UnpaidDeduction.Neg(), false)
	row("Net pay", doc.Report.Net, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
