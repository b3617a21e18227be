package payroll

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// ComponentAmount resolves a component to money: fixed values are taken as
// is, percentages apply to basic.
func ComponentAmount(basic decimal.Decimal, c AttachedComponent) decimal.Decimal {
	value := c.EffectiveValue()
	if c.CalculationType == CalcPercentage {
		return basic.Mul(value).Div(hundred)
	}
	return value
}

// Calculate computes net pay:
//
//	perDay     = (basic + earnings) / workingDays
//	unpaidDays = absent + 0.5*halfDay + unpaidLeave
//	net        = basic + earnings - perDay*unpaidDays + overtime - deductions
func Calculate(basic decimal.Decimal, components []AttachedComponent, summary AttendanceSummary) (Report, error) {
	if summary.WorkingDays <= 0 {
		return Report{}, ErrInvalidWorkingDays
	}

	earnings := decimal.Zero
	deductions := decimal.Zero
	lines := make([]ReportLine, 0, len(components))
	for _, c := range components {
		amount := ComponentAmount(basic, c)
		switch c.Type {
		case ComponentEarning:
			earnings = earnings.Add(amount)
		case ComponentDeduction:
			deductions = deductions.Add(amount)
		default:
			continue
		}
		lines = append(lines, ReportLine{Name: c.Name, Type: c.Type, Amount: amount.Round(2)})
	}

	gross := basic.Add(earnings)
	perDay := gross.Div(decimal.NewFromInt(int64(summary.WorkingDays)))
	unpaidDays := decimal.NewFromInt(int64(summary.Absent)).
		Add(half.Mul(decimal.NewFromInt(int64(summary.HalfDay)))).
		Add(decimal.NewFromInt(int64(summary.UnpaidLeave)))
	unpaid := perDay.Mul(unpaidDays)
	net := gross.Sub(unpaid).Add(summary.OvertimeAmount).Sub(deductions)

	return Report{
		Basic:           basic.Round(2),
		Earnings:        earnings.Round(2),
		Deductions:      deductions.Round(2),
		PerDay:          perDay.Round(2),
		UnpaidDays:      unpaidDays,
		UnpaidDeduction: unpaid.Round(2),
		Overtime:        summary.OvertimeAmount.Round(2),
		Net:             net.Round(2),
		Lines:           lines,
		Attendance:      summary,
	}, nil
}

// Summarize folds per-day records into a summary for the given working days.
func Summarize(records []AttendanceRecord, workingDays int, overtimeRate decimal.Decimal) AttendanceSummary {
	summary := AttendanceSummary{WorkingDays: workingDays, OvertimeHours: decimal.Zero}
	for _, r := range records {
		switch r.Status {
		case AttendancePresent:
			summary.Present++
		case AttendanceAbsent:
			summary.Absent++
		case AttendanceHalfDay:
			summary.HalfDay++
		case AttendanceLeave:
			summary.Leave++
		case AttendanceUnpaidLeave:
			summary.UnpaidLeave++
		}
		summary.OvertimeHours = summary.OvertimeHours.Add(r.OvertimeHours)
	}
	summary.OvertimeAmount = summary.OvertimeHours.Mul(overtimeRate)
	return summary
}
