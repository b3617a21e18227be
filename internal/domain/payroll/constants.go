package payroll

const (
	ComponentEarning   = "earning"
	ComponentDeduction = "deduction"

	CalcFixed      = "fixed"
	CalcPercentage = "percentage"

	StatusActive   = "active"
	StatusInactive = "inactive"

	AttendancePresent     = "present"
	AttendanceAbsent      = "absent"
	AttendanceHalfDay     = "half_day"
	AttendanceLeave       = "leave"
	AttendanceUnpaidLeave = "unpaid_leave"
	AttendanceHoliday     = "holiday"

	PeriodLayout       = "2006-01"
	DefaultWorkingDays = 30
)

var AttendanceStatuses = []string{
	AttendancePresent,
	AttendanceAbsent,
	AttendanceHalfDay,
	AttendanceLeave,
	AttendanceUnpaidLeave,
	AttendanceHoliday,
}

func ValidAttendanceStatus(value string) bool {
	for _, s := range AttendanceStatuses {
		if s == value {
			return true
		}
	}
	return false
}
