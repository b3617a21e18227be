package auth

const (
	UserTypeSuperAdmin = "superadmin"
	UserTypeCompany    = "company"
	UserTypeHR         = "hr"
	UserTypeEmployee   = "employee"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

var UserTypes = []string{UserTypeSuperAdmin, UserTypeCompany, UserTypeHR, UserTypeEmployee}

func ValidUserType(value string) bool {
	for _, t := range UserTypes {
		if t == value {
			return true
		}
	}
	return false
}
