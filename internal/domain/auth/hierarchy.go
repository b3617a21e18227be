package auth

// OwnerID returns the id of the tenant that owns records created by the user:
// the company for company/hr/employee users and the superadmin itself. The
// decision is made from the user type alone so every caller agrees on it.
func OwnerID(u User) string {
	switch u.Type {
	case UserTypeHR, UserTypeEmployee:
		if u.CreatedBy != "" {
			return u.CreatedBy
		}
		return u.ID
	default:
		return u.ID
	}
}

func NewUserContext(u User) UserContext {
	return UserContext{UserID: u.ID, Type: u.Type, OwnerID: OwnerID(u), Email: u.Email}
}
