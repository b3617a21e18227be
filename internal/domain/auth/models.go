package auth

import "time"

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Type           string     `json:"type"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	Status         string     `json:"status"`
	PlanID         string     `json:"planId,omitempty"`
	PlanExpireDate *time.Time `json:"planExpireDate,omitempty"`
	MFAEnabled     bool       `json:"mfaEnabled"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`

	PasswordHash string `json:"-"`
	MFASecretEnc []byte `json:"-"`
}

// UserContext is the authenticated caller carried through request contexts.
type UserContext struct {
	UserID  string
	Type    string
	OwnerID string
	Email   string
}

func (u UserContext) IsSuperAdmin() bool { return u.Type == UserTypeSuperAdmin }

// Restricted reports whether the caller only sees records about themselves.
func (u UserContext) Restricted() bool { return u.Type == UserTypeEmployee }

func (u UserContext) Capabilities() CapabilitySet {
	return CapabilitiesFor(u.Type)
}
