package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User role constants
const (
	UserRoleAdmin        = "admin"
	UserRoleDoctor       = "doctor"
	UserRoleNurse        = "nurse"
	UserRoleReceptionist = "receptionist"
	UserRoleStaff        = "staff"
)

// User is the authenticated principal as carried in the access token.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	ClinicIDs   []string `json:"clinic_ids"`
}

// CanAccessClinic reports whether the user belongs to the clinic.
func (u *User) CanAccessClinic(clinicID string) bool {
	if u == nil || clinicID == "" {
		return false
	}
	if u.Role == UserRoleAdmin {
		return true
	}
	for _, id := range u.ClinicIDs {
		if id == clinicID {
			return true
		}
	}
	return false
}

// Session replaces the ambient clinic/auth/currency state: it is built once
// per authenticated token and passed explicitly to services.
type Session struct {
	TokenID string `json:"-"`
	// AccessToken is forwarded to the clinic API in upstream mode.
	AccessToken string    `json:"-"`
	User        User      `json:"user"`
	ClinicID    string    `json:"clinic_id"`
	Currency    string    `json:"currency"`
	Timezone    string    `json:"timezone"`
	StartedAt   time.Time `json:"started_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WithClinic returns a copy of the session bound to a clinic.
func (s Session) WithClinic(clinicID string) *Session {
	s.ClinicID = clinicID
	return &s
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	ClinicIDs   []string `json:"clinic_ids"`
	Currency    string   `json:"currency,omitempty"`
}
