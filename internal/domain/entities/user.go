package entities

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleAuditor
}

// User is an account able to sign in.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (email-index): email
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the caller as seen by ownership and visibility rules.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the caller may read or change an audit.
func (i Identity) CanAccess(a Audit) bool {
	return i.IsAdmin() || (i.ID != "" && a.AuditorID == i.ID)
}

// UserPatch carries a partial user update. Nil fields are left untouched.
type UserPatch struct {
	Email        *string
	Name         *string
	PasswordHash *string
	Role         *Role
	IsActive     *bool
}

func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.PasswordHash == nil && p.Role == nil && p.IsActive == nil
}
