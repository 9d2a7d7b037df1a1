package domain

import "time"

// Role is the closed set of staff roles.
type Role string

const (
	RoleOwner      Role = "owner"
	RolePharmacist Role = "pharmacist"
	RoleCashier    Role = "cashier"
)

// ParseRole validates a textual role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RolePharmacist, RoleCashier:
		return Role(s), nil
	}
	return "", Validationf("role must be owner, pharmacist or cashier")
}

// CanManageMedicines reports whether the role may create, edit, delete or
// refill medicines. Pharmacists are included alongside owners.
func CanManageMedicines(r Role) bool {
	return r == RoleOwner || r == RolePharmacist
}

// CanManageUsers reports whether the role may administer the user roster.
func CanManageUsers(r Role) bool {
	return r == RoleOwner
}

// CanSell reports whether the role may operate the point of sale.
func CanSell(r Role) bool {
	switch r {
	case RoleOwner, RolePharmacist, RoleCashier:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Sanitized returns a copy with the password stripped, safe to hand to the
// presentation boundary or to persist as a session.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
