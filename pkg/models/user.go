package models

// Role of a staff member. A missing role record means "no panel access".
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "vendedor"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleSeller }

// User is the role record stored under users/<uid>, not the identity itself.
type User struct {
	UID   string `json:"uid" firestore:"uid"`
	Email string `json:"email" firestore:"email"`
	Role  Role   `json:"role" firestore:"role"`
}
