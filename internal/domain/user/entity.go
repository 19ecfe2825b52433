package user

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"   // Full access, edits attendance records
	RoleManager Role = "manager" // Views everyone's attendance and reports
	RoleUser    Role = "user"    // Regular employee
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

type User struct {
	ID        string
	FullName  string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
