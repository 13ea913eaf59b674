package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/juror/core"
)

// Role is what a user can do: students own projects and grade, supervisors overview.
type Role string

// Roles
const (
	RoleStudent    Role = "student"
	RoleSupervisor Role = "supervisor"
)

var AllRoles = []Role{RoleStudent, RoleSupervisor}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (u User) IsStudent() bool    { return u.Role == RoleStudent }
func (u User) IsSupervisor() bool { return u.Role == RoleSupervisor }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     Role   `json:"role" validate:"required,oneof=student supervisor"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	return validate.Struct(nu)
}
