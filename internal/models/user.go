package models

import "time"

// Role is the application role used by the authorization policy.
type Role string

const (
	RoleAdministrator      Role = "administrator"
	RoleGeneralStatistic   Role = "general_statistic"
	RoleHR                 Role = "hr"
	RoleCivilStatus        Role = "civil_status"
	RoleMinistryOfJustice  Role = "ministry_of_justice"
	RoleMinistryOfInterior Role = "ministry_of_interior"
	RoleUnknown            Role = "unknown"
)

// Roles lists every role, unknown included.
var Roles = []Role{
	RoleAdministrator,
	RoleGeneralStatistic,
	RoleHR,
	RoleCivilStatus,
	RoleMinistryOfJustice,
	RoleMinistryOfInterior,
	RoleUnknown,
}

// ParseRole maps a raw claim or column value to a Role. Anything not in the
// enumerated set becomes RoleUnknown.
func ParseRole(s string) Role {
	for _, r := range Roles {
		if string(r) == s {
			return r
		}
	}
	return RoleUnknown
}

// User is a local identity. PasswordHash is set for local-mode users,
// ExternalSubject for users upserted from an external identity provider.
type User struct {
	ID              uint      `json:"id" gorm:"primaryKey;column:id"`
	Email           string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	PasswordHash    *string   `json:"-" gorm:"column:password_hash"`
	ExternalSubject *string   `json:"-" gorm:"column:external_subject;uniqueIndex"`
	Role            Role      `json:"role" gorm:"column:role;not null;default:unknown"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
