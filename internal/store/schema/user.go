package schema

import "time"

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleAdmin      UserRole = "admin"
	UserRoleEditor     UserRole = "editor"
	UserRoleViewer     UserRole = "viewer"
)

// IsAdmin reports whether the role is admin-equivalent
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

// User represents the users table. Users are managed by the auth service; this service only reads them.
type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:text"`
	Email     string    `gorm:"column:email;not null;type:text"`
	Role      UserRole  `gorm:"column:role;not null;type:text"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
