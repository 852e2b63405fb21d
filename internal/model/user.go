package model

import (
	"time"
)

// User levels. Super Admin bypasses every permission check.
const (
	LevelUser       = "User"
	LevelAdmin      = "Admin"
	LevelSuperAdmin = "Super Admin"
)

// User is an operator of the back office. Permissions holds the sparse
// capability map keyed "{group}.{module}.{action}".
type User struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Email       string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string          `gorm:"type:varchar(255);not null" json:"-"`
	Level       string          `gorm:"type:varchar(50);not null;default:User" json:"level"`
	Permissions map[string]bool `gorm:"serializer:json;type:text" json:"permissions"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSuperAdmin reports whether u bypasses permission checks
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Level == LevelSuperAdmin
}
