package model

import (
	"time"
)

const (
	ActionCreateInvoice  = "CREATE_INVOICE"
	ActionUpdateInvoice  = "UPDATE_INVOICE"
	ActionDeleteInvoice  = "DELETE_INVOICE"
	ActionSetPermissions = "SET_PERMISSIONS"
	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
)

// AuditLog tracks who changed what and when. It is written in the same
// transaction as the change it describes.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"` // nil for system actions
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"` // JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
