package model

import (
	"time"
)

// Bank types
const (
	BankTypeCustomer = "customer"
	BankTypeFactory  = "factory"
	BankTypeShipper  = "shipper"
)

// Customer is an invoice receiver owned by the user who created it
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Mobile    string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"mobile"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bank holds the remittance details printed on sales invoices
type Bank struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	BankType  string    `gorm:"type:varchar(20);not null;index" json:"bank_type"` // customer, factory, shipper
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SwiftCode string    `gorm:"type:varchar(50)" json:"swift_code"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shipper is the issuing party of an invoice. BankIDs keeps the order in
// which the banks are printed; ids are checked on write only.
type Shipper struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	Phone     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Website   string    `gorm:"type:varchar(255)" json:"website"`
	Mobile    string    `gorm:"type:varchar(50)" json:"mobile"`
	BankIDs   []uint    `gorm:"serializer:json;type:text" json:"bank_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
