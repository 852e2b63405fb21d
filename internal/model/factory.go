package model

import (
	"time"
)

// FactoryCategory groups factories, e.g. "Knitting" or "Dyeing"
type FactoryCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Factory is a production partner with its uploaded documents
type Factory struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	UserID             uint                 `gorm:"not null;index" json:"user_id"`
	User               *User                `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name               string               `gorm:"type:varchar(255);not null" json:"name"`
	Address            string               `gorm:"type:text;not null" json:"address"`
	Contact            string               `gorm:"type:varchar(100)" json:"contact"`
	CategoryID         *uint                `gorm:"index" json:"category_id"`
	Category           *FactoryCategory     `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Compliance         string               `gorm:"type:varchar(255)" json:"compliance"`
	ProductionCapacity *int                 `json:"production_capacity"`
	Profile            *FactoryProfile      `gorm:"foreignKey:FactoryID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Certificates       []FactoryCertificate `gorm:"foreignKey:FactoryID;constraint:OnDelete:CASCADE" json:"certificates"`
	Images             []FactoryImage       `gorm:"foreignKey:FactoryID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// FactoryProfile is the single company-profile PDF of a factory
type FactoryProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FactoryID uint      `gorm:"not null;uniqueIndex" json:"factory_id"`
	FilePath  string    `gorm:"type:varchar(500);not null" json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FactoryCertificate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FactoryID uint      `gorm:"not null;index" json:"factory_id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	FilePath  string    `gorm:"type:varchar(500);not null" json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FactoryImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FactoryID uint      `gorm:"not null;index" json:"factory_id"`
	AltText   string    `gorm:"type:varchar(255)" json:"alt_text"`
	FilePath  string    `gorm:"type:varchar(500);not null" json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
