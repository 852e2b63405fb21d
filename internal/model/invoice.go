package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice kinds
const (
	InvoiceKindSample = "sample"
	InvoiceKindSales  = "sales"
)

// Sales terms types
const (
	TermsTypeLC = "LC"
	TermsTypeTT = "TT"
)

// Sample shipment terms
const (
	ShipmentTermsCollect = "Collect"
	ShipmentTermsPrepaid = "Prepaid"
)

// Invoice is the header of the invoice aggregate. InvoiceNo is unique per
// kind and never changes after creation. Totals are always derived from Items.
type Invoice struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_invoices_kind_no,priority:1" json:"kind"`
	InvoiceNo  string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoices_kind_no,priority:2" json:"invoice_no"`
	ShipperID  uint      `gorm:"not null;index" json:"shipper_id"`
	Shipper    *Shipper  `gorm:"foreignKey:ShipperID;constraint:OnDelete:RESTRICT" json:"shipper,omitempty"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	IssueDate  time.Time `gorm:"type:date;not null;index" json:"issue_date"`
	Footnotes  string    `gorm:"type:text" json:"footnotes"`
	CreatedBy  *uint     `gorm:"index" json:"created_by"`

	// sample only
	BuyerAccount   string `gorm:"type:varchar(255)" json:"buyer_account,omitempty"`
	ShipmentTerms  string `gorm:"type:varchar(20)" json:"shipment_terms,omitempty"`
	CourierName    string `gorm:"type:varchar(255)" json:"courier_name,omitempty"`
	TrackingNumber string `gorm:"type:varchar(255)" json:"tracking_number,omitempty"`

	// sales only
	TermsType       string     `gorm:"type:varchar(5)" json:"terms_type,omitempty"`
	DeliveryDate    *time.Time `gorm:"type:date" json:"delivery_date,omitempty"`
	PaymentMode     string     `gorm:"type:varchar(255)" json:"payment_mode,omitempty"`
	TermsOfShipment string     `gorm:"type:varchar(255)" json:"terms_of_shipment,omitempty"`
	FobOrCif        string     `gorm:"type:varchar(255)" json:"fob_or_cif,omitempty"`
	Currency        string     `gorm:"type:varchar(3)" json:"currency,omitempty"`

	Discount            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	CommercialCostTotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commercial_cost_total"`
	GrandTotal          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"grand_total"`

	Items     []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// InvoiceItem is one line of an invoice, kept in Position order
type InvoiceItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvoiceID      uint            `gorm:"not null;index" json:"invoice_id"`
	Position       int             `gorm:"not null" json:"position"`
	ArtNum         string          `gorm:"type:varchar(100)" json:"art_num"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Size           string          `gorm:"type:varchar(100)" json:"size"`
	HSCode         string          `gorm:"type:varchar(50)" json:"hs_code"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	CommercialCost decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commercial_cost"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sub_total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
