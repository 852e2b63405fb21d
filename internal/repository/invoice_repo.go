package repository

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/model"

	"gorm.io/gorm"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	Kind       string
	Search     string
	ShipperID  uint
	CustomerID uint
	From       *time.Time
	To         *time.Time
	Offset     int
	Limit      int // 0 means no limit
}

// header columns written by UpdateHeader. kind, invoice_no, created_by and
// created_at are deliberately absent: they never change after creation.
var invoiceUpdatableColumns = []string{
	"shipper_id", "customer_id", "issue_date", "footnotes",
	"buyer_account", "shipment_terms", "courier_name", "tracking_number",
	"terms_type", "delivery_date", "payment_mode", "terms_of_shipment", "fob_or_cif", "currency",
	"discount", "subtotal", "commercial_cost_total", "grand_total", "updated_at",
}

type InvoiceRepository interface {
	CreateHeader(ctx context.Context, invoice *model.Invoice) error
	UpdateHeader(ctx context.Context, invoice *model.Invoice) error
	// ReplaceItems deletes every item of invoiceID and inserts items. Call it
	// inside a transaction so a failure cannot leave a half-replaced set.
	ReplaceItems(ctx context.Context, invoiceID uint, items []model.InvoiceItem) error
	CreateItems(ctx context.Context, items []model.InvoiceItem) error
	DeleteItems(ctx context.Context, invoiceID uint) error
	CountItems(ctx context.Context, invoiceID uint) (int64, error)
	FindByID(ctx context.Context, id uint) (*model.Invoice, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error)

	// MaxID returns the highest invoice id, 0 when the table is empty
	MaxID(ctx context.Context) (uint, error)
	// HighestNumber returns the numerically largest invoice_no of kind, "" when none
	HighestNumber(ctx context.Context, kind string) (string, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CreateHeader(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("Items", "Shipper", "Customer").Create(invoice).Error
}

func (r *invoiceRepository) UpdateHeader(ctx context.Context, invoice *model.Invoice) error {
	res := GetDB(ctx, r.db).Model(invoice).Select(invoiceUpdatableColumns).Updates(invoice)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepository) ReplaceItems(ctx context.Context, invoiceID uint, items []model.InvoiceItem) error {
	if err := r.DeleteItems(ctx, invoiceID); err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = invoiceID
	}
	return r.CreateItems(ctx, items)
}

func (r *invoiceRepository) CreateItems(ctx context.Context, items []model.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&items).Error
}

func (r *invoiceRepository) DeleteItems(ctx context.Context, invoiceID uint) error {
	return GetDB(ctx, r.db).Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error
}

func (r *invoiceRepository) CountItems(ctx context.Context, invoiceID uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InvoiceItem{}).Where("invoice_id = ?", invoiceID).Count(&count).Error
	return count, err
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		Preload("Shipper").
		Preload("Customer").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uint) error {
	if err := r.DeleteItems(ctx, id); err != nil {
		return err
	}
	res := GetDB(ctx, r.db).Delete(&model.Invoice{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, f InvoiceFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Invoice{})
	if f.Kind != "" {
		query = query.Where("kind = ?", f.Kind)
	}
	if f.ShipperID != 0 {
		query = query.Where("shipper_id = ?", f.ShipperID)
	}
	if f.CustomerID != 0 {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.From != nil {
		query = query.Where("issue_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("issue_date <= ?", *f.To)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(invoice_no) LIKE ? OR LOWER(footnotes) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Shipper").Preload("Customer").Order("issue_date desc, id desc").Offset(f.Offset)
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if err := query.Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) MaxID(ctx context.Context) (uint, error) {
	var maxID int64
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return uint(maxID), nil
}

// HighestNumber orders by length first so "1000" sorts above "999" without a
// dialect-specific integer cast.
func (r *invoiceRepository) HighestNumber(ctx context.Context, kind string) (string, error) {
	var numbers []string
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("kind = ?", kind).
		Order("LENGTH(invoice_no) desc, invoice_no desc").
		Limit(1).
		Pluck("invoice_no", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}
