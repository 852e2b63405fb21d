package repository

import (
	"context"
	"strings"

	"backoffice/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows list queries of owned entities
type ListFilter struct {
	OwnerID *uint // nil lists every owner
	Search  string
	Offset  int
	Limit   int // 0 means no limit
}

// ownedStore holds the CRUD plumbing shared by user-owned entities
type ownedStore[T any] struct {
	db            *gorm.DB
	searchColumns []string
}

func (s ownedStore[T]) create(ctx context.Context, v *T) error {
	return GetDB(ctx, s.db).Omit(clause.Associations).Create(v).Error
}

func (s ownedStore[T]) findByID(ctx context.Context, id uint, preloads ...string) (*T, error) {
	var v T
	query := GetDB(ctx, s.db)
	for _, p := range preloads {
		query = query.Preload(p)
	}
	if err := query.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (s ownedStore[T]) save(ctx context.Context, v *T) error {
	return GetDB(ctx, s.db).Omit(clause.Associations).Save(v).Error
}

func (s ownedStore[T]) delete(ctx context.Context, id uint) error {
	var v T
	return GetDB(ctx, s.db).Delete(&v, id).Error
}

// list counts and pages rows matching f. Preloads are applied to the page
// query only, never to the count.
func (s ownedStore[T]) list(ctx context.Context, f ListFilter, preloads []string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var items []T
	var total int64
	var zero T

	query := GetDB(ctx, s.db).Model(&zero).Scopes(scopes...)
	if f.OwnerID != nil {
		query = query.Where("user_id = ?", *f.OwnerID)
	}
	if f.Search != "" && len(s.searchColumns) > 0 {
		like := "%" + strings.ToLower(f.Search) + "%"
		conds := make([]string, 0, len(s.searchColumns))
		args := make([]interface{}, 0, len(s.searchColumns))
		for _, col := range s.searchColumns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		query = query.Where(strings.Join(conds, " OR "), args...)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range preloads {
		query = query.Preload(p)
	}
	query = query.Order("id desc").Offset(f.Offset)
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// exists reports whether another row already uses value in column
func (s ownedStore[T]) exists(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	var count int64
	var zero T
	query := GetDB(ctx, s.db).Model(&zero).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- Customers ---

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter) ([]model.Customer, int64, error)
	MobileTaken(ctx context.Context, mobile string, excludeID uint) (bool, error)
}

type customerRepository struct {
	store ownedStore[model.Customer]
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{store: ownedStore[model.Customer]{db: db, searchColumns: []string{"name", "mobile", "address"}}}
}

func (r *customerRepository) Create(ctx context.Context, c *model.Customer) error {
	return r.store.create(ctx, c)
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	return r.store.findByID(ctx, id)
}

func (r *customerRepository) Update(ctx context.Context, c *model.Customer) error {
	return r.store.save(ctx, c)
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	return r.store.delete(ctx, id)
}

func (r *customerRepository) List(ctx context.Context, f ListFilter) ([]model.Customer, int64, error) {
	return r.store.list(ctx, f, nil)
}

func (r *customerRepository) MobileTaken(ctx context.Context, mobile string, excludeID uint) (bool, error) {
	return r.store.exists(ctx, "mobile", mobile, excludeID)
}

// --- Banks ---

type BankRepository interface {
	Create(ctx context.Context, bank *model.Bank) error
	FindByID(ctx context.Context, id uint) (*model.Bank, error)
	// FindByIDs returns the banks in the order of ids, skipping missing ones
	FindByIDs(ctx context.Context, ids []uint) ([]model.Bank, error)
	Update(ctx context.Context, bank *model.Bank) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter, bankType string) ([]model.Bank, int64, error)
}

type bankRepository struct {
	store ownedStore[model.Bank]
}

func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{store: ownedStore[model.Bank]{db: db, searchColumns: []string{"name", "swift_code", "email"}}}
}

func (r *bankRepository) Create(ctx context.Context, b *model.Bank) error {
	return r.store.create(ctx, b)
}

func (r *bankRepository) FindByID(ctx context.Context, id uint) (*model.Bank, error) {
	return r.store.findByID(ctx, id)
}

func (r *bankRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Bank, error) {
	if len(ids) == 0 {
		return []model.Bank{}, nil
	}
	var banks []model.Bank
	if err := GetDB(ctx, r.store.db).Where("id IN ?", ids).Find(&banks).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]model.Bank, len(banks))
	for _, b := range banks {
		byID[b.ID] = b
	}
	ordered := make([]model.Bank, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

func (r *bankRepository) Update(ctx context.Context, b *model.Bank) error {
	return r.store.save(ctx, b)
}

func (r *bankRepository) Delete(ctx context.Context, id uint) error {
	return r.store.delete(ctx, id)
}

func (r *bankRepository) List(ctx context.Context, f ListFilter, bankType string) ([]model.Bank, int64, error) {
	if bankType == "" {
		return r.store.list(ctx, f, nil)
	}
	return r.store.list(ctx, f, nil, func(db *gorm.DB) *gorm.DB {
		return db.Where("bank_type = ?", bankType)
	})
}

// --- Shippers ---

type ShipperRepository interface {
	Create(ctx context.Context, shipper *model.Shipper) error
	FindByID(ctx context.Context, id uint) (*model.Shipper, error)
	Update(ctx context.Context, shipper *model.Shipper) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter) ([]model.Shipper, int64, error)
	PhoneTaken(ctx context.Context, phone string, excludeID uint) (bool, error)
}

type shipperRepository struct {
	store ownedStore[model.Shipper]
}

func NewShipperRepository(db *gorm.DB) ShipperRepository {
	return &shipperRepository{store: ownedStore[model.Shipper]{db: db, searchColumns: []string{"name", "phone", "email", "address"}}}
}

func (r *shipperRepository) Create(ctx context.Context, s *model.Shipper) error {
	return r.store.create(ctx, s)
}

func (r *shipperRepository) FindByID(ctx context.Context, id uint) (*model.Shipper, error) {
	return r.store.findByID(ctx, id)
}

func (r *shipperRepository) Update(ctx context.Context, s *model.Shipper) error {
	return r.store.save(ctx, s)
}

func (r *shipperRepository) Delete(ctx context.Context, id uint) error {
	return r.store.delete(ctx, id)
}

func (r *shipperRepository) List(ctx context.Context, f ListFilter) ([]model.Shipper, int64, error) {
	return r.store.list(ctx, f, nil)
}

func (r *shipperRepository) PhoneTaken(ctx context.Context, phone string, excludeID uint) (bool, error) {
	return r.store.exists(ctx, "phone", phone, excludeID)
}
