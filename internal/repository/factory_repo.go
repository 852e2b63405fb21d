package repository

import (
	"context"

	"backoffice/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FactoryRepository interface {
	Create(ctx context.Context, factory *model.Factory) error
	// FindByID loads the factory with its category and documents
	FindByID(ctx context.Context, id uint) (*model.Factory, error)
	Update(ctx context.Context, factory *model.Factory) error
	// Delete removes the factory and every document record it owns
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter, categoryID *uint) ([]model.Factory, int64, error)

	// SaveProfile inserts or replaces the profile of profile.FactoryID
	SaveProfile(ctx context.Context, profile *model.FactoryProfile) error
	AddCertificates(ctx context.Context, certs []model.FactoryCertificate) error
	AddImages(ctx context.Context, images []model.FactoryImage) error
}

type factoryRepository struct {
	store ownedStore[model.Factory]
}

func NewFactoryRepository(db *gorm.DB) FactoryRepository {
	return &factoryRepository{store: ownedStore[model.Factory]{db: db, searchColumns: []string{"name", "address", "contact", "compliance"}}}
}

func (r *factoryRepository) Create(ctx context.Context, f *model.Factory) error {
	return r.store.create(ctx, f)
}

func (r *factoryRepository) FindByID(ctx context.Context, id uint) (*model.Factory, error) {
	return r.store.findByID(ctx, id, "Category", "Profile", "Certificates", "Images")
}

func (r *factoryRepository) Update(ctx context.Context, f *model.Factory) error {
	return r.store.save(ctx, f)
}

func (r *factoryRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.store.db)
	if err := db.Where("factory_id = ?", id).Delete(&model.FactoryProfile{}).Error; err != nil {
		return err
	}
	if err := db.Where("factory_id = ?", id).Delete(&model.FactoryCertificate{}).Error; err != nil {
		return err
	}
	if err := db.Where("factory_id = ?", id).Delete(&model.FactoryImage{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Factory{}, id).Error
}

func (r *factoryRepository) List(ctx context.Context, f ListFilter, categoryID *uint) ([]model.Factory, int64, error) {
	return r.store.list(ctx, f, []string{"Category"}, func(db *gorm.DB) *gorm.DB {
		if categoryID != nil {
			return db.Where("category_id = ?", *categoryID)
		}
		return db
	})
}

func (r *factoryRepository) SaveProfile(ctx context.Context, p *model.FactoryProfile) error {
	return GetDB(ctx, r.store.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "factory_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_path", "updated_at"}),
	}).Create(p).Error
}

func (r *factoryRepository) AddCertificates(ctx context.Context, certs []model.FactoryCertificate) error {
	if len(certs) == 0 {
		return nil
	}
	return GetDB(ctx, r.store.db).Create(&certs).Error
}

func (r *factoryRepository) AddImages(ctx context.Context, images []model.FactoryImage) error {
	if len(images) == 0 {
		return nil
	}
	return GetDB(ctx, r.store.db).Create(&images).Error
}

// --- Factory categories ---

type FactoryCategoryRepository interface {
	Create(ctx context.Context, category *model.FactoryCategory) error
	FindByID(ctx context.Context, id uint) (*model.FactoryCategory, error)
	Update(ctx context.Context, category *model.FactoryCategory) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter) ([]model.FactoryCategory, int64, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
}

type factoryCategoryRepository struct {
	store ownedStore[model.FactoryCategory]
}

func NewFactoryCategoryRepository(db *gorm.DB) FactoryCategoryRepository {
	return &factoryCategoryRepository{store: ownedStore[model.FactoryCategory]{db: db, searchColumns: []string{"name"}}}
}

func (r *factoryCategoryRepository) Create(ctx context.Context, c *model.FactoryCategory) error {
	return r.store.create(ctx, c)
}

func (r *factoryCategoryRepository) FindByID(ctx context.Context, id uint) (*model.FactoryCategory, error) {
	return r.store.findByID(ctx, id)
}

func (r *factoryCategoryRepository) Update(ctx context.Context, c *model.FactoryCategory) error {
	return r.store.save(ctx, c)
}

func (r *factoryCategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.store.delete(ctx, id)
}

func (r *factoryCategoryRepository) List(ctx context.Context, f ListFilter) ([]model.FactoryCategory, int64, error) {
	return r.store.list(ctx, f, nil)
}

func (r *factoryCategoryRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	return r.store.exists(ctx, "name", name, excludeID)
}
