package repository

import (
	"context"

	"backoffice/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByLevel(ctx context.Context, level string) (bool, error)
	// List excludes users of the given level, e.g. Super Admins
	List(ctx context.Context, excludeLevel, search string, offset, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePermissions(ctx context.Context, id uint, perms map[string]bool) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByLevel(ctx context.Context, level string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.User{}).Where("level = ?", level).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, excludeLevel, search string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := GetDB(ctx, r.db).Model(&model.User{})
	if excludeLevel != "" {
		query = query.Where("level <> ?", excludeLevel)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Model(user).Select("name", "email", "password", "level").Updates(user).Error
}

// UpdatePermissions overwrites the whole map; keys missing from perms are gone afterwards
func (r *userRepository) UpdatePermissions(ctx context.Context, id uint, perms map[string]bool) error {
	return GetDB(ctx, r.db).Model(&model.User{ID: id}).Select("permissions").Updates(&model.User{Permissions: perms}).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.User{}, id).Error
}
