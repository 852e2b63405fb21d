package service

import (
	"context"
	"strings"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/config"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/pkg/apperror"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Level    string `json:"level" validate:"required,oneof=User Admin"`
}

// UpdateUserRequest leaves the password unchanged when it is blank
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Level    string `json:"level" validate:"required,oneof=User Admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse never exposes the password hash
type UserResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Level       string          `json:"level"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// UserService covers login and the Super Admin user administration
type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, actor *model.User) (*UserResponse, error)
	Create(ctx context.Context, actor *model.User, req CreateUserRequest) (*UserResponse, error)
	Update(ctx context.Context, actor *model.User, id uint, req UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*UserResponse, error)
	List(ctx context.Context, actor *model.User, q ListQuery) ([]UserResponse, int64, error)
	// SetPermissions replaces the whole permission map of a user
	SetPermissions(ctx context.Context, actor *model.User, id uint, perms map[string]bool) (*UserResponse, error)
	// EnsureSuperAdmin creates the configured Super Admin when none exists
	EnsureSuperAdmin(ctx context.Context, cfg config.BootstrapConfig) error
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	tree      *permission.Tree
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, jwtCfg config.JWTConfig) UserService {
	return &userService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		tree:      permission.DefaultTree,
		secret:    []byte(jwtCfg.Secret),
		ttl:       jwtCfg.Expiration,
		now:       time.Now,
	}
}

var superAdminOnly = permission.Rule{Role: model.LevelSuperAdmin}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.Unauthenticated("invalid email or password")
		}
		return nil, translate(err, "user", "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.FromContext(ctx).Warn("login failed", zap.Uint("user_id", user.ID))
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	token, expiresAt, err := auth.Issue(user, s.secret, s.ttl, s.now())
	if err != nil {
		return nil, apperror.Storage("failed to generate token", err)
	}

	logger.FromContext(ctx).Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResponse{Token: token, ExpiresAt: expiresAt.Format(timeLayout), User: *toUserResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, actor *model.User) (*UserResponse, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated("authentication required")
	}
	return toUserResponse(actor), nil
}

func (s *userService) Create(ctx context.Context, actor *model.User, req CreateUserRequest) (*UserResponse, error) {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, req.Email, 0); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hash,
		Level:       req.Level,
		Permissions: map[string]bool{},
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateUser, "user", user.ID, user.Email,
			map[string]string{"name": user.Name, "level": user.Level})
	})
	if err != nil {
		return nil, uniqueField(err, "user", "email", "create user")
	}

	logger.FromContext(ctx).Info("user created", zap.Uint("id", user.ID), zap.String("level", user.Level))
	return toUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor *model.User, id uint, req UpdateUserRequest) (*UserResponse, error) {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return nil, err
	}
	user, err := s.managed(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Level = req.Level
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateUser, "user", user.ID, user.Email,
			map[string]interface{}{"name": user.Name, "level": user.Level, "password_changed": req.Password != ""})
	})
	if err != nil {
		return nil, uniqueField(err, "user", "email", "update user")
	}
	return toUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return err
	}
	if actor.ID == id {
		return apperror.Forbidden("you cannot delete your own account")
	}
	user, err := s.managed(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteUser, "user", id, user.Email, map[string]string{"name": user.Name})
	})
	if err != nil {
		return translate(err, "user", "delete user")
	}

	logger.FromContext(ctx).Info("user deleted", zap.Uint("id", id))
	return nil
}

func (s *userService) Get(ctx context.Context, actor *model.User, id uint) (*UserResponse, error) {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return nil, err
	}
	user, err := s.managed(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, actor *model.User, q ListQuery) ([]UserResponse, int64, error) {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return nil, 0, err
	}
	p := q.params()
	users, total, err := s.repo.List(ctx, model.LevelSuperAdmin, p.Search, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, translate(err, "user", "list users")
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) SetPermissions(ctx context.Context, actor *model.User, id uint, perms map[string]bool) (*UserResponse, error) {
	if err := permission.Check(actor, superAdminOnly); err != nil {
		return nil, err
	}
	user, err := s.managed(ctx, id)
	if err != nil {
		return nil, err
	}
	normalized, err := permission.Normalize(s.tree, perms)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdatePermissions(txCtx, id, normalized); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSetPermissions, "user", id, user.Email,
			map[string]interface{}{"before": user.Permissions, "after": normalized})
	})
	if err != nil {
		return nil, translate(err, "user", "update permissions")
	}

	logger.FromContext(ctx).Info("permissions updated", zap.Uint("user_id", id), zap.Int("keys", len(normalized)))
	user.Permissions = normalized
	return toUserResponse(user), nil
}

func (s *userService) EnsureSuperAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	exists, err := s.repo.ExistsByLevel(ctx, model.LevelSuperAdmin)
	if err != nil {
		return translate(err, "user", "check super admin")
	}
	if exists || cfg.AdminEmail == "" {
		return nil
	}

	hash, err := hashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	name := cfg.AdminName
	if name == "" {
		name = "Super Admin"
	}
	user := &model.User{
		Name:        name,
		Email:       strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		Password:    hash,
		Level:       model.LevelSuperAdmin,
		Permissions: map[string]bool{},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return translate(err, "user", "create super admin")
	}

	logger.FromContext(ctx).Info("super admin created", zap.String("email", user.Email))
	return nil
}

// managed loads a user the Super Admin may administer. Super Admins are
// hidden from administration the same way they are hidden from the list.
func (s *userService) managed(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", "load user")
	}
	if user.IsSuperAdmin() {
		return nil, apperror.NotFound("user")
	}
	return user, nil
}

func (s *userService) checkEmail(ctx context.Context, email string, excludeID uint) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return translate(err, "user", "check user email")
	}
	if existing.ID != excludeID {
		return apperror.ValidationField("email", "The email has already been taken")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Storage("failed to hash password", err)
	}
	return string(hash), nil
}

func toUserResponse(user *model.User) *UserResponse {
	perms := user.Permissions
	if perms == nil {
		perms = map[string]bool{}
	}
	return &UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Level:       user.Level,
		Permissions: perms,
		CreatedAt:   user.CreatedAt.Format(timeLayout),
		UpdatedAt:   user.UpdatedAt.Format(timeLayout),
	}
}
