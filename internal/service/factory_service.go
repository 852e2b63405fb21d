package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
	ws "backoffice/internal/websocket"
	"backoffice/pkg/apperror"

	"go.uber.org/zap"
)

// MaxUploadSize is the largest accepted factory document
const MaxUploadSize = 10 << 20

// Storage prefixes of factory documents
const (
	profilePrefix     = "factories/profiles"
	certificatePrefix = "factories/certificates"
	imagePrefix       = "factories/images"
)

var (
	profileExts     = []string{".pdf"}
	certificateExts = []string{".pdf", ".jpg", ".jpeg", ".png"}
	imageExts       = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// --- DTOs ---

type FactoryRequest struct {
	Name               string `json:"name" form:"name" validate:"required,max=255"`
	Address            string `json:"address" form:"address" validate:"required,max=2000"`
	Contact            string `json:"contact" form:"contact" validate:"max=100"`
	CategoryID         *uint  `json:"category_id" form:"category_id"`
	Compliance         string `json:"compliance" form:"compliance" validate:"max=255"`
	ProductionCapacity *int   `json:"production_capacity" form:"production_capacity" validate:"omitempty,gte=0"`
}

// Upload is one file of a multipart request
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FactoryFiles are the documents sent along with a factory. A nil Profile
// keeps the stored one; certificates and images are appended.
type FactoryFiles struct {
	Profile      *Upload
	Certificates []Upload
	Images       []Upload
}

// FactoryListQuery adds the category filter to a list query
type FactoryListQuery struct {
	ListQuery
	CategoryID *uint
}

type FactoryCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// --- Interfaces ---

type FactoryService interface {
	Create(ctx context.Context, actor *model.User, req FactoryRequest, files FactoryFiles) (*model.Factory, error)
	Update(ctx context.Context, actor *model.User, id uint, req FactoryRequest, files FactoryFiles) (*model.Factory, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*model.Factory, error)
	List(ctx context.Context, actor *model.User, q FactoryListQuery) ([]model.Factory, int64, error)
}

type FactoryCategoryService interface {
	Create(ctx context.Context, actor *model.User, req FactoryCategoryRequest) (*model.FactoryCategory, error)
	Update(ctx context.Context, actor *model.User, id uint, req FactoryCategoryRequest) (*model.FactoryCategory, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	Get(ctx context.Context, actor *model.User, id uint) (*model.FactoryCategory, error)
	List(ctx context.Context, actor *model.User, q ListQuery) ([]model.FactoryCategory, int64, error)
}

// --- Factories ---

type factoryService struct {
	repo         repository.FactoryRepository
	categoryRepo repository.FactoryCategoryRepository
	txManager    repository.TransactionManager
	files        storage.FileStorage
	notifier     Notifier
}

func NewFactoryService(
	repo repository.FactoryRepository,
	categoryRepo repository.FactoryCategoryRepository,
	txManager repository.TransactionManager,
	files storage.FileStorage,
	notifier Notifier,
) FactoryService {
	return &factoryService{
		repo:         repo,
		categoryRepo: categoryRepo,
		txManager:    txManager,
		files:        files,
		notifier:     notifierOrNop(notifier),
	}
}

func (s *factoryService) Create(ctx context.Context, actor *model.User, req FactoryRequest, files FactoryFiles) (*model.Factory, error) {
	if err := permission.Require(actor, permission.FactoriesWrite); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validate(ctx, req, files); err != nil {
		return nil, err
	}

	stored, err := s.store(ctx, files)
	if err != nil {
		return nil, err
	}

	factory := &model.Factory{UserID: actor.ID}
	req.apply(factory)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, factory); err != nil {
			return err
		}
		return s.saveDocuments(txCtx, factory.ID, stored)
	})
	if err != nil {
		s.discard(ctx, stored.paths())
		return nil, translate(err, "factory", "create factory")
	}

	logger.FromContext(ctx).Info("factory created", zap.Uint("id", factory.ID), zap.Int("files", len(stored.paths())))
	s.notifier.Notify(ctx, ws.Notification{Title: "Factory", Message: "Factory created.", Capability: permission.FactoriesRead})
	return s.reload(ctx, factory.ID)
}

func (s *factoryService) Update(ctx context.Context, actor *model.User, id uint, req FactoryRequest, files FactoryFiles) (*model.Factory, error) {
	if err := permission.Require(actor, permission.FactoriesWrite); err != nil {
		return nil, err
	}
	factory, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := s.validate(ctx, req, files); err != nil {
		return nil, err
	}

	stored, err := s.store(ctx, files)
	if err != nil {
		return nil, err
	}

	var replaced string
	if stored.profile != "" && factory.Profile != nil {
		replaced = factory.Profile.FilePath
	}

	req.apply(factory)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, factory); err != nil {
			return err
		}
		return s.saveDocuments(txCtx, factory.ID, stored)
	})
	if err != nil {
		s.discard(ctx, stored.paths())
		return nil, translate(err, "factory", "update factory")
	}
	if replaced != "" {
		s.discard(ctx, []string{replaced})
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Factory", Message: "Factory updated.", Capability: permission.FactoriesRead})
	return s.reload(ctx, factory.ID)
}

func (s *factoryService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Require(actor, permission.FactoriesDelete); err != nil {
		return err
	}
	factory, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return translate(err, "factory", "delete factory")
	}

	// rows are gone; stored objects are removed on a best-effort basis
	s.discard(ctx, documentPaths(factory))

	logger.FromContext(ctx).Info("factory deleted", zap.Uint("id", id))
	s.notifier.Notify(ctx, ws.Notification{Title: "Factory", Message: "Factory deleted.", Type: ws.TypeInfo, Capability: permission.FactoriesRead})
	return nil
}

func (s *factoryService) Get(ctx context.Context, actor *model.User, id uint) (*model.Factory, error) {
	if err := permission.Require(actor, permission.FactoriesRead); err != nil {
		return nil, err
	}
	return s.owned(ctx, actor, id)
}

func (s *factoryService) List(ctx context.Context, actor *model.User, q FactoryListQuery) ([]model.Factory, int64, error) {
	if err := permission.Require(actor, permission.FactoriesRead); err != nil {
		return nil, 0, err
	}
	factories, total, err := s.repo.List(ctx, q.filter(actor), q.CategoryID)
	if err != nil {
		return nil, 0, translate(err, "factory", "list factories")
	}
	return factories, total, nil
}

// --- helpers ---

func (s *factoryService) owned(ctx context.Context, actor *model.User, id uint) (*model.Factory, error) {
	factory, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "factory", "load factory")
	}
	if err := checkOwner(actor, factory.UserID); err != nil {
		return nil, err
	}
	return factory, nil
}

func (s *factoryService) reload(ctx context.Context, id uint) (*model.Factory, error) {
	factory, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "factory", "load factory")
	}
	return factory, nil
}

func (s *factoryService) validate(ctx context.Context, req FactoryRequest, files FactoryFiles) error {
	fields := map[string]string{}
	if files.Profile != nil {
		checkUpload(fields, "profile", *files.Profile, profileExts)
	}
	for i, u := range files.Certificates {
		checkUpload(fields, fmt.Sprintf("certificates[%d]", i), u, certificateExts)
	}
	for i, u := range files.Images {
		checkUpload(fields, fmt.Sprintf("images[%d]", i), u, imageExts)
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if !repository.IsNotFound(err) {
				return translate(err, "factory category", "load factory category")
			}
			fields["category_id"] = "The selected category does not exist"
		}
	}

	return mergeFields(validateStruct(req), fields)
}

func checkUpload(fields map[string]string, field string, u Upload, exts []string) {
	ext := strings.ToLower(path.Ext(u.Filename))
	allowed := false
	for _, e := range exts {
		if e == ext {
			allowed = true
			break
		}
	}
	switch {
	case !allowed:
		fields[field] = "Must be a file of type: " + strings.Join(trimDots(exts), ", ")
	case u.Size > MaxUploadSize:
		fields[field] = fmt.Sprintf("Must not be larger than %d kilobytes", MaxUploadSize>>10)
	}
}

func trimDots(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}

type storedFile struct {
	name string
	path string
}

// storedDocuments are the objects written for one request
type storedDocuments struct {
	profile      string
	certificates []storedFile
	images       []storedFile
}

func (d storedDocuments) paths() []string {
	var out []string
	if d.profile != "" {
		out = append(out, d.profile)
	}
	for _, f := range d.certificates {
		out = append(out, f.path)
	}
	for _, f := range d.images {
		out = append(out, f.path)
	}
	return out
}

// store writes every upload before the transaction starts. On failure the
// objects written so far are removed again.
func (s *factoryService) store(ctx context.Context, files FactoryFiles) (storedDocuments, error) {
	var out storedDocuments
	if files.Profile != nil {
		p, err := s.put(ctx, profilePrefix, *files.Profile)
		if err != nil {
			return out, err
		}
		out.profile = p
	}
	for _, u := range files.Certificates {
		p, err := s.put(ctx, certificatePrefix, u)
		if err != nil {
			s.discard(ctx, out.paths())
			return storedDocuments{}, err
		}
		out.certificates = append(out.certificates, storedFile{name: u.Filename, path: p})
	}
	for _, u := range files.Images {
		p, err := s.put(ctx, imagePrefix, u)
		if err != nil {
			s.discard(ctx, out.paths())
			return storedDocuments{}, err
		}
		out.images = append(out.images, storedFile{name: u.Filename, path: p})
	}
	return out, nil
}

func (s *factoryService) put(ctx context.Context, prefix string, u Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", apperror.Storage("failed to read uploaded file", err)
	}
	defer rc.Close()

	p, err := s.files.Put(ctx, storage.ObjectKey(prefix, u.Filename), rc, u.ContentType)
	if err != nil {
		return "", apperror.Storage("failed to store uploaded file", err)
	}
	return p, nil
}

func (s *factoryService) saveDocuments(ctx context.Context, factoryID uint, d storedDocuments) error {
	if d.profile != "" {
		if err := s.repo.SaveProfile(ctx, &model.FactoryProfile{FactoryID: factoryID, FilePath: d.profile}); err != nil {
			return err
		}
	}
	certs := make([]model.FactoryCertificate, 0, len(d.certificates))
	for _, f := range d.certificates {
		certs = append(certs, model.FactoryCertificate{FactoryID: factoryID, Name: f.name, FilePath: f.path})
	}
	if err := s.repo.AddCertificates(ctx, certs); err != nil {
		return err
	}
	images := make([]model.FactoryImage, 0, len(d.images))
	for _, f := range d.images {
		images = append(images, model.FactoryImage{FactoryID: factoryID, AltText: f.name, FilePath: f.path})
	}
	return s.repo.AddImages(ctx, images)
}

// discard deletes stored objects, logging failures instead of returning them
func (s *factoryService) discard(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.files.Delete(ctx, p); err != nil {
			logger.FromContext(ctx).Warn("failed to delete stored file", zap.String("path", p), zap.Error(err))
		}
	}
}

func documentPaths(f *model.Factory) []string {
	var out []string
	if f.Profile != nil {
		out = append(out, f.Profile.FilePath)
	}
	for _, c := range f.Certificates {
		out = append(out, c.FilePath)
	}
	for _, i := range f.Images {
		out = append(out, i.FilePath)
	}
	return out
}

func (r FactoryRequest) normalized() FactoryRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.Contact = strings.TrimSpace(r.Contact)
	r.Compliance = strings.TrimSpace(r.Compliance)
	return r
}

func (r FactoryRequest) apply(f *model.Factory) {
	f.Name = r.Name
	f.Address = r.Address
	f.Contact = r.Contact
	f.CategoryID = r.CategoryID
	f.Category = nil
	f.Compliance = r.Compliance
	f.ProductionCapacity = r.ProductionCapacity
}

// --- Factory categories ---

type factoryCategoryService struct {
	repo     repository.FactoryCategoryRepository
	notifier Notifier
}

func NewFactoryCategoryService(repo repository.FactoryCategoryRepository, notifier Notifier) FactoryCategoryService {
	return &factoryCategoryService{repo: repo, notifier: notifierOrNop(notifier)}
}

func (s *factoryCategoryService) Create(ctx context.Context, actor *model.User, req FactoryCategoryRequest) (*model.FactoryCategory, error) {
	if err := permission.Require(actor, permission.FactoriesWrite); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(ctx, req, 0); err != nil {
		return nil, err
	}

	category := &model.FactoryCategory{UserID: actor.ID, Name: req.Name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, uniqueField(err, "factory category", "name", "create factory category")
	}

	s.notifier.Notify(ctx, ws.Notification{Title: "Factory Category", Message: "Factory category created.", Capability: permission.FactoriesRead})
	return category, nil
}

func (s *factoryCategoryService) Update(ctx context.Context, actor *model.User, id uint, req FactoryCategoryRequest) (*model.FactoryCategory, error) {
	if err := permission.Require(actor, permission.FactoriesWrite); err != nil {
		return nil, err
	}
	category, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(ctx, req, id); err != nil {
		return nil, err
	}

	category.Name = req.Name
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, uniqueField(err, "factory category", "name", "update factory category")
	}
	return category, nil
}

func (s *factoryCategoryService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if err := permission.Require(actor, permission.FactoriesDelete); err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "factory category", "delete factory category")
	}
	return nil
}

func (s *factoryCategoryService) Get(ctx context.Context, actor *model.User, id uint) (*model.FactoryCategory, error) {
	if err := permission.Require(actor, permission.FactoriesRead); err != nil {
		return nil, err
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "factory category", "load factory category")
	}
	return category, nil
}

// List returns categories of every owner; they are shared reference data
func (s *factoryCategoryService) List(ctx context.Context, actor *model.User, q ListQuery) ([]model.FactoryCategory, int64, error) {
	if err := permission.Require(actor, permission.FactoriesRead); err != nil {
		return nil, 0, err
	}
	f := q.filter(actor)
	f.OwnerID = nil
	categories, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, translate(err, "factory category", "list factory categories")
	}
	return categories, total, nil
}

func (s *factoryCategoryService) owned(ctx context.Context, actor *model.User, id uint) (*model.FactoryCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "factory category", "load factory category")
	}
	if err := checkOwner(actor, category.UserID); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *factoryCategoryService) validate(ctx context.Context, req FactoryCategoryRequest, excludeID uint) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	taken, err := s.repo.NameTaken(ctx, req.Name, excludeID)
	if err != nil {
		return translate(err, "factory category", "check factory category name")
	}
	if taken {
		return apperror.ValidationField("name", "The name has already been taken")
	}
	return nil
}
