package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/internal/testutil"
	"backoffice/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryStorage struct {
	mu         sync.Mutex
	objects    map[string]string
	failPut    bool
	failDelete bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string]string{}}
}

func (m *memoryStorage) Put(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = string(data)
	return key, nil
}

func (m *memoryStorage) Delete(_ context.Context, path string) error {
	if m.failDelete {
		return errors.New("bucket unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *memoryStorage) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

func upload(name, body string) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(body)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

type factoryEnv struct {
	db    *gorm.DB
	svc   FactoryService
	cats  FactoryCategoryService
	files *memoryStorage
	root  *model.User
}

func newFactoryEnv(t *testing.T) *factoryEnv {
	t.Helper()
	db := testutil.NewDB(t)
	files := newMemoryStorage()
	categoryRepo := repository.NewFactoryCategoryRepository(db)
	return &factoryEnv{
		db:    db,
		svc:   NewFactoryService(repository.NewFactoryRepository(db), categoryRepo, repository.NewTransactionManager(db), files, nil),
		cats:  NewFactoryCategoryService(categoryRepo, nil),
		files: files,
		root:  testutil.CreateUser(t, db, "root@example.com", model.LevelSuperAdmin, nil),
	}
}

func TestFactoryService_CreateWithDocuments(t *testing.T) {
	env := newFactoryEnv(t)
	ctx := context.Background()

	cat, err := env.cats.Create(ctx, env.root, FactoryCategoryRequest{Name: "Knitting"})
	require.NoError(t, err)

	capacity := 5000
	factory, err := env.svc.Create(ctx, env.root, FactoryRequest{
		Name: "Delta Knit", Address: "Gazipur", CategoryID: &cat.ID, ProductionCapacity: &capacity,
	}, FactoryFiles{
		Profile:      ptr(upload("Profile.PDF", "%PDF")),
		Certificates: []Upload{upload("bsci.pdf", "cert"), upload("oeko.png", "png")},
		Images:       []Upload{upload("floor.jpg", "jpg")},
	})
	require.NoError(t, err)

	require.NotNil(t, factory.Category)
	assert.Equal(t, "Knitting", factory.Category.Name)
	require.NotNil(t, factory.Profile)
	assert.True(t, strings.HasPrefix(factory.Profile.FilePath, "factories/profiles/"))
	assert.True(t, strings.HasSuffix(factory.Profile.FilePath, ".pdf"))
	require.Len(t, factory.Certificates, 2)
	assert.Equal(t, "bsci.pdf", factory.Certificates[0].Name)
	require.Len(t, factory.Images, 1)
	assert.Equal(t, "floor.jpg", factory.Images[0].AltText)
	assert.Len(t, env.files.keys(), 4)
}

func TestFactoryService_RejectsWrongFileTypes(t *testing.T) {
	env := newFactoryEnv(t)
	missing := uint(42)

	_, err := env.svc.Create(context.Background(), env.root, FactoryRequest{Name: "X", Address: "Y", CategoryID: &missing}, FactoryFiles{
		Profile:      ptr(upload("profile.docx", "doc")),
		Certificates: []Upload{upload("cert.gif", "gif")},
		Images:       []Upload{upload("ok.webp", "webp"), upload("bad.pdf", "pdf")},
	})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	assert.Equal(t, "Must be a file of type: pdf", fields["profile"])
	assert.Contains(t, fields, "certificates[0]")
	assert.NotContains(t, fields, "images[0]")
	assert.Contains(t, fields, "images[1]")
	assert.Contains(t, fields, "category_id")
	assert.Empty(t, env.files.keys(), "nothing stored when validation fails")
}

func TestFactoryService_UpdateReplacesProfile(t *testing.T) {
	env := newFactoryEnv(t)
	ctx := context.Background()

	factory, err := env.svc.Create(ctx, env.root, FactoryRequest{Name: "Delta", Address: "Gazipur"}, FactoryFiles{
		Profile: ptr(upload("old.pdf", "old")),
	})
	require.NoError(t, err)
	oldPath := factory.Profile.FilePath

	updated, err := env.svc.Update(ctx, env.root, factory.ID, FactoryRequest{Name: "Delta Ltd", Address: "Gazipur"}, FactoryFiles{
		Profile: ptr(upload("new.pdf", "new")),
		Images:  []Upload{upload("a.png", "a")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Delta Ltd", updated.Name)
	assert.NotEqual(t, oldPath, updated.Profile.FilePath)
	assert.Len(t, updated.Images, 1)

	var profiles int64
	require.NoError(t, env.db.Model(&model.FactoryProfile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
	assert.NotContains(t, env.files.keys(), oldPath)
	assert.Contains(t, env.files.keys(), updated.Profile.FilePath)
}

func TestFactoryService_DeleteIsBestEffortOnFiles(t *testing.T) {
	env := newFactoryEnv(t)
	ctx := context.Background()

	factory, err := env.svc.Create(ctx, env.root, FactoryRequest{Name: "Delta", Address: "Gazipur"}, FactoryFiles{
		Certificates: []Upload{upload("c.pdf", "c")},
	})
	require.NoError(t, err)

	env.files.failDelete = true
	require.NoError(t, env.svc.Delete(ctx, env.root, factory.ID))

	var certs int64
	require.NoError(t, env.db.Model(&model.FactoryCertificate{}).Count(&certs).Error)
	assert.Zero(t, certs)

	_, err = env.svc.Get(ctx, env.root, factory.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestFactoryService_StorageFailure(t *testing.T) {
	env := newFactoryEnv(t)
	env.files.failPut = true

	_, err := env.svc.Create(context.Background(), env.root, FactoryRequest{Name: "Delta", Address: "Gazipur"}, FactoryFiles{
		Images: []Upload{upload("a.png", "a")},
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindStorage))

	var n int64
	require.NoError(t, env.db.Model(&model.Factory{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFactoryCategoryService(t *testing.T) {
	env := newFactoryEnv(t)
	ctx := context.Background()

	reader := testutil.CreateUser(t, env.db, "reader@example.com", model.LevelUser, map[string]bool{permission.FactoriesRead: true})

	_, err := env.cats.Create(ctx, env.root, FactoryCategoryRequest{Name: "Dyeing"})
	require.NoError(t, err)
	_, err = env.cats.Create(ctx, env.root, FactoryCategoryRequest{Name: " Dyeing "})
	assert.Equal(t, "The name has already been taken", apperror.FieldsOf(err)["name"])

	_, err = env.cats.Create(ctx, reader, FactoryCategoryRequest{Name: "Sewing"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	// categories are shared across owners
	list, total, err := env.cats.List(ctx, reader, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Dyeing", list[0].Name)
}

func ptr[T any](v T) *T { return &v }
