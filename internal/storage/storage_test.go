package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("factories/images", "Front View.PNG")
	assert.True(t, strings.HasPrefix(key, "factories/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey("factories/images", "Front View.PNG"))
}

func TestLocalStorage_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.Put(ctx, "factories/profiles/a.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "factories/profiles/a.pdf", p)

	data, err := os.ReadFile(filepath.Join(root, "factories", "profiles", "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Delete(ctx, p))
	_, err = os.Stat(filepath.Join(root, "factories", "profiles", "a.pdf"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, p))
}

func TestLocalStorage_KeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	p, err := s.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", p)
	_, err = os.Stat(filepath.Join(root, "etc", "passwd"))
	assert.NoError(t, err)

	_, err = s.Put(context.Background(), "", strings.NewReader("x"), "text/plain")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

type fakeS3 struct {
	objects map[string]string
	failPut bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	body, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	s := NewS3StorageWithClient(fake, "docs", zap.NewNop())
	ctx := context.Background()

	p, err := s.Put(ctx, "factories/certificates/iso.pdf", strings.NewReader("cert"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "cert", fake.objects["docs/factories/certificates/iso.pdf"])

	require.NoError(t, s.Delete(ctx, p))
	assert.Empty(t, fake.objects)

	fake.failPut = true
	_, err = s.Put(ctx, "x.pdf", strings.NewReader("cert"), "application/pdf")
	assert.Error(t, err)
}
