package media

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/dbtest"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	pkgredis "github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type fakeObjects struct {
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, object, _ string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts[object] = data
	return "https://storage.googleapis.com/elite-images/" + object, nil
}

func (f *fakeObjects) Delete(_ context.Context, object string) error {
	f.deleted = append(f.deleted, object)
	return nil
}

type fixture struct {
	svc     Service
	repo    *Repository
	objects *fakeObjects
	redis   *pkgredis.Client
	mr      *miniredis.Miniredis
	product uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	redisClient := pkgredis.NewFromRaw(raw)

	product := models.Product{
		Name:        "Açaí 500ml",
		Description: "Açaí tradicional",
		Category:    enums.ProductCategoryAcai,
		Price:       decimal.RequireFromString("18"),
		IsActive:    true,
	}
	require.NoError(t, client.DB().Create(&product).Error)

	repo := NewRepository(client.DB())
	objects := newFakeObjects()
	svc, err := NewService(repo, Options{Objects: objects, Cache: redisClient, CacheTTL: time.Hour, MaxUploadMB: 1}, logger.Nop())
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, objects: objects, redis: redisClient, mr: mr, product: product.ID}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, Options{}, logger.Nop())
	require.Error(t, err)
}

func TestSaveDataURLUploadsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	img, err := f.svc.Save(ctx, f.product, payload)
	require.NoError(t, err)

	assert.False(t, img.External)
	require.NotNil(t, img.ContentType)
	assert.Equal(t, "image/png", *img.ContentType)
	assert.Contains(t, img.URL, "products/"+f.product.String()+"/")
	require.Len(t, f.objects.puts, 1)

	cached, err := f.redis.Get(ctx, f.redis.ImageURLKey(f.product.String()))
	require.NoError(t, err)
	assert.Equal(t, img.URL, cached)

	url, err := f.svc.URL(ctx, f.product)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, img.URL, *url)
}

func TestSaveReplacesPreviousUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := base64.StdEncoding.EncodeToString(pngBytes)

	first, err := f.svc.Save(ctx, f.product, payload)
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, f.product, "https://images.pexels.com/photos/1092730/acai.jpeg")
	require.NoError(t, err)

	require.Len(t, f.objects.deleted, 1)
	assert.Contains(t, first.URL, f.objects.deleted[0])

	stored, err := f.repo.Find(ctx, f.product)
	require.NoError(t, err)
	assert.Nil(t, stored.ObjectName)
	assert.Equal(t, "https://images.pexels.com/photos/1092730/acai.jpeg", stored.URL)
}

func TestSaveRejects(t *testing.T) {
	cases := []struct {
		name string
		ref  string
		code pkgerrors.Code
	}{
		{name: "empty", ref: "  ", code: pkgerrors.CodeValidation},
		{name: "not base64", ref: "data:image/png;base64,@@@", code: pkgerrors.CodeValidation},
		{name: "missing base64 marker", ref: "data:image/png,abc", code: pkgerrors.CodeValidation},
		{name: "text payload", ref: base64.StdEncoding.EncodeToString([]byte("hello world")), code: pkgerrors.CodeValidation},
		{name: "too large", ref: base64.StdEncoding.EncodeToString(append(pngBytes, make([]byte, bytesPerMB)...)), code: pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Save(context.Background(), f.product, tc.ref)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
			assert.Empty(t, f.objects.puts)
		})
	}
}

func TestSaveUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Save(context.Background(), uuid.New(), "https://example.com/a.png")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSaveUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.objects.putErr = errors.New("bucket unavailable")
	_, err := f.svc.Save(context.Background(), f.product, base64.StdEncoding.EncodeToString(pngBytes))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	url, err := f.svc.URL(context.Background(), f.product)
	require.NoError(t, err)
	assert.Nil(t, url)
}

func TestSaveWithoutObjectStore(t *testing.T) {
	f := newFixture(t)
	svc, err := NewService(f.repo, Options{}, logger.Nop())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), f.product, base64.StdEncoding.EncodeToString(pngBytes))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	img, err := svc.Save(context.Background(), f.product, "https://example.com/a.png")
	require.NoError(t, err)
	assert.True(t, img.External)
}

func TestURLFallsBackToDatabaseWhenCacheDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Save(ctx, f.product, "https://example.com/a.png")
	require.NoError(t, err)

	f.mr.Close()

	url, err := f.svc.URL(ctx, f.product)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, "https://example.com/a.png", *url)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Save(ctx, f.product, base64.StdEncoding.EncodeToString(pngBytes))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, f.product))
	require.Len(t, f.objects.deleted, 1)

	url, err := f.svc.URL(ctx, f.product)
	require.NoError(t, err)
	assert.Nil(t, url)

	require.NoError(t, f.svc.Remove(ctx, f.product), "removing twice is a no-op")
}
