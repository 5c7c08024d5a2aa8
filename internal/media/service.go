// Package media stores product images: uploads go to Cloud Storage, the URL is kept
// in product_images and cached in Redis.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const bytesPerMB = 1024 * 1024

type imageRepository interface {
	Find(ctx context.Context, productID uuid.UUID) (*models.ProductImage, error)
	Upsert(ctx context.Context, img *models.ProductImage) error
	Delete(ctx context.Context, productID uuid.UUID) error
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
}

type objectStore interface {
	Put(ctx context.Context, object, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, object string) error
}

type urlCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ImageURLKey(productID string) string
}

// Service exposes the product image store.
type Service interface {
	URL(ctx context.Context, productID uuid.UUID) (*string, error)
	Save(ctx context.Context, productID uuid.UUID, ref string) (*ImageDTO, error)
	Remove(ctx context.Context, productID uuid.UUID) error
}

// ImageDTO is the stored image of a product.
type ImageDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	URL         string    `json:"url"`
	ContentType *string   `json:"content_type,omitempty"`
	External    bool      `json:"external"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Options tunes the service. Objects may be nil when Cloud Storage is not configured;
// external URLs still work then.
type Options struct {
	Objects     objectStore
	Cache       urlCache
	CacheTTL    time.Duration
	MaxUploadMB int
}

type service struct {
	repo     imageRepository
	objects  objectStore
	cache    urlCache
	cacheTTL time.Duration
	maxBytes int
	logg     *logger.Logger
}

func NewService(repo imageRepository, opts Options, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		objects:  opts.Objects,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxBytes: opts.MaxUploadMB * bytesPerMB,
		logg:     logg,
	}, nil
}

// URL returns the saved image URL or nil. Cache failures fall back to the database.
func (s *service) URL(ctx context.Context, productID uuid.UUID) (*string, error) {
	if cached, ok := s.cached(ctx, productID); ok {
		return &cached, nil
	}
	img, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product image")
	}
	if img == nil {
		return nil, nil
	}
	s.remember(ctx, productID, img.URL)
	url := img.URL
	return &url, nil
}

func (s *service) Save(ctx context.Context, productID uuid.UUID, raw string) (*ImageDTO, error) {
	ref, err := parseImageRef(raw, s.maxBytes)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	previous, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product image")
	}

	img := &models.ProductImage{ProductID: productID, URL: ref.externalURL}
	if ref.externalURL == "" {
		if s.objects == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage not configured")
		}
		object := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), ref.extension())
		url, err := s.objects.Put(ctx, object, ref.contentType, ref.data)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
		}
		contentType := ref.contentType
		img.URL = url
		img.ObjectName = &object
		img.ContentType = &contentType
	}

	if err := s.repo.Upsert(ctx, img); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product image")
	}
	s.remember(ctx, productID, img.URL)
	s.dropObject(ctx, previous, img.ObjectName)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"external":   ref.externalURL != "",
	})
	s.logg.Info(logCtx, "product.image_saved")

	return &ImageDTO{
		ProductID:   productID,
		URL:         img.URL,
		ContentType: img.ContentType,
		External:    img.ObjectName == nil,
		UpdatedAt:   img.UpdatedAt,
	}, nil
}

func (s *service) Remove(ctx context.Context, productID uuid.UUID) error {
	previous, err := s.repo.Find(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product image")
	}
	if previous == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product image")
	}
	s.forget(ctx, productID)
	s.dropObject(ctx, previous, nil)
	return nil
}

// dropObject deletes the replaced upload. Leftover objects only cost storage.
func (s *service) dropObject(ctx context.Context, previous *models.ProductImage, current *string) {
	if previous == nil || previous.ObjectName == nil || s.objects == nil {
		return
	}
	if current != nil && *current == *previous.ObjectName {
		return
	}
	if err := s.objects.Delete(ctx, *previous.ObjectName); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "object", *previous.ObjectName), "old product image not deleted")
	}
}

func (s *service) cached(ctx context.Context, productID uuid.UUID) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, s.cache.ImageURLKey(productID.String()))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "image url cache read failed")
		}
		return "", false
	}
	return value, value != ""
}

func (s *service) remember(ctx context.Context, productID uuid.UUID, url string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ImageURLKey(productID.String()), url, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "image url cache write failed")
	}
}

func (s *service) forget(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.ImageURLKey(productID.String())); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "image url cache delete failed")
	}
}
