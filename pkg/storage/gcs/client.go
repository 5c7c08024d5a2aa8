// Package gcs stores product images in a Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const (
	pingTimeout          = 5 * time.Second
	defaultPublicBaseURL = "https://storage.googleapis.com"
)

// Client wraps a storage client bound to one bucket.
type Client struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := &Client{
		client:        sc,
		bucket:        bucket,
		publicBaseURL: normalizeBaseURL(cfg.PublicBaseURL),
	}
	if err := client.Ping(ctx); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "gcs client initialized")
	}
	return client, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return defaultPublicBaseURL
	}
	return base
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping reads the bucket attributes.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return err
	}
	return nil
}

// Put uploads data to object and returns its public URL.
func (c *Client) Put(ctx context.Context, object, contentType string, data []byte) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("gcs object name is empty")
	}

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "public, max-age=86400"
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return c.PublicURL(object), nil
}

// Delete removes object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	err := c.client.Bucket(c.bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

// PublicURL is the URL objects are served from when the bucket allows public reads.
func (c *Client) PublicURL(object string) string {
	base := defaultPublicBaseURL
	bucket := ""
	if c != nil {
		base = normalizeBaseURL(c.publicBaseURL)
		bucket = c.bucket
	}
	segments := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// ObjectFromURL returns the object name when rawURL points into this bucket.
func (c *Client) ObjectFromURL(rawURL string) (string, bool) {
	if c == nil {
		return "", false
	}
	prefix := normalizeBaseURL(c.publicBaseURL) + "/" + url.PathEscape(c.bucket) + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	object, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || object == "" {
		return "", false
	}
	return object, true
}
