package media

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// imageRef is what the admin sent: either raw bytes or an external link.
type imageRef struct {
	data        []byte
	contentType string
	externalURL string
}

func (r imageRef) extension() string {
	return allowedImageTypes[r.contentType]
}

// parseImageRef accepts a data URL, bare base64 or an http(s) URL.
func parseImageRef(raw string, maxBytes int) (imageRef, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return imageRef{}, pkgerrors.Validation("image is required", pkgerrors.FieldError{Field: "image", Message: "required"})
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil || u.Host == "" {
			return imageRef{}, pkgerrors.Validation("invalid image url", pkgerrors.FieldError{Field: "image", Message: "must be a valid url"})
		}
		return imageRef{externalURL: u.String()}, nil
	}

	encoded := ref
	if strings.HasPrefix(ref, "data:") {
		comma := strings.IndexByte(ref, ',')
		if comma < 0 || !strings.HasSuffix(ref[:comma], ";base64") {
			return imageRef{}, pkgerrors.Validation("invalid data url", pkgerrors.FieldError{Field: "image", Message: "must be a base64 data url"})
		}
		encoded = ref[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return imageRef{}, pkgerrors.Validation("invalid image payload", pkgerrors.FieldError{Field: "image", Message: "not valid base64"})
	}
	if len(data) == 0 {
		return imageRef{}, pkgerrors.Validation("image is empty", pkgerrors.FieldError{Field: "image", Message: "empty payload"})
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return imageRef{}, pkgerrors.Validation("image too large", pkgerrors.FieldError{Field: "image", Message: "exceeds upload limit"})
	}

	// the declared data URL type is ignored; bytes decide
	detected := mimetype.Detect(data).String()
	if idx := strings.IndexByte(detected, ';'); idx >= 0 {
		detected = detected[:idx]
	}
	if _, ok := allowedImageTypes[detected]; !ok {
		return imageRef{}, pkgerrors.Validation("unsupported image type", pkgerrors.FieldError{Field: "image", Message: "only png, jpeg, webp or gif"})
	}
	return imageRef{data: data, contentType: detected}, nil
}
