package catalog

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	MaxImageBytes   = 5 << 20
	DefaultCategory = "computers"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImage accepts an http(s) URL, a site-relative path, or a base64
// data URL of an allowed image type no larger than MaxImageBytes.
func ValidateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return fmt.Errorf("%w: image required", ErrInvalidProduct)
	}

	if rest, ok := strings.CutPrefix(image, "data:"); ok {
		return validateDataURL(rest)
	}

	if strings.HasPrefix(image, "/") && !strings.HasPrefix(image, "//") {
		return nil
	}

	u, err := url.Parse(image)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: image must be a URL or data URL", ErrInvalidProduct)
	}
	return nil
}

func validateDataURL(rest string) error {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return fmt.Errorf("%w: malformed data URL", ErrInvalidProduct)
	}

	mediaType, enc, _ := strings.Cut(meta, ";")
	mediaType = strings.ToLower(mediaType)
	if !allowedImageTypes[mediaType] {
		return fmt.Errorf("%w: image type %q not allowed", ErrInvalidProduct, mediaType)
	}
	if enc != "base64" {
		return fmt.Errorf("%w: data URL must be base64", ErrInvalidProduct)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return fmt.Errorf("%w: image larger than %d bytes", ErrInvalidProduct, MaxImageBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: bad base64 image", ErrInvalidProduct)
	}
	if len(raw) > MaxImageBytes {
		return fmt.Errorf("%w: image larger than %d bytes", ErrInvalidProduct, MaxImageBytes)
	}

	if sniffed := http.DetectContentType(raw); sniffed != mediaType {
		return fmt.Errorf("%w: image content is %s, declared %s", ErrInvalidProduct, sniffed, mediaType)
	}
	return nil
}

// normalize trims fields and applies defaults before validation.
func normalize(p Product) Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = strings.TrimSpace(p.Price)
	p.Image = strings.TrimSpace(p.Image)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p
}

func validate(p Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidProduct)
	}
	d, err := ParsePrice(p.Price)
	if err != nil {
		return err
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return ValidateImage(p.Image)
}
