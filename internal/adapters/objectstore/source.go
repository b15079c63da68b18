package objectstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// DefaultMaxImageBytes - ограничение размера одного изображения (5 МиБ)
const DefaultMaxImageBytes = 5 << 20

var (
	ErrImageTooLarge     = errors.New("image exceeds size limit")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrMalformedDataURI  = errors.New("malformed data uri")
	ErrUnsupportedSource = errors.New("unsupported image source")
)

var extensionsByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var typesByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Payload - содержимое изображения, готовое к записи в хранилище
type Payload struct {
	Data        []byte
	ContentType string
	Ext         string
}

// NewObjectKey формирует ключ вида <prefix><uuid><ext>.
func NewObjectKey(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}

// DecodeDataURI разбирает data:image/<type>;base64,<data>.
func DecodeDataURI(raw string, maxBytes int64) (Payload, error) {
	header, data, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(header), "data:") {
		return Payload{}, ErrMalformedDataURI
	}
	meta := strings.TrimPrefix(strings.ToLower(header), "data:")
	contentType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return Payload{}, fmt.Errorf("%w: only base64 encoding is supported", ErrMalformedDataURI)
	}
	ext, ok := extensionsByType[contentType]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(data))) > maxBytes+2 {
		return Payload{}, ErrImageTooLarge
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}
	if maxBytes > 0 && int64(len(decoded)) > maxBytes {
		return Payload{}, ErrImageTooLarge
	}
	return Payload{Data: decoded, ContentType: typesByExtension[ext], Ext: ext}, nil
}

// ExtensionFromURL возвращает расширение изображения из пути ссылки.
func ExtensionFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	_, ok := typesByExtension[ext]
	return ext, ok
}

// SourceResolver превращает источник изображения в байты:
// data URI декодируется, внешняя ссылка скачивается.
type SourceResolver struct {
	client   *http.Client
	maxBytes int64
}

func NewSourceResolver(client *http.Client, maxBytes int64) *SourceResolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &SourceResolver{client: client, maxBytes: maxBytes}
}

func (r *SourceResolver) Resolve(ctx context.Context, source domain.ImageSource) (Payload, error) {
	raw := strings.TrimSpace(source.Raw)
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return DecodeDataURI(raw, r.maxBytes)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return r.fetch(ctx, raw)
	default:
		return Payload{}, ErrUnsupportedSource
	}
}

func (r *SourceResolver) fetch(ctx context.Context, rawURL string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("failed to fetch image: unexpected status %d", resp.StatusCode)
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	ext, ok := extensionsByType[contentType]
	if !ok {
		// Некоторые CDN отдают application/octet-stream, тогда верим расширению в ссылке
		ext, ok = ExtensionFromURL(rawURL)
		if !ok {
			return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return Payload{}, ErrImageTooLarge
	}
	return Payload{Data: data, ContentType: typesByExtension[ext], Ext: ext}, nil
}
