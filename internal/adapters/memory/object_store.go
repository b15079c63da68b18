package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"listing-service/internal/adapters/objectstore"
	"listing-service/internal/core/domain"
)

// ObjectStore - хранилище изображений в памяти для локального запуска и тестов.
// Внешние ссылки не скачиваются: сохраняется сама ссылка.
type ObjectStore struct {
	mu       sync.RWMutex
	baseURL  string
	objects  map[string][]byte
	maxBytes int64
}

func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{
		baseURL:  strings.TrimRight(baseURL, "/"),
		objects:  make(map[string][]byte),
		maxBytes: objectstore.DefaultMaxImageBytes,
	}
}

func (s *ObjectStore) Upload(ctx context.Context, prefix string, source domain.ImageSource) (domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredObject{}, err
	}

	var data []byte
	var ext string
	if strings.HasPrefix(strings.ToLower(source.Raw), "data:") {
		payload, err := objectstore.DecodeDataURI(source.Raw, s.maxBytes)
		if err != nil {
			return domain.StoredObject{}, fmt.Errorf("failed to resolve image source: %w", err)
		}
		data, ext = payload.Data, payload.Ext
	} else {
		var ok bool
		ext, ok = objectstore.ExtensionFromURL(source.Raw)
		if !ok {
			return domain.StoredObject{}, fmt.Errorf("failed to resolve image source: %w", objectstore.ErrUnsupportedSource)
		}
		data = []byte(source.Raw)
	}

	key := objectstore.NewObjectKey(prefix, ext)
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return domain.StoredObject{Key: key, URL: s.urlFor(key)}, nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *ObjectStore) ListByPrefix(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	objects := make([]domain.StoredObject, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, domain.StoredObject{Key: key, URL: s.urlFor(key)})
	}
	return objects, nil
}

func (s *ObjectStore) Recognize(rawURL string) (domain.StoredObject, bool) {
	key, ok := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !ok || key == "" {
		return domain.StoredObject{}, false
	}
	return domain.StoredObject{Key: key, URL: rawURL}, true
}

// Has сообщает, хранится ли объект с таким ключом.
func (s *ObjectStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *ObjectStore) urlFor(key string) string {
	return s.baseURL + "/" + key
}
