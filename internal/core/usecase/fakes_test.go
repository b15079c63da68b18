package usecase

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"

	"listing-service/internal/adapters/memory"
	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

const cdnBase = "https://cdn.test/"

var errUploadRefused = errors.New("upload refused")

// fakeStore хранит ключи в памяти; ключ объекта - префикс плюс имя файла источника.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]struct{}
	fail    map[string]bool
	uploads []string
	deleted   []string
	listErr   error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]struct{}{}, fail: map[string]bool{}}
}

func (s *fakeStore) Upload(ctx context.Context, prefix string, source domain.ImageSource) (domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, source.Raw)
	if s.fail[source.Raw] {
		return domain.StoredObject{}, errUploadRefused
	}
	key := prefix + path.Base(source.Raw)
	s.objects[key] = struct{}{}
	return domain.StoredObject{Key: key, URL: cdnBase + key}, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) ListByPrefix(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.StoredObject, 0)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, domain.StoredObject{Key: key, URL: cdnBase + key})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *fakeStore) Recognize(url string) (domain.StoredObject, bool) {
	key, ok := strings.CutPrefix(url, cdnBase)
	if !ok || key == "" {
		return domain.StoredObject{}, false
	}
	return domain.StoredObject{Key: key, URL: url}, true
}

// put размещает объект так, будто он был загружен раньше.
func (s *fakeStore) put(key string) domain.Image {
	s.mu.Lock()
	s.objects[key] = struct{}{}
	s.mu.Unlock()
	return domain.Image{Key: key, URL: cdnBase + key}
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func (s *fakeStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string{}, s.deleted...)
	sort.Strings(out)
	return out
}

// faultyRepo - репозиторий в памяти с включаемыми сбоями записи.
type faultyRepo struct {
	*memory.PropertyRepository
	insertErr error
	updateErr error
	ownerErr  error
}

func (r *faultyRepo) Insert(ctx context.Context, property domain.Property) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	return r.PropertyRepository.Insert(ctx, property)
}

func (r *faultyRepo) Update(ctx context.Context, property domain.Property) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.PropertyRepository.Update(ctx, property)
}

func (r *faultyRepo) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	if r.ownerErr != nil {
		return false, r.ownerErr
	}
	return r.PropertyRepository.OwnerExists(ctx, ownerID)
}

type recordingCompensator struct {
	mu    sync.Mutex
	calls []domain.Compensation
}

func (c *recordingCompensator) Compensate(ctx context.Context, comp domain.Compensation) {
	c.mu.Lock()
	c.calls = append(c.calls, comp)
	c.mu.Unlock()
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.PropertyEvent
	err    error
}

func (e *recordingEvents) Publish(ctx context.Context, event domain.PropertyEvent) error {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
	return e.err
}

func (e *recordingEvents) types() []domain.PropertyEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.PropertyEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	items       map[uuid.UUID]domain.Property
	invalidated []uuid.UUID
}

func newRecordingCache() *recordingCache {
	return &recordingCache{items: map[uuid.UUID]domain.Property{}}
}

func (c *recordingCache) Get(ctx context.Context, id uuid.UUID) (*domain.Property, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[id]
	if !ok {
		return nil, false
	}
	out := p.Clone()
	return &out, true
}

func (c *recordingCache) Set(ctx context.Context, property *domain.Property) {
	c.mu.Lock()
	c.items[property.ID] = property.Clone()
	c.mu.Unlock()
}

func (c *recordingCache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	c.mu.Unlock()
}
