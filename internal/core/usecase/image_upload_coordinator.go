package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// UploadBatch - итог загрузки: итоговый набор изображений и то, что было загружено заново.
type UploadBatch struct {
	Images   []domain.Image
	Uploaded []domain.StoredObject
}

// ImageUploadCoordinator загружает изображения объявления параллельно.
// Если хотя бы одна загрузка не удалась, уже загруженные новые объекты удаляются.
type ImageUploadCoordinator struct {
	store       port.ObjectStorePort
	compensator port.CompensatorPort
	keyRoot     string
}

func NewImageUploadCoordinator(store port.ObjectStorePort, compensator port.CompensatorPort, keyRoot string) *ImageUploadCoordinator {
	return &ImageUploadCoordinator{store: store, compensator: compensator, keyRoot: keyRoot}
}

// Prefix - префикс ключей всех изображений объявления
func (c *ImageUploadCoordinator) Prefix(propertyID uuid.UUID) string {
	return domain.PropertyPrefix(c.keyRoot, propertyID)
}

type uploadJob struct {
	index  int
	source string
}

type uploadOutcome struct {
	object domain.StoredObject
	err    error
}

// Upload возвращает изображения в порядке sources.
// Источник, совпадающий с уже размещенным изображением этого объявления, не загружается повторно.
// Все загрузки дожидаются завершения, досрочной отмены нет.
func (c *ImageUploadCoordinator) Upload(ctx context.Context, propertyID uuid.UUID, sources []string, hosted []domain.Image) (*UploadBatch, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ImageUploadCoordinator",
		"property_id": propertyID.String(),
	})
	prefix := c.Prefix(propertyID)

	known := make(map[string]domain.Image, len(hosted))
	for _, img := range hosted {
		known[img.URL] = img
	}

	images := make([]domain.Image, len(sources))
	jobs := make([]uploadJob, 0, len(sources))
	var present map[string]struct{}
	var missing []domain.FieldError
	for i, src := range sources {
		if img, ok := known[src]; ok {
			images[i] = img
			continue
		}
		// Объект этого же объявления, но отсутствующий в записи:
		// переиспользуется, только если он еще лежит в хранилище
		if obj, ok := c.store.Recognize(src); ok && strings.HasPrefix(obj.Key, prefix) {
			if present == nil {
				listed, err := c.presentKeys(ctx, prefix)
				if err != nil {
					logger.Error("Failed to list objects by prefix", err, nil)
					return nil, domain.NewStoreError("list property objects", err)
				}
				present = listed
			}
			if _, ok := present[obj.Key]; !ok {
				missing = append(missing, domain.FieldError{
					Field:   fmt.Sprintf("images[%d]", i),
					Message: "image no longer exists in the object store",
				})
				continue
			}
			images[i] = obj.ToImage()
			continue
		}
		jobs = append(jobs, uploadJob{index: i, source: src})
	}
	if len(missing) > 0 {
		logger.Warn("Rejected references to deleted images", port.Fields{"count": len(missing)})
		return nil, domain.NewValidationError(missing...)
	}

	logger.Info("Uploading images", port.Fields{
		"requested": len(sources),
		"new":       len(jobs),
		"reused":    len(sources) - len(jobs),
	})
	if len(jobs) == 0 {
		return &UploadBatch{Images: images, Uploaded: []domain.StoredObject{}}, nil
	}

	outcomes := make([]uploadOutcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job uploadJob) {
			defer wg.Done()
			obj, err := c.store.Upload(ctx, prefix, domain.ImageSource{Raw: job.source})
			outcomes[i] = uploadOutcome{object: obj, err: err}
		}(i, job)
	}
	wg.Wait()

	uploaded := make([]domain.StoredObject, 0, len(jobs))
	failed := 0
	var firstErr error
	for i, out := range outcomes {
		if out.err != nil {
			failed++
			if firstErr == nil {
				firstErr = out.err
			}
			logger.Warn("Image upload failed", port.Fields{"position": jobs[i].index, "error": out.err.Error()})
			continue
		}
		uploaded = append(uploaded, out.object)
		images[jobs[i].index] = out.object.ToImage()
	}

	if failed > 0 {
		c.compensator.Compensate(ctx, domain.Compensation{
			Reason:     domain.ReasonUploadPartialFailure,
			PropertyID: propertyID,
			Objects:    uploaded,
		})
		return nil, &domain.UploadError{Failed: failed, Total: len(jobs), Err: firstErr}
	}

	logger.Info("All images uploaded", port.Fields{"uploaded": len(uploaded)})
	return &UploadBatch{Images: images, Uploaded: uploaded}, nil
}

func (c *ImageUploadCoordinator) presentKeys(ctx context.Context, prefix string) (map[string]struct{}, error) {
	objects, err := c.store.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		keys[obj.Key] = struct{}{}
	}
	return keys, nil
}
