package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// BackgroundCompensator удаляет объекты в фоне, не задерживая ответ клиенту.
// Повторных попыток нет: неудачи только логируются.
type BackgroundCompensator struct {
	store         port.ObjectStorePort
	deleteTimeout time.Duration
	wg            sync.WaitGroup
}

func NewBackgroundCompensator(store port.ObjectStorePort, deleteTimeout time.Duration) *BackgroundCompensator {
	return &BackgroundCompensator{store: store, deleteTimeout: deleteTimeout}
}

// Compensate запускает удаление и сразу возвращает управление.
func (c *BackgroundCompensator) Compensate(ctx context.Context, comp domain.Compensation) {
	objects := make([]domain.StoredObject, 0, len(comp.Objects))
	for _, obj := range comp.Objects {
		if obj.Key != "" {
			objects = append(objects, obj)
		}
	}
	if len(objects) == 0 {
		return
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "BackgroundCompensator",
		"reason":      string(comp.Reason),
		"property_id": comp.PropertyID.String(),
		"objects":     len(objects),
	})
	// Запрос может завершиться раньше удаления, поэтому отвязываемся от его отмены
	bgCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(bgCtx, logger, objects)
	}()
}

func (c *BackgroundCompensator) run(ctx context.Context, logger port.LoggerPort, objects []domain.StoredObject) {
	logger.Debug("Compensation started", nil)

	var wg sync.WaitGroup
	var failed atomic.Int32
	for _, obj := range objects {
		wg.Add(1)
		go func(obj domain.StoredObject) {
			defer wg.Done()
			delCtx := ctx
			if c.deleteTimeout > 0 {
				var cancel context.CancelFunc
				delCtx, cancel = context.WithTimeout(ctx, c.deleteTimeout)
				defer cancel()
			}
			if err := c.store.Delete(delCtx, obj.Key); err != nil {
				failed.Add(1)
				logger.Warn("Compensating delete failed", port.Fields{"key": obj.Key, "error": err.Error()})
			}
		}(obj)
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		logger.Warn("Compensation finished with failures", port.Fields{"failed": n})
		return
	}
	logger.Info("Compensation finished", nil)
}

// Wait дожидается фоновых удалений или истечения ctx. Используется при остановке приложения.
func (c *BackgroundCompensator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
