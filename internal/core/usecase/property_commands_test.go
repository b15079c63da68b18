package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"listing-service/internal/adapters/memory"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type commandsEnv struct {
	repo        *faultyRepo
	store       *fakeStore
	compensator *BackgroundCompensator
	events      *recordingEvents
	cache       *recordingCache
	owner       uuid.UUID

	create       *CreatePropertyUseCase
	update       *UpdatePropertyUseCase
	delete       *DeletePropertyUseCase
	availability *UpdateAvailabilityUseCase
	status       *UpdateStatusUseCase
	getByID      *GetPropertyByIDUseCase
}

func newCommandsEnv() *commandsEnv {
	env := &commandsEnv{
		repo:   &faultyRepo{PropertyRepository: memory.NewPropertyRepository()},
		store:  newFakeStore(),
		events: &recordingEvents{},
		cache:  newRecordingCache(),
		owner:  uuid.New(),
	}
	env.repo.AddOwner(env.owner)
	env.compensator = NewBackgroundCompensator(env.store, time.Second)
	uploader := NewImageUploadCoordinator(env.store, env.compensator, "properties")
	v := validation.New(domain.DefaultAmenityCatalog())

	env.create = NewCreatePropertyUseCase(env.repo, uploader, env.compensator, v, env.events)
	env.update = NewUpdatePropertyUseCase(env.repo, uploader, env.compensator, v, env.cache, env.events)
	env.delete = NewDeletePropertyUseCase(env.repo, env.store, uploader, env.compensator, env.cache, env.events)
	env.availability = NewUpdateAvailabilityUseCase(env.update)
	env.status = NewUpdateStatusUseCase(env.update)
	env.getByID = NewGetPropertyByIDUseCase(env.repo, env.cache)
	return env
}

// settle дожидается фоновых удалений
func (e *commandsEnv) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.compensator.Wait(ctx))
}

func (e *commandsEnv) input(images ...string) domain.CreatePropertyInput {
	return domain.CreatePropertyInput{
		Title:       "Casa del Rio",
		Description: "Riverside house",
		Price:       150,
		Address:     "Calle 1",
		City:        "Lujan",
		Country:     "Argentina",
		Amenities:   []string{"wifi"},
		Images:      images,
		Bedrooms:    2,
		Bathrooms:   1,
		MaxGuests:   4,
		OwnerID:     e.owner,
	}
}

// seed сохраняет запись с уже размещенными изображениями
func (e *commandsEnv) seed(t *testing.T, names ...string) domain.Property {
	t.Helper()
	id := uuid.New()
	images := make([]domain.Image, 0, len(names))
	for _, n := range names {
		images = append(images, e.store.put("properties/"+id.String()+"/"+n))
	}
	now := time.Now().UTC()
	p := domain.Property{
		ID: id, Title: "Seeded", Description: "d", Price: 100, Address: "a", City: "Lujan", Country: "Argentina",
		Amenities: []string{}, Images: images, Bedrooms: 1, Bathrooms: 1, MaxGuests: 2, OwnerID: e.owner,
		Status: domain.StatusAvailable, Availability: []domain.AvailabilityRange{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.repo.Insert(context.Background(), p))
	return p
}

func (e *commandsEnv) count(t *testing.T) int {
	t.Helper()
	page, err := e.repo.Query(context.Background(), domain.PropertyQuery{})
	require.NoError(t, err)
	return page.Total
}

func TestCreateProperty_Success(t *testing.T) {
	env := newCommandsEnv()

	p, err := env.create.Execute(context.Background(), env.input("https://img.test/a.jpg", "https://img.test/b.jpg"))
	require.NoError(t, err)

	require.Equal(t, domain.StatusAvailable, p.Status)
	require.Len(t, p.Images, 2)
	require.Equal(t, "properties/"+p.ID.String()+"/a.jpg", p.Images[0].Key)
	require.Equal(t, "properties/"+p.ID.String()+"/b.jpg", p.Images[1].Key)
	require.Equal(t, p.CreatedAt, p.UpdatedAt)

	stored, err := env.repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Images, stored.Images)
	require.Equal(t, []domain.PropertyEventType{domain.EventPropertyCreated}, env.events.types())
}

func TestCreateProperty_PartialUploadFailureLeavesNoRecord(t *testing.T) {
	env := newCommandsEnv()
	env.store.fail["https://img.test/bad.jpg"] = true

	_, err := env.create.Execute(context.Background(),
		env.input("https://img.test/a.jpg", "https://img.test/bad.jpg", "https://img.test/c.jpg"))

	var uploadErr *domain.UploadError
	require.True(t, errors.As(err, &uploadErr))
	require.Equal(t, 1, uploadErr.Failed)
	require.Equal(t, 3, uploadErr.Total)

	env.settle(t)
	require.Zero(t, env.count(t))
	require.Len(t, env.store.deletedKeys(), 2)
	require.Empty(t, env.events.types())
}

func TestCreateProperty_UnknownOwnerCompensates(t *testing.T) {
	env := newCommandsEnv()
	in := env.input("https://img.test/a.jpg")
	in.OwnerID = uuid.New()

	_, err := env.create.Execute(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrOwnerNotFound)

	env.settle(t)
	require.Zero(t, env.count(t))
	require.Len(t, env.store.deletedKeys(), 1)
}

func TestCreateProperty_ValidationRunsBeforeUpload(t *testing.T) {
	env := newCommandsEnv()
	in := env.input("https://img.test/a.jpg")
	in.Amenities = []string{"wifi", "helipad"}

	_, err := env.create.Execute(context.Background(), in)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"helipad"}, verr.Details["invalid_amenities"])
	require.Zero(t, env.store.uploadCount())
}

func TestUpdateProperty_ReplacesChangedImagesOnly(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg", "b.jpg")
	a, b := seeded.Images[0], seeded.Images[1]

	sources := []string{b.URL, "https://img.test/c.jpg"}
	updated, err := env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Images: &sources})
	require.NoError(t, err)

	require.Equal(t, 1, env.store.uploadCount())
	require.Equal(t, b, updated.Images[0])
	require.Equal(t, "properties/"+seeded.ID.String()+"/c.jpg", updated.Images[1].Key)

	env.settle(t)
	require.Equal(t, []string{a.Key}, env.store.deletedKeys())
	require.True(t, env.store.has(b.Key))
	require.Equal(t, []uuid.UUID{seeded.ID}, env.cache.invalidated)
	require.Equal(t, []domain.PropertyEventType{domain.EventPropertyUpdated}, env.events.types())
}

func TestUpdateProperty_SameImagesNoStorageTraffic(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg", "b.jpg")

	sources := seeded.ImageURLs()
	title := "Renamed"
	updated, err := env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Title: &title, Images: &sources})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, seeded.Images, updated.Images)

	env.settle(t)
	require.Zero(t, env.store.uploadCount())
	require.Empty(t, env.store.deletedKeys())
}

func TestUpdateProperty_NotFoundAndEmptyPatch(t *testing.T) {
	env := newCommandsEnv()
	title := "x"

	_, err := env.update.Execute(context.Background(), uuid.New(), domain.UpdatePropertyInput{Title: &title})
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)

	seeded := env.seed(t)
	_, err = env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestUpdateProperty_UploadFailureKeepsRecord(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg")
	env.store.fail["https://img.test/bad.jpg"] = true

	sources := []string{"https://img.test/ok.jpg", "https://img.test/bad.jpg"}
	_, err := env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Images: &sources})
	require.ErrorIs(t, err, domain.ErrUploadFailed)

	env.settle(t)
	stored, err := env.repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, seeded.Images, stored.Images)
	require.True(t, env.store.has(seeded.Images[0].Key))
	require.Equal(t, []string{"properties/" + seeded.ID.String() + "/ok.jpg"}, env.store.deletedKeys())
}

func TestUpdateAvailabilityAndStatus(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t)

	ranges := []domain.AvailabilityRange{{StartDate: "2025-01-01", EndDate: "2025-01-10", IsAvailable: true}}
	p, err := env.availability.Execute(context.Background(), seeded.ID, ranges)
	require.NoError(t, err)
	require.Equal(t, ranges, p.Availability)

	_, err = env.availability.Execute(context.Background(), seeded.ID,
		[]domain.AvailabilityRange{{StartDate: "2025-01-10", EndDate: "2025-01-01"}})
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	p, err = env.status.Execute(context.Background(), seeded.ID, domain.StatusMaintenance)
	require.NoError(t, err)
	require.Equal(t, domain.StatusMaintenance, p.Status)
	require.Equal(t, ranges, p.Availability)

	_, err = env.status.Execute(context.Background(), seeded.ID, "closed")
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestDeleteProperty_RemovesRecordThenImages(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg", "b.jpg")
	stray := env.store.put("properties/" + seeded.ID.String() + "/orphan.jpg")
	other := env.store.put("properties/" + uuid.New().String() + "/keep.jpg")

	require.NoError(t, env.delete.Execute(context.Background(), seeded.ID))

	_, err := env.repo.GetByID(context.Background(), seeded.ID)
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)

	env.settle(t)
	require.ElementsMatch(t, []string{seeded.Images[0].Key, seeded.Images[1].Key, stray.Key}, env.store.deletedKeys())
	require.True(t, env.store.has(other.Key))
	require.Equal(t, []uuid.UUID{seeded.ID}, env.cache.invalidated)
	require.Equal(t, []domain.PropertyEventType{domain.EventPropertyDeleted}, env.events.types())

	err = env.delete.Execute(context.Background(), seeded.ID)
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestDeleteProperty_ListFailureStillDeletesKnownImages(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg")
	env.store.listErr = errors.New("listing unavailable")

	require.NoError(t, env.delete.Execute(context.Background(), seeded.ID))
	env.settle(t)
	require.Equal(t, []string{seeded.Images[0].Key}, env.store.deletedKeys())
}

func TestEventFailureDoesNotFailCommand(t *testing.T) {
	env := newCommandsEnv()
	env.events.err = errors.New("broker down")

	p, err := env.create.Execute(context.Background(), env.input())
	require.NoError(t, err)
	require.Equal(t, 1, env.count(t))
	require.NotNil(t, p)
}

func TestGetPropertyByID_UsesCache(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t)

	p, err := env.getByID.Execute(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, p.ID)

	// запись исчезла из хранилища, но осталась в кэше
	require.NoError(t, env.repo.Delete(context.Background(), seeded.ID))
	p, err = env.getByID.Execute(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, p.ID)

	_, err = env.getByID.Execute(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestCreateProperty_InsertFailureCompensatesUploads(t *testing.T) {
	env := newCommandsEnv()
	env.repo.insertErr = domain.NewStoreError("insert property", errors.New("connection reset"))

	_, err := env.create.Execute(context.Background(), env.input("https://img.test/a.jpg", "https://img.test/b.jpg"))
	require.ErrorIs(t, err, domain.ErrStoreFailure)
	require.Equal(t, domain.KindStoreFailure, domain.KindOf(err))

	env.settle(t)
	require.Zero(t, env.count(t))
	require.Len(t, env.store.deletedKeys(), 2)
	left, err := env.store.ListByPrefix(context.Background(), "properties/")
	require.NoError(t, err)
	require.Empty(t, left)
	require.Empty(t, env.events.types())
}

func TestCreateProperty_OwnerLookupFailureCompensates(t *testing.T) {
	env := newCommandsEnv()
	env.repo.ownerErr = errors.New("users table unavailable")

	_, err := env.create.Execute(context.Background(), env.input("https://img.test/a.jpg"))
	require.Equal(t, domain.KindStoreFailure, domain.KindOf(err))
	var storeErr *domain.StoreError
	require.True(t, errors.As(err, &storeErr))

	env.settle(t)
	require.Zero(t, env.count(t))
	require.Len(t, env.store.deletedKeys(), 1)
}

func TestUpdateProperty_RecordWriteFailureRemovesOnlyNewUploads(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg", "b.jpg")
	a, b := seeded.Images[0], seeded.Images[1]
	env.repo.updateErr = domain.NewStoreError("update property", errors.New("deadlock detected"))

	sources := []string{b.URL, "https://img.test/c.jpg"}
	_, err := env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Images: &sources})
	require.ErrorIs(t, err, domain.ErrStoreFailure)

	env.settle(t)
	require.Equal(t, []string{"properties/" + seeded.ID.String() + "/c.jpg"}, env.store.deletedKeys())
	require.True(t, env.store.has(a.Key))
	require.True(t, env.store.has(b.Key))

	stored, err := env.repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, seeded.Images, stored.Images)
	require.Empty(t, env.cache.invalidated)
	require.Empty(t, env.events.types())
}

func TestUpdateProperty_RemovedImageCannotBeReadded(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg")
	a := seeded.Images[0]

	none := []string{}
	_, err := env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Images: &none})
	require.NoError(t, err)
	env.settle(t)
	require.False(t, env.store.has(a.Key))

	stale := []string{a.URL}
	_, err = env.update.Execute(context.Background(), seeded.ID, domain.UpdatePropertyInput{Images: &stale})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "images[0]", verr.Fields[0].Field)
	require.Zero(t, env.store.uploadCount())

	stored, err := env.repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Images)
}

func TestDeleteProperty_ImageDeleteFailuresDoNotFailDelete(t *testing.T) {
	env := newCommandsEnv()
	seeded := env.seed(t, "a.jpg", "b.jpg")
	env.store.deleteErr = errors.New("access denied")

	require.NoError(t, env.delete.Execute(context.Background(), seeded.ID))

	_, err := env.repo.GetByID(context.Background(), seeded.ID)
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)

	env.settle(t)
	require.ElementsMatch(t, []string{seeded.Images[0].Key, seeded.Images[1].Key}, env.store.deletedKeys())
	require.Equal(t, []domain.PropertyEventType{domain.EventPropertyDeleted}, env.events.types())
}
