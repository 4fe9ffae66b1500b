package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fridgemap/internal/events"
	"fridgemap/internal/metrics"
	"fridgemap/internal/models"
	"fridgemap/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrImagesUnavailable is returned when image upload is requested but no object storage is configured.
var ErrImagesUnavailable = errors.New("image storage is not configured")

// FridgeRepository interface for dependency injection
type FridgeRepository interface {
	InsertFridge(ctx context.Context, fridge models.Fridge) (*models.Fridge, error)
	FindFridgeByID(ctx context.Context, id string) (*models.Fridge, error)
	ListFridges(ctx context.Context) ([]models.Fridge, error)
	UpdateFridgeFields(
		ctx context.Context,
		id string,
		loc *models.Location,
		fields map[string]json.RawMessage,
	) (*models.Fridge, error)
	AppendFridgeImage(ctx context.Context, id, url string) (*models.Fridge, error)
}

// ImageStore saves fridge images and returns their public URL.
type ImageStore interface {
	SaveFridgeImage(ctx context.Context, fridgeID string, img storage.Image) (string, error)
}

// FridgeService contains the business rules of the fridge directory
type FridgeService struct {
	repo      FridgeRepository
	publisher events.Publisher
	images    ImageStore
	metrics   *metrics.Metrics
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time
}

// NewFridgeService creates a new fridge service. images may be nil, in which case
// image uploads fail with ErrImagesUnavailable.
func NewFridgeService(
	repo FridgeRepository,
	publisher events.Publisher,
	images ImageStore,
	metrics *metrics.Metrics,
	log zerolog.Logger,
) *FridgeService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &FridgeService{
		repo:      repo,
		publisher: publisher,
		images:    images,
		metrics:   metrics,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
		now:       time.Now,
	}
}

// CreateFridge validates and stores a new fridge. The identifier is assigned by the store.
func (s *FridgeService) CreateFridge(ctx context.Context, fridge models.Fridge) (*models.Fridge, error) {
	if fridge.ID != "" || !fridge.CreatedAt.IsZero() || !fridge.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("service: %w: id and timestamps are assigned by the store", models.ErrValidation)
	}
	for k := range fridge.Fields {
		if k == "" || models.IsReservedKey(k) {
			return nil, fmt.Errorf("service: %w: field name %q is not allowed", models.ErrValidation, k)
		}
	}
	if err := s.validate.Struct(fridge); err != nil {
		return nil, fmt.Errorf("service: %w: %s", models.ErrValidation, describe(err))
	}

	stored, err := s.repo.InsertFridge(ctx, fridge)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create fridge: %w", err)
	}

	s.metrics.FridgeMutations.WithLabelValues("create").Inc()
	s.publish(ctx, events.FridgeCreated, stored)
	return stored, nil
}

// GetFridgeByID returns a single fridge. Malformed identifiers are reported as not found.
func (s *FridgeService) GetFridgeByID(ctx context.Context, id string) (*models.Fridge, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	fridge, err := s.repo.FindFridgeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get fridge: %w", err)
	}
	return fridge, nil
}

// ListFridges returns every fridge in the directory.
func (s *FridgeService) ListFridges(ctx context.Context) ([]models.Fridge, error) {
	fridges, err := s.repo.ListFridges(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list fridges: %w", err)
	}
	return fridges, nil
}

// UpdateFridgeField applies a partial update. Fields absent from delta are left untouched.
func (s *FridgeService) UpdateFridgeField(
	ctx context.Context,
	id string,
	delta models.FieldDelta,
) (*models.Fridge, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	loc, fields, err := delta.Split()
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if loc != nil {
		if err := s.validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("service: %w: %s", models.ErrValidation, describe(err))
		}
	}

	updated, err := s.repo.UpdateFridgeFields(ctx, id, loc, fields)
	if err != nil {
		return nil, fmt.Errorf("service: failed to update fridge: %w", err)
	}

	s.metrics.FridgeMutations.WithLabelValues("update").Inc()
	s.publish(ctx, events.FridgeUpdated, updated)
	return updated, nil
}

// AddFridgeImage stores an image and appends its URL to the fridge's images field.
// The append happens in the store, so concurrent uploads all keep their URL.
func (s *FridgeService) AddFridgeImage(ctx context.Context, id string, img storage.Image) (*models.Fridge, error) {
	if s.images == nil {
		return nil, ErrImagesUnavailable
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	fridge, err := s.repo.FindFridgeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get fridge: %w", err)
	}
	if _, err := fridge.Images(); err != nil {
		return nil, fmt.Errorf("service: %w: %v", models.ErrValidation, err)
	}

	url, err := s.images.SaveFridgeImage(ctx, id, img)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, fmt.Errorf("service: %w: %v", models.ErrValidation, err)
		}
		return nil, fmt.Errorf("service: failed to save image: %w", err)
	}

	updated, err := s.repo.AppendFridgeImage(ctx, id, url)
	if err != nil {
		s.log.Warn().Err(err).Str("fridge_id", id).Str("url", url).Msg("image stored but not linked to fridge")
		return nil, fmt.Errorf("service: failed to add image: %w", err)
	}

	s.metrics.FridgeMutations.WithLabelValues("update").Inc()
	s.publish(ctx, events.FridgeUpdated, updated)
	return updated, nil
}

func (s *FridgeService) publish(ctx context.Context, typ events.Type, fridge *models.Fridge) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       typ,
		FridgeID:   fridge.ID,
		OccurredAt: s.now().UTC(),
		Fridge:     fridge,
	})
	if err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.log.Warn().Err(err).Str("fridge_id", fridge.ID).Str("type", string(typ)).Msg("failed to publish fridge event")
	}
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("service: %w: %s", models.ErrNotFound, id)
	}
	return nil
}

// describe turns validator errors into a short, client-facing message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
}
