package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

// Defaults applied to fields a new catalog entry arrives without
const (
	defaultCategory        = "Sedan"
	defaultPrice           = "0"
	defaultFuelType        = "Gasoline"
	defaultSeatingCapacity = "5"
	defaultImagePrefix     = "/images/products/"
)

// CatalogService is the catalog writer and reader behind the product routes
type CatalogService struct {
	repo   domain.CatalogRepository
	logger zerolog.Logger
	now    func() time.Time

	idMu   sync.Mutex
	lastID int64
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo domain.CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger.With().Str("component", "catalog").Logger(),
		now:    time.Now,
	}
}

// List returns every entry, most recently created first
func (s *CatalogService) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	return s.repo.Load(ctx)
}

// Get returns the entry with id or domain.ErrNotFound
func (s *CatalogService) Get(ctx context.Context, id int64) (domain.CatalogEntry, error) {
	entries, err := s.repo.Load(ctx)
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	if i := indexOf(entries, id); i >= 0 {
		return entries[i], nil
	}
	return domain.CatalogEntry{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
}

// Create adds a new entry built from record at the head of the catalog. An empty image
// defaults to a path derived from the vehicle name.
func (s *CatalogService) Create(ctx context.Context, record domain.VehicleRecord, image string) (domain.CatalogEntry, error) {
	if strings.TrimSpace(record.Name) == "" {
		return domain.CatalogEntry{}, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	entry := domain.EntryFromRecord(record)
	applyDefaults(&entry)
	entry.Image = strings.TrimSpace(image)
	if entry.Image == "" {
		entry.Image = defaultImagePrefix + domain.Slugify(entry.Name) + ".jpg"
	}

	err := s.repo.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		entry.ID = s.nextID(entries)
		return append([]domain.CatalogEntry{entry}, entries...), true, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("name", entry.Name).Msg("failed to create product")
		return domain.CatalogEntry{}, err
	}

	s.logger.Info().Int64("id", entry.ID).Str("name", entry.Name).Msg("product created")
	return entry, nil
}

// Update merges patch into the entry with id, nested groups field by field
func (s *CatalogService) Update(ctx context.Context, id int64, patch domain.CatalogPatch) (domain.CatalogEntry, error) {
	var updated domain.CatalogEntry

	err := s.repo.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return entries, false, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		patch.Apply(&entries[i])
		updated = entries[i]
		return entries, true, nil
	})
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	s.logger.Info().Int64("id", id).Msg("product updated")
	return updated, nil
}

// Delete removes the entry with id and returns it. A missing id leaves the file untouched.
func (s *CatalogService) Delete(ctx context.Context, id int64) (domain.CatalogEntry, error) {
	var removed domain.CatalogEntry

	err := s.repo.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return entries, false, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		removed = entries[i]
		return append(entries[:i:i], entries[i+1:]...), true, nil
	})
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	s.logger.Info().Int64("id", id).Str("name", removed.Name).Msg("product deleted")
	return removed, nil
}

// nextID derives an id from the creation time, bumped past anything already issued or stored
func (s *CatalogService) nextID(entries []domain.CatalogEntry) int64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for _, e := range entries {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	s.lastID = id
	return id
}

func applyDefaults(e *domain.CatalogEntry) {
	setDefault(&e.Category, defaultCategory)
	setDefault(&e.Price, defaultPrice)
	setDefault(&e.Specs.FuelType, defaultFuelType)
	setDefault(&e.Specs.SeatingCapacity, defaultSeatingCapacity)
	if e.Features == nil {
		e.Features = []string{}
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func indexOf(entries []domain.CatalogEntry, id int64) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
