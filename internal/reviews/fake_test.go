package reviews

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/internal/users"

	"github.com/google/uuid"
)

// memoryRepo keeps reviews in memory and updates the catalog's tours the way
// the SQL recompute does.
type memoryRepo struct {
	mu      sync.Mutex
	reviews []Review
	users   map[uuid.UUID]*users.User
	catalog *fakeCatalog
}

func (m *memoryRepo) Create(_ context.Context, review *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.TourID == review.TourID && r.UserID == review.UserID {
			return ErrAlreadyReviewed
		}
	}
	tour, ok := m.catalog.tours[review.TourID]
	if !ok {
		return tours.ErrTourNotFound
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()
	m.reviews = append(m.reviews, *review)

	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.TourID == review.TourID {
			sum += r.Rating
			n++
		}
	}
	tour.RatingsQuantity = n
	tour.RatingsAverage = math.Round(float64(sum)/float64(n)*10) / 10
	return nil
}

func (m *memoryRepo) ListByTour(_ context.Context, tourID uuid.UUID, q query.ListQuery) ([]Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q = query.Normalize(q)
	var matched []Review
	for _, r := range m.reviews {
		if r.TourID == tourID {
			r.User = m.users[r.UserID]
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeCatalog struct {
	tours       map[uuid.UUID]*tours.Tour
	invalidated []uuid.UUID
}

func (f *fakeCatalog) FindTour(_ context.Context, id string) (*tours.Tour, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, tours.ErrTourNotFound
	}
	tour, ok := f.tours[tourID]
	if !ok {
		return nil, tours.ErrTourNotFound
	}
	return tour, nil
}

func (f *fakeCatalog) InvalidateTour(_ context.Context, tourID uuid.UUID) {
	f.invalidated = append(f.invalidated, tourID)
}

func setup(tourList ...*tours.Tour) (Service, *memoryRepo, *fakeCatalog) {
	catalog := &fakeCatalog{tours: make(map[uuid.UUID]*tours.Tour)}
	for _, t := range tourList {
		catalog.tours[t.ID] = t
	}
	repo := &memoryRepo{users: make(map[uuid.UUID]*users.User), catalog: catalog}
	return NewService(repo, catalog), repo, catalog
}

func newTour() *tours.Tour {
	return &tours.Tour{
		ID:             uuid.New(),
		Name:           "Ha Long Bay Cruise",
		Status:         tours.StatusActive,
		RatingsAverage: DefaultRatingsAverage,
	}
}
