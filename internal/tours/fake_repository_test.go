package tours

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository is an in-memory Repository for service tests
type memoryRepository struct {
	mu           sync.Mutex
	tours        map[uuid.UUID]*Tour
	openBookings map[uuid.UUID]int64
	bookedDays   map[uuid.UUID][]time.Time
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		tours:        make(map[uuid.UUID]*Tour),
		openBookings: make(map[uuid.UUID]int64),
		bookedDays:   make(map[uuid.UUID][]time.Time),
	}
}

func (m *memoryRepository) Create(_ context.Context, tour *Tour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tours {
		if t.Name == tour.Name {
			return ErrTourNameTaken
		}
	}
	if tour.ID == uuid.Nil {
		tour.ID = uuid.New()
	}
	tour.CreatedAt = time.Now()
	cp := *tour
	m.tours[tour.ID] = &cp
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[id]
	if !ok {
		return nil, ErrTourNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryRepository) List(_ context.Context, f Filter) ([]Tour, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Tour
	for _, t := range m.tours {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.PartnerID != nil && t.PartnerID != *f.PartnerID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepository) Update(_ context.Context, tour *Tour, updates map[string]interface{}, startDates []time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[tour.ID]
	if !ok {
		return ErrTourNotFound
	}
	if startDates != nil {
		for _, day := range m.bookedDays[tour.ID] {
			if !containsDay(startDates, day) {
				return ErrScheduleHasBookings
			}
		}
	}
	for k, v := range updates {
		switch k {
		case "name":
			t.Name = v.(string)
		case "slug":
			t.Slug = v.(string)
		case "price":
			t.Price = v.(int64)
		case "max_group_size":
			t.MaxGroupSize = v.(int)
		case "status":
			t.Status = v.(Status)
		}
	}
	if startDates != nil {
		t.StartDates = nil
		for _, d := range startDates {
			t.StartDates = append(t.StartDates, StartDate{TourID: t.ID, StartDate: d})
		}
	}
	return nil
}

func (m *memoryRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[id]
	if !ok || t.Status != from {
		return ErrTourNotPending
	}
	t.Status = to
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tours[id]; !ok {
		return ErrTourNotFound
	}
	delete(m.tours, id)
	return nil
}

func (m *memoryRepository) CountOpenBookings(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openBookings[id], nil
}
