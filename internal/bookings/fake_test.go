package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"

	"github.com/google/uuid"
)

type tourCatalog map[uuid.UUID]*tours.Tour

func (c tourCatalog) FindTour(_ context.Context, id string) (*tours.Tour, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, tours.ErrTourNotFound
	}
	t, ok := c[tourID]
	if !ok {
		return nil, tours.ErrTourNotFound
	}
	return t, nil
}

func newActiveTour(maxGroupSize int, price int64, days ...time.Time) *tours.Tour {
	t := &tours.Tour{
		ID:           uuid.New(),
		Name:         "Ha Long Bay Explorer",
		MaxGroupSize: maxGroupSize,
		Price:        price,
		Status:       tours.StatusActive,
	}
	for _, d := range days {
		t.StartDates = append(t.StartDates, tours.StartDate{TourID: t.ID, StartDate: d})
	}
	return t
}

// memoryLedger mimics the locked capacity transaction with a mutex
type memoryLedger struct {
	mu       sync.Mutex
	catalog  tourCatalog
	bookings []*Booking
}

func newMemoryLedger(catalog tourCatalog) *memoryLedger {
	return &memoryLedger{catalog: catalog}
}

func (m *memoryLedger) CreateWithCapacityCheck(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour, ok := m.catalog[b.TourID]
	if !ok || !tour.HasStartDate(b.StartDate) {
		return ErrInvalidStartDate
	}
	// same order as the SQL transaction: lock, event lookup, seat sum
	if b.ProviderEventID != nil {
		for _, existing := range m.bookings {
			if existing.ProviderEventID != nil && *existing.ProviderEventID == *b.ProviderEventID {
				return ErrDuplicateProviderEvent
			}
		}
	}
	booked := m.bookedLocked(b.TourID, b.StartDate)
	if booked+b.NumberOfPeople > tour.MaxGroupSize {
		return &CapacityError{Requested: b.NumberOfPeople, Remaining: tour.MaxGroupSize - booked}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.StartDate = tours.NormalizeDay(b.StartDate)
	b.CreatedAt = time.Now()
	cp := *b
	m.bookings = append(m.bookings, &cp)
	return nil
}

func (m *memoryLedger) bookedLocked(tourID uuid.UUID, day time.Time) int {
	total := 0
	for _, b := range m.bookings {
		if b.TourID == tourID && tours.SameDay(b.StartDate, day) && b.Status.HoldsSeats() {
			total += b.NumberOfPeople
		}
	}
	return total
}

func (m *memoryLedger) BookedSeats(_ context.Context, tourID uuid.UUID, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookedLocked(tourID, day), nil
}

func (m *memoryLedger) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *memoryLedger) GetByProviderEventID(_ context.Context, eventID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ProviderEventID != nil && *b.ProviderEventID == eventID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *memoryLedger) ListByUser(_ context.Context, userID uuid.UUID, q query.ListQuery) ([]Booking, int64, error) {
	return m.filter(func(b *Booking) bool { return b.UserID == userID })
}

func (m *memoryLedger) ListByPartner(_ context.Context, partnerID uuid.UUID, q query.ListQuery) ([]Booking, int64, error) {
	return m.filter(func(b *Booking) bool {
		t, ok := m.catalog[b.TourID]
		return ok && t.PartnerID == partnerID
	})
}

func (m *memoryLedger) filter(keep func(*Booking) bool) ([]Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memoryLedger) Cancel(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id && b.Status == StatusPending {
			b.Status = StatusCancelled
			b.CancelledAt = &at
			return nil
		}
	}
	return ErrNotCancellable
}

func (m *memoryLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}
