package tours

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/constants"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/users"
	"fvivu/pkg/cache"
	"fvivu/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrTourNotFound    = fmt.Errorf("tour %w", apperror.ErrNotFound)
	ErrTourNameTaken   = fmt.Errorf("%w: a tour with this name already exists", apperror.ErrConflict)
	ErrNotTourOwner    = fmt.Errorf("%w: you can only manage your own tours", apperror.ErrForbidden)
	ErrTourHasBookings = fmt.Errorf("%w: tour has active bookings", apperror.ErrConflict)
	ErrTourNotPending  = fmt.Errorf("%w: tour is not awaiting review", apperror.ErrConflict)

	ErrScheduleHasBookings = fmt.Errorf("%w: start date still has bookings", apperror.ErrConflict)
)

// Service interface defines the tour catalog operations
type Service interface {
	ListTours(ctx context.Context, q query.ListQuery) ([]TourResponse, int64, error)
	GetTour(ctx context.Context, id string) (*TourResponse, error)
	// FindTour reads the tour straight from the database, bypassing the cache
	FindTour(ctx context.Context, id string) (*Tour, error)
	GetStartDates(ctx context.Context, id string) (*StartDatesResponse, error)
	CreateTour(ctx context.Context, partnerID uuid.UUID, req *CreateTourRequest) (*TourResponse, error)
	ListPartnerTours(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]TourResponse, int64, error)
	UpdateTour(ctx context.Context, actor users.Actor, id string, req *UpdateTourRequest) (*TourResponse, error)
	DeleteTour(ctx context.Context, actor users.Actor, id string) error
	ListPendingTours(ctx context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]TourResponse, int64, error)
	ReviewTour(ctx context.Context, id string, decision Status) (*Tour, error)
	InvalidateTour(ctx context.Context, tourID uuid.UUID)
}

type service struct {
	repo   Repository
	cache  cache.Service
	logger *logger.Logger
}

// NewService creates a new tour service instance
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:   repo,
		cache:  cacheService,
		logger: logger.GetDefault(),
	}
}

type tourPage struct {
	Items []TourResponse `json:"items"`
	Total int64          `json:"total"`
}

// ListTours returns a page of ACTIVE tours, cached per page and search
func (s *service) ListTours(ctx context.Context, q query.ListQuery) ([]TourResponse, int64, error) {
	q = query.Normalize(q)
	key := constants.BuildTourListKey(q.Page, q.Limit, strings.ToLower(q.Search))

	var page tourPage
	err := s.cache.GetOrSet(ctx, key, constants.TTL_TOUR_LIST, func() (interface{}, error) {
		list, total, err := s.repo.List(ctx, Filter{ListQuery: q, Status: StatusActive})
		if err != nil {
			return nil, err
		}
		return tourPage{Items: ToResponses(list), Total: total}, nil
	}, &page)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (s *service) GetTour(ctx context.Context, id string) (*TourResponse, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTourNotFound
	}

	var resp TourResponse
	err = s.cache.GetOrSet(ctx, constants.BuildTourDetailKey(tourID.String()), constants.TTL_TOUR_DETAIL, func() (interface{}, error) {
		tour, err := s.repo.GetByID(ctx, tourID)
		if err != nil {
			return nil, err
		}
		return tour.ToResponse(), nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) FindTour(ctx context.Context, id string) (*Tour, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTourNotFound
	}
	return s.repo.GetByID(ctx, tourID)
}

func (s *service) GetStartDates(ctx context.Context, id string) (*StartDatesResponse, error) {
	tourID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTourNotFound
	}

	var resp StartDatesResponse
	err = s.cache.GetOrSet(ctx, constants.BuildTourStartDatesKey(tourID.String()), constants.TTL_TOUR_START_DATES, func() (interface{}, error) {
		tour, err := s.repo.GetByID(ctx, tourID)
		if err != nil {
			return nil, err
		}
		return StartDatesResponse{TourID: tour.ID.String(), StartDates: tour.ToResponse().StartDates}, nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTour submits a partner's tour for admin review
func (s *service) CreateTour(ctx context.Context, partnerID uuid.UUID, req *CreateTourRequest) (*TourResponse, error) {
	days, err := parseSchedule(req.StartDates)
	if err != nil {
		return nil, err
	}

	tour := &Tour{
		Name:          strings.TrimSpace(req.Name),
		Summary:       strings.TrimSpace(req.Summary),
		Description:   strings.TrimSpace(req.Description),
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		ImageCover:    req.ImageCover,
		Images:        StringList(req.Images),
		Status:        StatusPending,
		PartnerID:     partnerID,
	}
	tour.Slug = Slugify(tour.Name)
	for _, d := range days {
		tour.StartDates = append(tour.StartDates, StartDate{StartDate: d})
	}

	if err := s.repo.Create(ctx, tour); err != nil {
		return nil, err
	}

	s.logger.LogTourCreated(ctx, tour.ID.String(), partnerID.String())
	resp := tour.ToResponse()
	return &resp, nil
}

func (s *service) ListPartnerTours(ctx context.Context, partnerID uuid.UUID, q query.ListQuery) ([]TourResponse, int64, error) {
	q = query.Normalize(q)
	list, total, err := s.repo.List(ctx, Filter{ListQuery: q, PartnerID: &partnerID})
	if err != nil {
		return nil, 0, err
	}
	return ToResponses(list), total, nil
}

// UpdateTour applies a partial update. Partner edits send the tour back
// to PENDING for another review.
func (s *service) UpdateTour(ctx context.Context, actor users.Actor, id string, req *UpdateTourRequest) (*TourResponse, error) {
	tour, err := s.FindTour(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, tour); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		updates["name"] = name
		updates["slug"] = Slugify(name)
	}
	if req.Summary != nil {
		updates["summary"] = strings.TrimSpace(*req.Summary)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.MaxGroupSize != nil {
		updates["max_group_size"] = *req.MaxGroupSize
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.PriceDiscount != nil {
		updates["price_discount"] = *req.PriceDiscount
	}
	if req.ImageCover != nil {
		updates["image_cover"] = *req.ImageCover
	}
	if req.Images != nil {
		updates["images"] = StringList(req.Images)
	}

	var days []time.Time
	if req.StartDates != nil {
		if days, err = parseSchedule(*req.StartDates); err != nil {
			return nil, err
		}
	}

	// Partner edits go back through admin review
	if actor.Role == users.RolePartner && (len(updates) > 0 || days != nil) {
		updates["status"] = StatusPending
	}

	if err := s.repo.Update(ctx, tour, updates, days); err != nil {
		return nil, err
	}
	s.InvalidateTour(ctx, tour.ID)

	updated, err := s.repo.GetByID(ctx, tour.ID)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

// DeleteTour removes a tour that has no open bookings
func (s *service) DeleteTour(ctx context.Context, actor users.Actor, id string) error {
	tour, err := s.FindTour(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, tour); err != nil {
		return err
	}

	open, err := s.repo.CountOpenBookings(ctx, tour.ID)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrTourHasBookings
	}

	if err := s.repo.Delete(ctx, tour.ID); err != nil {
		return err
	}
	s.InvalidateTour(ctx, tour.ID)
	return nil
}

func (s *service) ListPendingTours(ctx context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]TourResponse, int64, error) {
	q = query.Normalize(q)
	list, total, err := s.repo.List(ctx, Filter{ListQuery: q, Status: StatusPending, PartnerID: partnerID})
	if err != nil {
		return nil, 0, err
	}
	return ToResponses(list), total, nil
}

// ReviewTour records an admin decision on a pending tour
func (s *service) ReviewTour(ctx context.Context, id string, decision Status) (*Tour, error) {
	if decision != StatusActive && decision != StatusInactive {
		return nil, fmt.Errorf("%w: decision must be ACTIVE or INACTIVE", apperror.ErrInvalidInput)
	}

	tour, err := s.FindTour(ctx, id)
	if err != nil {
		return nil, err
	}
	if tour.Status != StatusPending {
		return nil, ErrTourNotPending
	}

	if err := s.repo.TransitionStatus(ctx, tour.ID, StatusPending, decision); err != nil {
		return nil, err
	}
	tour.Status = decision
	s.InvalidateTour(ctx, tour.ID)
	return tour, nil
}

// InvalidateTour drops every cached view of a tour
func (s *service) InvalidateTour(ctx context.Context, tourID uuid.UUID) {
	id := tourID.String()
	if err := s.cache.Delete(ctx, constants.BuildTourDetailKey(id), constants.BuildTourStartDatesKey(id)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate tour cache", "tour_id", id, "error", err)
	}
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_TOURS_LIST); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate tour list cache", "error", err)
	}
}

func authorize(actor users.Actor, tour *Tour) error {
	switch actor.Role {
	case users.RoleAdmin:
		return nil
	case users.RolePartner:
		if tour.PartnerID == actor.ID {
			return nil
		}
	}
	return ErrNotTourOwner
}

// parseSchedule parses and de-duplicates start dates by calendar day
func parseSchedule(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one start date is required", apperror.ErrInvalidInput)
	}
	seen := make(map[time.Time]bool, len(raw))
	days := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, err := ParseStartDate(r)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}
