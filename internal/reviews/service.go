package reviews

import (
	"context"
	"fmt"
	"strings"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrAlreadyReviewed = fmt.Errorf("%w: you have already reviewed this tour", apperror.ErrConflict)
	ErrInvalidTourID   = fmt.Errorf("%w: invalid tour id", apperror.ErrInvalidInput)
	ErrEmptyReview     = fmt.Errorf("%w: review text is required", apperror.ErrInvalidInput)
	ErrRatingRange     = fmt.Errorf("%w: rating must be between %d and %d", apperror.ErrInvalidInput, MinRating, MaxRating)
)

// TourCatalog is what reviews need from the tour service: an uncached read
// to check the tour exists and a way to drop its cached views afterwards.
type TourCatalog interface {
	FindTour(ctx context.Context, id string) (*tours.Tour, error)
	InvalidateTour(ctx context.Context, tourID uuid.UUID)
}

type Service interface {
	CreateReview(ctx context.Context, userID uuid.UUID, req *CreateReviewRequest) (*ReviewResponse, error)
	ListTourReviews(ctx context.Context, tourID string, q query.ListQuery) ([]ReviewResponse, int64, error)
}

type service struct {
	repo   Repository
	tours  TourCatalog
	logger *logger.Logger
}

// NewService creates the review service
func NewService(repo Repository, catalog TourCatalog) Service {
	return &service{
		repo:   repo,
		tours:  catalog,
		logger: logger.GetDefault(),
	}
}

// CreateReview stores the caller's review and refreshes the tour's
// ratingsAverage and ratingsQuantity
func (s *service) CreateReview(ctx context.Context, userID uuid.UUID, req *CreateReviewRequest) (*ReviewResponse, error) {
	text := strings.TrimSpace(req.Review)
	if text == "" {
		return nil, ErrEmptyReview
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, ErrRatingRange
	}

	tour, err := s.tours.FindTour(ctx, req.TourID)
	if err != nil {
		return nil, err
	}

	review := &Review{
		TourID: tour.ID,
		UserID: userID,
		Review: text,
		Rating: req.Rating,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	// detail and list views carry the aggregates
	s.tours.InvalidateTour(ctx, tour.ID)
	s.logger.LogReviewPosted(ctx, review.ID.String(), tour.ID.String(), userID.String(), review.Rating)

	resp := ToReviewResponse(review)
	return &resp, nil
}

func (s *service) ListTourReviews(ctx context.Context, tourID string, q query.ListQuery) ([]ReviewResponse, int64, error) {
	id, err := uuid.Parse(tourID)
	if err != nil {
		return nil, 0, ErrInvalidTourID
	}
	list, total, err := s.repo.ListByTour(ctx, id, q)
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(list), total, nil
}
