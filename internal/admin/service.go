package admin

import (
	"context"
	"fmt"
	"strings"

	"fvivu/internal/auth"
	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/internal/users"
	"fvivu/pkg/logger"

	"github.com/google/uuid"
)

const temporaryPasswordLength = 12

var ErrCannotBanAdmin = fmt.Errorf("%w: admin accounts cannot be banned", apperror.ErrForbidden)

// TourReviewer is the part of the tour catalog the admin screens need
type TourReviewer interface {
	ListPendingTours(ctx context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]tours.TourResponse, int64, error)
	ReviewTour(ctx context.Context, id string, decision tours.Status) (*tours.Tour, error)
}

// Notifier sends the emails triggered by admin actions
type Notifier interface {
	TourReviewed(ctx context.Context, tour *tours.Tour, partner *users.User) error
	PartnerWelcome(ctx context.Context, partner *users.User, temporaryPassword string) error
}

type Service interface {
	ListUsers(ctx context.Context, filter auth.UserFilter) ([]auth.UserResponse, int64, error)
	CreatePartner(ctx context.Context, req *CreatePartnerRequest) (*auth.UserResponse, error)
	ListPendingTours(ctx context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]tours.TourResponse, int64, error)
	ReviewTour(ctx context.Context, adminID uuid.UUID, tourID string, decision string) (*tours.TourResponse, error)
	BanUser(ctx context.Context, userID string) (*auth.UserResponse, error)
}

type service struct {
	users    auth.Repository
	tours    TourReviewer
	notifier Notifier
	logger   *logger.Logger
}

// NewService creates a new admin service instance
func NewService(userRepo auth.Repository, tourReviewer TourReviewer, notifier Notifier) Service {
	return &service{
		users:    userRepo,
		tours:    tourReviewer,
		notifier: notifier,
		logger:   logger.GetDefault(),
	}
}

func (s *service) ListUsers(ctx context.Context, filter auth.UserFilter) ([]auth.UserResponse, int64, error) {
	if filter.Role != "" && filter.Role != string(users.RoleCustomer) && filter.Role != string(users.RolePartner) {
		return nil, 0, fmt.Errorf("%w: role must be CUSTOMER or PARTNER", apperror.ErrInvalidInput)
	}

	list, total, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]auth.UserResponse, 0, len(list))
	for i := range list {
		items = append(items, auth.ToUserResponse(&list[i]))
	}
	return items, total, nil
}

// CreatePartner opens a partner account with a generated password and mails
// it to the partner. The account stays even if the email cannot be queued.
func (s *service) CreatePartner(ctx context.Context, req *CreatePartnerRequest) (*auth.UserResponse, error) {
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, auth.ErrUserAlreadyExists
	}

	password, err := auth.GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	partner := &users.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       users.NormalizeEmail(req.Email),
		Password:    hashed,
		Role:        users.RolePartner,
		Active:      true,
		Description: req.Description,
		Photo:       req.Photo,
		// the credentials only reach the partner through this address
		EmailConfirmed: true,
	}
	if err := s.users.CreateUser(ctx, partner); err != nil {
		return nil, err
	}

	if err := s.notifier.PartnerWelcome(ctx, partner, password); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to queue partner welcome email", err, map[string]interface{}{
			"partner_id": partner.ID.String(),
		})
	}

	resp := auth.ToUserResponse(partner)
	return &resp, nil
}

func (s *service) ListPendingTours(ctx context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]tours.TourResponse, int64, error) {
	return s.tours.ListPendingTours(ctx, q, partnerID)
}

func (s *service) ReviewTour(ctx context.Context, adminID uuid.UUID, tourID string, decision string) (*tours.TourResponse, error) {
	tour, err := s.tours.ReviewTour(ctx, tourID, tours.Status(strings.ToUpper(decision)))
	if err != nil {
		return nil, err
	}
	s.logger.LogTourReviewed(ctx, tour.ID.String(), string(tour.Status), adminID.String())

	partner, err := s.users.GetUserByID(ctx, tour.PartnerID.String())
	if err != nil {
		s.logger.ErrorWithContext(ctx, "partner not found for reviewed tour", err, map[string]interface{}{
			"tour_id":    tour.ID.String(),
			"partner_id": tour.PartnerID.String(),
		})
	} else if err := s.notifier.TourReviewed(ctx, tour, partner); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to queue tour review email", err, map[string]interface{}{
			"tour_id": tour.ID.String(),
		})
	}

	resp := tour.ToResponse()
	return &resp, nil
}

// BanUser deactivates a customer or partner; admins cannot be banned
func (s *service) BanUser(ctx context.Context, userID string) (*auth.UserResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: invalid user id", apperror.ErrInvalidInput)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == users.RoleAdmin {
		return nil, ErrCannotBanAdmin
	}

	if user.Active {
		if err := s.users.SetActive(ctx, userID, false); err != nil {
			return nil, err
		}
		user.Active = false
	}

	resp := auth.ToUserResponse(user)
	return &resp, nil
}
