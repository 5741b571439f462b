package admin

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"fvivu/internal/auth"
	"fvivu/internal/shared/utils/query"
	"fvivu/internal/tours"
	"fvivu/internal/users"

	"github.com/google/uuid"
)

type userDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]*users.User
}

func newUserDirectory(seed ...*users.User) *userDirectory {
	d := &userDirectory{users: map[uuid.UUID]*users.User{}}
	for _, u := range seed {
		d.users[u.ID] = u
	}
	return d
}

func (d *userDirectory) CreateUser(_ context.Context, u *users.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	d.users[u.ID] = u
	return nil
}

func (d *userDirectory) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == users.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (d *userDirectory) GetUserByID(_ context.Context, id string) (*users.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrUserNotFound
	}
	u, ok := d.users[uid]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *userDirectory) UpdateUserPassword(context.Context, string, string, time.Time) error {
	return errors.New("not used")
}

func (d *userDirectory) UpdateProfile(context.Context, string, map[string]interface{}) error {
	return errors.New("not used")
}

func (d *userDirectory) SetPasswordReset(context.Context, string, *string, *time.Time) error {
	return errors.New("not used")
}

func (d *userDirectory) ResetPassword(context.Context, string, string, string, time.Time, time.Time) (*users.User, error) {
	return nil, errors.New("not used")
}

func (d *userDirectory) SetConfirmPin(context.Context, string, string, time.Time) error {
	return errors.New("not used")
}

func (d *userDirectory) ConfirmEmail(context.Context, string, string, time.Time) error {
	return errors.New("not used")
}

func (d *userDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := d.GetUserByEmail(ctx, email)
	return err == nil, nil
}

// ListUsers mirrors the repository: admins hidden, oldest first
func (d *userDirectory) ListUsers(_ context.Context, f auth.UserFilter) ([]users.User, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f.ListQuery = query.Normalize(f.ListQuery)

	var out []users.User
	for _, u := range d.users {
		if u.Role == users.RoleAdmin {
			continue
		}
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	total := int64(len(out))
	start := f.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (d *userDirectory) SetActive(_ context.Context, userID string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[uuid.MustParse(userID)]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (d *userDirectory) get(id uuid.UUID) users.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.users[id]
}

type pendingTours struct {
	tours map[uuid.UUID]*tours.Tour
}

func (p *pendingTours) ListPendingTours(_ context.Context, q query.ListQuery, partnerID *uuid.UUID) ([]tours.TourResponse, int64, error) {
	var list []tours.Tour
	for _, t := range p.tours {
		if t.Status != tours.StatusPending {
			continue
		}
		if partnerID != nil && t.PartnerID != *partnerID {
			continue
		}
		list = append(list, *t)
	}
	return tours.ToResponses(list), int64(len(list)), nil
}

func (p *pendingTours) ReviewTour(_ context.Context, id string, decision tours.Status) (*tours.Tour, error) {
	if decision != tours.StatusActive && decision != tours.StatusInactive {
		return nil, errors.New("bad decision")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, tours.ErrTourNotFound
	}
	t, ok := p.tours[uid]
	if !ok {
		return nil, tours.ErrTourNotFound
	}
	if t.Status != tours.StatusPending {
		return nil, tours.ErrTourNotPending
	}
	t.Status = decision
	cp := *t
	return &cp, nil
}

type sentMail struct {
	kind     string
	to       string
	password string
	tour     string
	decision tours.Status
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) TourReviewed(_ context.Context, tour *tours.Tour, partner *users.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "review", to: partner.Email, tour: tour.Name, decision: tour.Status})
	return n.err
}

func (n *recordingNotifier) PartnerWelcome(_ context.Context, partner *users.User, password string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "welcome", to: partner.Email, password: password})
	return n.err
}

func newUser(name, email string, role users.Role, createdAt time.Time) *users.User {
	return &users.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: createdAt,
	}
}
