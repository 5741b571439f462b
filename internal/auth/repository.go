package auth

import (
	"context"
	"errors"
	"time"

	"fvivu/internal/shared/utils/query"
	"fvivu/internal/users"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserFilter narrows the admin user listing. Admin accounts are never listed.
type UserFilter struct {
	query.ListQuery
	Role   string
	Active *bool
}

type Repository interface {
	CreateUser(ctx context.Context, user *users.User) error
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)
	UpdateUserPassword(ctx context.Context, userID string, hashedPassword string, changedAt time.Time) error
	EmailExists(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]users.User, int64, error)
	SetActive(ctx context.Context, userID string, active bool) error

	UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error
	// SetPasswordReset stores a reset token digest; nil values clear it
	SetPasswordReset(ctx context.Context, userID string, tokenHash *string, expires *time.Time) error
	// ResetPassword swaps the password if the digest matches an unexpired
	// token, consuming the token in the same statement
	ResetPassword(ctx context.Context, email, tokenHash, hashedPassword string, now, changedAt time.Time) (*users.User, error)
	SetConfirmPin(ctx context.Context, userID string, pinHash string, expires time.Time) error
	ConfirmEmail(ctx context.Context, userID string, pinHash string, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateUser(ctx context.Context, user *users.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserAlreadyExists
	}
	return err
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Where("email = ?", users.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateUserPassword(ctx context.Context, userID string, hashedPassword string, changedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":            hashedPassword,
			"password_changed_at": changedAt,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", users.NormalizeEmail(email)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListUsers(ctx context.Context, filter UserFilter) ([]users.User, int64, error) {
	filter.ListQuery = query.Normalize(filter.ListQuery)

	base := r.db.WithContext(ctx).Model(&users.User{}).Where("role <> ?", users.RoleAdmin)
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		base = base.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		pattern := filter.SearchPattern()
		base = base.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []users.User
	err := base.Order("created_at ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&list).Error
	return list, total, err
}

func (r *repository) SetActive(ctx context.Context, userID string, active bool) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) SetPasswordReset(ctx context.Context, userID string, tokenHash *string, expires *time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_reset_hash":    tokenHash,
			"password_reset_expires": expires,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) ResetPassword(ctx context.Context, email, tokenHash, hashedPassword string, now, changedAt time.Time) (*users.User, error) {
	var user users.User
	result := r.db.WithContext(ctx).Model(&user).
		Clauses(clause.Returning{}).
		Where("email = ? AND password_reset_hash = ? AND password_reset_expires > ?", users.NormalizeEmail(email), tokenHash, now).
		Updates(map[string]interface{}{
			"password":               hashedPassword,
			"password_changed_at":    changedAt,
			"password_reset_hash":    nil,
			"password_reset_expires": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	// a wrong, expired or already used token matches no row
	if result.RowsAffected == 0 {
		return nil, ErrInvalidResetToken
	}
	return &user, nil
}

func (r *repository) SetConfirmPin(ctx context.Context, userID string, pinHash string, expires time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ? AND email_confirmed = ?", userID, false).
		Updates(map[string]interface{}{
			"confirm_pin_hash":    pinHash,
			"confirm_pin_expires": expires,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmailAlreadyConfirmed
	}
	return nil
}

func (r *repository) ConfirmEmail(ctx context.Context, userID string, pinHash string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ? AND confirm_pin_hash = ? AND confirm_pin_expires > ?", userID, pinHash, now).
		Updates(map[string]interface{}{
			"email_confirmed":     true,
			"confirm_pin_hash":    nil,
			"confirm_pin_expires": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidPin
	}
	return nil
}
