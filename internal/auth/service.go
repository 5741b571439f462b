package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fvivu/internal/shared/apperror"
	"fvivu/internal/shared/config"
	"fvivu/internal/users"
	"fvivu/pkg/logger"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect email or password", apperror.ErrUnauthorized)
	ErrUserNotFound       = fmt.Errorf("user %w", apperror.ErrNotFound)
	ErrUserAlreadyExists  = fmt.Errorf("%w: email is already in use", apperror.ErrConflict)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", apperror.ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account has been disabled", apperror.ErrForbidden)

	ErrInvalidResetToken     = fmt.Errorf("%w: reset token is invalid or has expired", apperror.ErrInvalidInput)
	ErrInvalidPin            = fmt.Errorf("%w: confirmation PIN is invalid or has expired", apperror.ErrInvalidInput)
	ErrEmailAlreadyConfirmed = fmt.Errorf("%w: email is already confirmed", apperror.ErrConflict)
	ErrPasswordInProfile     = fmt.Errorf("%w: passwords cannot be changed here, use /auth/update-password", apperror.ErrInvalidInput)
	ErrEmptyProfileUpdate    = fmt.Errorf("%w: nothing to update", apperror.ErrInvalidInput)
)

// Notifier sends the account emails. Implemented by the notification publisher.
type Notifier interface {
	EmailConfirmation(ctx context.Context, user *users.User, pin string, ttl time.Duration) error
	PasswordReset(ctx context.Context, user *users.User, token string, ttl time.Duration) error
	Welcome(ctx context.Context, user *users.User) error
}

type Service interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	UpdatePassword(ctx context.Context, userID string, req *UpdatePasswordRequest) (*TokenPair, error)
	GetProfile(ctx context.Context, userID string) (*UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*UserResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*AuthResponse, error)
	ConfirmEmail(ctx context.Context, userID, pin string) (*UserResponse, error)
	ResendConfirmation(ctx context.Context, userID string) error
	ValidateToken(tokenString string) (*JWTClaims, error)
}

type service struct {
	repo     Repository
	config   *config.Config
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates the auth service. The notifier delivers confirmation
// PINs and password reset links.
func NewService(repo Repository, cfg *config.Config, notifier Notifier) Service {
	return &service{
		repo:     repo,
		config:   cfg,
		notifier: notifier,
		logger:   logger.GetDefault(),
		now:      time.Now,
	}
}

// Signup creates a customer account and mails a PIN to confirm the address.
// The account can log in straight away.

func (s *service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	pin, err := newConfirmPin()
	if err != nil {
		return nil, err
	}

	user := &users.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    users.NormalizeEmail(req.Email),
		Password: hashedPassword,
		Role:     users.RoleCustomer,
		Active:   true,
	}
	// the PIN digest is keyed on the id, so it is assigned here
	pinHash := digest(s.config.JWT.Secret, user.ID.String(), pin)
	expires := s.now().Add(s.config.JWT.EmailPinExpiresIn)
	user.ConfirmPinHash = &pinHash
	user.ConfirmPinExpires = &expires

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	// a lost PIN can be resent, so the signup itself stands
	if err := s.notifier.EmailConfirmation(ctx, user, pin, s.config.JWT.EmailPinExpiresIn); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to queue confirmation email", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
	}

	return s.authResponse(user)
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}

	return s.authResponse(user)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	if passwordChangedAfter(user, claims) {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(user.ID.String(), user.Email, string(user.Role))
}

func (s *service) UpdatePassword(ctx context.Context, userID string, req *UpdatePasswordRequest) (*TokenPair, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return nil, fmt.Errorf("%w: current password is incorrect", apperror.ErrUnauthorized)
	}

	if err := ValidatePasswordStrength(req.NewPassword); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}

	// one second back so tokens issued right after the change stay valid
	changedAt := s.now().Add(-time.Second)
	if err := s.repo.UpdateUserPassword(ctx, userID, hashedPassword, changedAt); err != nil {
		return nil, err
	}

	return s.generateTokenPair(user.ID.String(), user.Email, string(user.Role))
}

func (s *service) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// UpdateProfile changes the caller's name, description or photo
func (s *service) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*UserResponse, error) {
	if req.Password != "" || req.PasswordConfirm != "" {
		return nil, ErrPasswordInProfile
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", apperror.ErrInvalidInput)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Photo != nil {
		updates["photo"] = strings.TrimSpace(*req.Photo)
	}
	if len(updates) == 0 {
		return nil, ErrEmptyProfileUpdate
	}

	if err := s.repo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// ForgotPassword mails a single-use reset link. Unknown and disabled
// accounts get the same silent success.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.InfoContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	tokenHash := digest(s.config.JWT.Secret, token)
	expires := s.now().Add(s.config.JWT.PasswordResetExpiresIn)
	if err := s.repo.SetPasswordReset(ctx, user.ID.String(), &tokenHash, &expires); err != nil {
		return err
	}

	if err := s.notifier.PasswordReset(ctx, user, token, s.config.JWT.PasswordResetExpiresIn); err != nil {
		// nobody can use a token that was never delivered
		if clearErr := s.repo.SetPasswordReset(ctx, user.ID.String(), nil, nil); clearErr != nil {
			s.logger.ErrorWithContext(ctx, "failed to clear password reset token", clearErr, map[string]interface{}{
				"user_id": user.ID.String(),
			})
		}
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password from a mailed token and logs the user in.
// Tokens issued before the reset stop working.
func (s *service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*AuthResponse, error) {
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user, err := s.repo.ResetPassword(ctx, req.Email, digest(s.config.JWT.Secret, req.Token), hashedPassword, now, now.Add(-time.Second))
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return s.authResponse(user)
}

// ConfirmEmail checks the mailed PIN and marks the address confirmed
func (s *service) ConfirmEmail(ctx context.Context, userID, pin string) (*UserResponse, error) {
	if !validPinFormat(pin) {
		return nil, ErrInvalidPin
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailConfirmed {
		return nil, ErrEmailAlreadyConfirmed
	}

	if err := s.repo.ConfirmEmail(ctx, userID, digest(s.config.JWT.Secret, user.ID.String(), pin), s.now()); err != nil {
		return nil, err
	}
	user.EmailConfirmed = true

	if err := s.notifier.Welcome(ctx, user); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to queue welcome email", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// ResendConfirmation replaces the pending PIN with a fresh one
func (s *service) ResendConfirmation(ctx context.Context, userID string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}

	pin, err := newConfirmPin()
	if err != nil {
		return err
	}
	ttl := s.config.JWT.EmailPinExpiresIn
	if err := s.repo.SetConfirmPin(ctx, userID, digest(s.config.JWT.Secret, user.ID.String(), pin), s.now().Add(ttl)); err != nil {
		return err
	}
	return s.notifier.EmailConfirmation(ctx, user, pin, ttl)
}

func (s *service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return s.validateToken(tokenString)
}

// HashPassword hashes a plain password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *service) authResponse(user *users.User) (*AuthResponse, error) {
	tokenPair, err := s.generateTokenPair(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         ToUserResponse(user),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) generateTokenPair(userID, email, role string) (*TokenPair, error) {
	now := s.now()

	accessToken, err := s.signToken(userID, email, role, TokenTypeAccess, now, s.config.JWT.JWTExpiresIn)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.signToken(userID, email, role, TokenTypeRefresh, now, s.config.JWT.RefreshExpiresIn)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) signToken(userID, email, role, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWT.Secret))
}

func (s *service) validateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWT.Secret), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func passwordChangedAfter(user *users.User, claims *JWTClaims) bool {
	if user.PasswordChangedAt == nil || claims.IssuedAt == nil {
		return false
	}
	return claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second))
}
