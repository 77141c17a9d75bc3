package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"messenger/internal/auth"
	"messenger/internal/database"
	"messenger/internal/domain"
	"messenger/internal/events"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

const temporaryPasswordLength = 12

// ForgotPasswordMessage is returned whether or not the account matched.
const ForgotPasswordMessage = "if the account exists, a temporary password has been sent to its email address"

type AuthSettings struct {
	MinPasswordLength int
	ThrottleLimit     int
	ThrottleWindow    time.Duration
}

type AuthService struct {
	repo     domain.UserRepository
	tokens   *auth.TokenIssuer
	throttle domain.ThrottleStore
	mailer   domain.Mailer
	eventBus domain.EventPublisher
	settings AuthSettings
	logger   *zerolog.Logger

	checkPassword func(hash, password string) bool
}

func NewAuthService(
	repo domain.UserRepository,
	tokens *auth.TokenIssuer,
	throttle domain.ThrottleStore,
	mailer domain.Mailer,
	eventBus domain.EventPublisher,
	settings AuthSettings,
	logger *zerolog.Logger,
) *AuthService {
	if settings.MinPasswordLength <= 0 {
		settings.MinPasswordLength = models.MinPasswordLength
	}
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		throttle: throttle,
		mailer:   mailer,
		eventBus: eventBus,
		settings: settings,
		logger:   logger,

		checkPassword: auth.CheckPassword,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login throttles by client key and username, then authenticates.
func (s *AuthService) Login(ctx context.Context, clientKey, username, password string) (*LoginResult, error) {
	if err := s.checkThrottle(ctx, "login:"+clientKey+":"+strings.ToLower(username)); err != nil {
		return nil, err
	}
	return s.Authenticate(ctx, username, password)
}

// Authenticate verifies the credentials of an active user and issues a token.
// Unknown, inactive and wrong-password cases return the same error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" {
		return nil, required("username")
	}
	if password == "" {
		return nil, required("password")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.checkPassword(auth.DummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	matched := s.checkPassword(user.PasswordHash, password)
	if !user.IsActive || !matched {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ParseToken resolves a bearer token to a user id.
func (s *AuthService) ParseToken(raw string) (int64, error) {
	return s.tokens.Parse(raw)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	return loadUser(ctx, s.repo, userID)
}

type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// UpdateProfile changes the caller's own contact fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		user.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Email != nil {
		user.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, mapUserError(err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if current == "" {
		return required("current_password")
	}
	if next == "" {
		return required("new_password")
	}
	if err := checkPasswordLength("new_password", next, s.settings.MinPasswordLength); err != nil {
		return err
	}

	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	if !s.checkPassword(user.PasswordHash, current) {
		return invalid("current_password", "current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return mapUserError(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// ForgotPassword replaces the password of a matching active account with a
// temporary one and mails it. A non-matching request returns nil so callers
// cannot tell the cases apart.
func (s *AuthService) ForgotPassword(ctx context.Context, clientKey, username, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return required("username")
	}
	if email == "" {
		return required("email")
	}
	if err := s.checkThrottle(ctx, "forgot:"+clientKey+":"+strings.ToLower(username)); err != nil {
		return err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.logger.Debug().Str("username", username).Msg("forgot password: no such user")
			return nil
		}
		return err
	}
	if !user.IsActive || !strings.EqualFold(user.Email, email) {
		s.logger.Debug().Str("username", username).Msg("forgot password: account did not match")
		return nil
	}

	temp, err := auth.GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return err
	}

	previous := user.PasswordHash
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return mapUserError(err)
	}

	if s.mailer == nil {
		s.restorePassword(ctx, user.ID, previous)
		return ErrDeliveryFailed
	}
	if err := s.mailer.SendTemporaryPassword(ctx, user.Email, user.Username, temp); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("temporary password delivery failed")
		s.restorePassword(ctx, user.ID, previous)
		return ErrDeliveryFailed
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("temporary password sent")
	publishPasswordReset(s.eventBus, s.logger, events.PasswordResetPayload{
		UserID:   user.ID,
		Username: user.Username,
		Source:   "forgot_password",
	})
	return nil
}

func (s *AuthService) restorePassword(ctx context.Context, userID int64, hash string) {
	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to restore previous password")
	}
}

// checkThrottle fails open when the store errors.
func (s *AuthService) checkThrottle(ctx context.Context, key string) error {
	if s.throttle == nil || s.settings.ThrottleLimit <= 0 {
		return nil
	}
	allowed, err := s.throttle.Allow(ctx, key, s.settings.ThrottleLimit, s.settings.ThrottleWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("throttle check failed")
		return nil
	}
	if !allowed {
		return ErrThrottled
	}
	return nil
}

func loadUser(ctx context.Context, repo domain.UserRepository, id int64) (*models.User, error) {
	user, err := repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, database.ErrUsernameTaken):
		return ErrUsernameTaken
	}
	return err
}

func checkPasswordLength(field, password string, min int) error {
	if len([]rune(password)) < min {
		return invalid(field, "%s must be at least %d characters", field, min)
	}
	if len(password) > auth.MaxPasswordBytes {
		return invalid(field, "%s must be at most %d bytes", field, auth.MaxPasswordBytes)
	}
	return nil
}

func publishPasswordReset(bus domain.EventPublisher, logger *zerolog.Logger, payload events.PasswordResetPayload) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(events.EventPasswordReset, payload); err != nil {
		logger.Error().Err(err).Int64("user_id", payload.UserID).Msg("publish event error")
	}
}
