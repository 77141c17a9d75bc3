package service

import (
	"context"
	"strings"

	"messenger/internal/auth"
	"messenger/internal/domain"
	"messenger/internal/events"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

// UserService is the administrative account management surface.
type UserService struct {
	repo              domain.UserRepository
	eventBus          domain.EventPublisher
	minPasswordLength int
	logger            *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, eventBus domain.EventPublisher, minPasswordLength int, logger *zerolog.Logger) *UserService {
	if minPasswordLength <= 0 {
		minPasswordLength = models.MinPasswordLength
	}
	return &UserService{
		repo:              repo,
		eventBus:          eventBus,
		minPasswordLength: minPasswordLength,
		logger:            logger,
	}
}

type CreateUserInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	IsApprover bool   `json:"is_approver"`
	IsActive   *bool  `json:"is_active"`
}

type UpdateUserInput struct {
	Username   *string `json:"username"`
	Password   *string `json:"password"`
	FullName   *string `json:"full_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Role       *string `json:"role"`
	IsApprover *bool   `json:"is_approver"`
	IsActive   *bool   `json:"is_active"`
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// RequireAdmin loads the user and fails unless it has the ADMIN role.
func (s *UserService) RequireAdmin(ctx context.Context, userID int64) (*models.User, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return loadUser(ctx, s.repo, id)
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, required("username")
	}
	if in.Password == "" {
		return nil, required("password")
	}
	if err := checkPasswordLength("password", in.Password, s.minPasswordLength); err != nil {
		return nil, err
	}

	role := models.RoleUser
	if in.Role != "" {
		parsed, ok := models.ParseRole(in.Role)
		if !ok {
			return nil, invalid("role", "role must be ADMIN or USER")
		}
		role = parsed
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		IsApprover:   in.IsApprover,
		IsActive:     true,
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, mapUserError(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	user, err := loadUser(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, required("username")
		}
		user.Username = username
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		role, ok := models.ParseRole(*in.Role)
		if !ok {
			return nil, invalid("role", "role must be ADMIN or USER")
		}
		user.Role = role
	}
	if in.IsApprover != nil {
		user.IsApprover = *in.IsApprover
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	var hash string
	if in.Password != nil && *in.Password != "" {
		if err := checkPasswordLength("password", *in.Password, s.minPasswordLength); err != nil {
			return nil, err
		}
		if hash, err = auth.HashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, mapUserError(err)
	}
	if hash != "" {
		if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			return nil, mapUserError(err)
		}
		user.PasswordHash = hash
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// DeleteUser removes an account and the bookings it created. Admins cannot
// delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return invalid("id", "cannot delete your own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return mapUserError(err)
	}
	s.logger.Info().Int64("user_id", id).Int64("actor_id", actorID).Msg("user deleted")
	return nil
}

// ResetPassword sets password, or a generated one when empty, and returns
// the plain value so the admin can hand it over.
func (s *UserService) ResetPassword(ctx context.Context, actorID, id int64, password string) (string, error) {
	user, err := loadUser(ctx, s.repo, id)
	if err != nil {
		return "", err
	}

	if password == "" {
		if password, err = auth.GenerateTemporaryPassword(temporaryPasswordLength); err != nil {
			return "", err
		}
	} else if err := checkPasswordLength("password", password, s.minPasswordLength); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return "", mapUserError(err)
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("actor_id", actorID).Msg("password reset by admin")
	publishPasswordReset(s.eventBus, s.logger, events.PasswordResetPayload{
		UserID:   user.ID,
		Username: user.Username,
		Source:   "admin",
		ActorID:  actorID,
	})
	return password, nil
}
