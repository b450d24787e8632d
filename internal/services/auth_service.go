package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "invoicedesk"
	TokenAudience = "invoicedesk-api"
)

// bcrypt only hashes the first 72 bytes and refuses longer input
const maxPasswordBytes = 72

var msgPasswordTooLong = fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordBytes)

// AuthService handles account registration and access token issuance
type AuthService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.TokenResponse, error)
	Profile(ctx context.Context, actor *models.Actor) (*models.User, error)
}

// AccessClaims represents JWT claims
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity
func (c *AccessClaims) Actor() (*models.Actor, error) {
	raw := c.UserID
	if raw == "" {
		raw = c.Subject
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id claim: %w", err)
	}
	return &models.Actor{ID: id, Username: c.Username, Elevated: c.IsStaff}, nil
}

type authService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	log        zerolog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		log:        logger.WithComponent("auth_service"),
	}
}

func (s *authService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	if input == nil {
		return nil, common.NewValidationError("non_field_errors", "No data provided.")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	details := validateStruct(input)
	if input.Password != "" && input.PasswordConfirm != "" && input.Password != input.PasswordConfirm {
		details = mergeDetails(details, map[string]string{"password": "Passwords do not match."})
	}
	if len(input.Password) > maxPasswordBytes {
		details = mergeDetails(details, map[string]string{"password": msgPasswordTooLong})
	}
	if err := validationResult(details); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewValidationError("password", msgPasswordTooLong)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		DateJoined:   time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return nil, common.NewConflictError("username", "A user with that username already exists.")
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, common.NewConflictError("email", "A user with that email already exists.")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("Account registered")
	return user, nil
}

func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.TokenResponse, error) {
	if input == nil {
		return nil, common.NewValidationError("non_field_errors", "No data provided.")
	}
	if err := validationResult(validateStruct(input)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, invalidCredentials()
	}

	now := time.Now().UTC()
	claims := AccessClaims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		IssuedAt:    now,
		User:        user,
	}, nil
}

func (s *authService) Profile(ctx context.Context, actor *models.Actor) (*models.User, error) {
	if actor == nil {
		return nil, common.ErrAuthenticationRequired
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("User")
		}
		return nil, err
	}
	return user, nil
}

func invalidCredentials() error {
	return common.NewAuthenticationRequiredError("No active account found with the given credentials")
}
