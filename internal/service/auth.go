package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/repository"
	apperrors "github.com/marviero/backoffice/pkg/errors"
)

const bcryptCost = 12

const minPasswordLength = 8

// TokenBundle holds the three cookie-carried tokens issued on login.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SocketToken  string `json:"socket_token"`
}

// AuthService implements registration, login, and token lifecycle for both
// account populations.
type AuthService struct {
	users       repository.UserRepository
	publicUsers repository.PublicUserRepository
	issuer      *auth.TokenIssuer
	resolver    *auth.Resolver
	logger      *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	users repository.UserRepository,
	publicUsers repository.PublicUserRepository,
	issuer *auth.TokenIssuer,
	resolver *auth.Resolver,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		publicUsers: publicUsers,
		issuer:      issuer,
		resolver:    resolver,
		logger:      logger,
	}
}

// RegisterUserInput holds the parameters for creating a staff account.
type RegisterUserInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	ClientID *string
}

// RegisterPublicInput holds the parameters for creating a storefront account.
type RegisterPublicInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the login parameters. UserType selects which table the
// credentials are checked against.
type LoginInput struct {
	Email    string
	Password string
	UserType domain.UserType
}

// RegisterUser creates a staff account. Only admins reach this operation;
// the handler enforces that.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if _, ok := domain.ParseRole(string(input.Role)); !ok || input.Role == domain.RolePublicUser {
		return nil, apperrors.InvalidInput("role must be ADMIN or CLIENT")
	}
	if input.Role == domain.RoleClient && input.ClientID == nil {
		return nil, apperrors.InvalidInput("client users require a client_id")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := domain.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         input.Role,
		ClientID:     input.ClientID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "staff user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// RegisterPublicUser creates a storefront account and returns its first
// token bundle.
func (s *AuthService) RegisterPublicUser(ctx context.Context, input RegisterPublicInput) (*domain.PublicUser, *TokenBundle, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := domain.Now()
	user := &domain.PublicUser{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.publicUsers.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create public user: %w", err)
	}

	bundle, err := s.issueBundle(user.UpdatedAt, domain.UserTypePublic)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "public user registered", slog.String("user_id", user.ID))
	return user, bundle, nil
}

// Login checks credentials against the population the input selects and
// issues a token bundle signed against the account's current updated_at.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.Identity, *TokenBundle, error) {
	if input.Email == "" || input.Password == "" {
		return nil, nil, apperrors.InvalidInput("email and password are required")
	}

	switch input.UserType {
	case domain.UserTypePrivate:
		return s.loginStaff(ctx, input)
	case domain.UserTypePublic:
		return s.loginPublic(ctx, input)
	default:
		return nil, nil, apperrors.InvalidInput("unknown user type")
	}
}

func (s *AuthService) loginStaff(ctx context.Context, input LoginInput) (*domain.Identity, *TokenBundle, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	bundle, err := s.issueBundle(user.UpdatedAt, domain.UserTypePrivate)
	if err != nil {
		return nil, nil, err
	}

	identity := &domain.Identity{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Type:      domain.UserTypePrivate,
		ClientID:  user.ClientID,
		UpdatedAt: user.UpdatedAt,
	}

	s.logger.InfoContext(ctx, "staff login", slog.String("user_id", user.ID))
	return identity, bundle, nil
}

func (s *AuthService) loginPublic(ctx context.Context, input LoginInput) (*domain.Identity, *TokenBundle, error) {
	user, err := s.publicUsers.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	bundle, err := s.issueBundle(user.UpdatedAt, domain.UserTypePublic)
	if err != nil {
		return nil, nil, err
	}

	identity := &domain.Identity{
		ID:        user.ID,
		Email:     user.Email,
		Role:      domain.RolePublicUser,
		Type:      domain.UserTypePublic,
		UpdatedAt: user.UpdatedAt,
	}

	s.logger.InfoContext(ctx, "public login", slog.String("user_id", user.ID))
	return identity, bundle, nil
}

// Refresh validates a refresh-purpose token and issues fresh access and
// socket tokens. The refresh token itself is not rotated: it dies either by
// expiry or by any change to the account row.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	identity, err := s.resolver.Resolve(ctx, claims, auth.PurposeRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	access, err := s.issuer.SignAccessToken(identity.UpdatedAt, identity.Type)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	socket, err := s.issuer.SignSocketToken(identity.UpdatedAt, identity.Type)
	if err != nil {
		return nil, fmt.Errorf("sign socket token: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", identity.ID))
	return &TokenBundle{AccessToken: access, RefreshToken: refreshToken, SocketToken: socket}, nil
}

// IssueSocketToken signs a socket-purpose token for an already authenticated
// identity.
func (s *AuthService) IssueSocketToken(identity *domain.Identity) (string, error) {
	token, err := s.issuer.SignSocketToken(identity.UpdatedAt, identity.Type)
	if err != nil {
		return "", fmt.Errorf("sign socket token: %w", err)
	}
	return token, nil
}

func (s *AuthService) issueBundle(updatedAt time.Time, utype domain.UserType) (*TokenBundle, error) {
	access, err := s.issuer.SignAccessToken(updatedAt, utype)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.issuer.SignRefreshToken(updatedAt, utype)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	socket, err := s.issuer.SignSocketToken(updatedAt, utype)
	if err != nil {
		return nil, fmt.Errorf("sign socket token: %w", err)
	}

	return &TokenBundle{AccessToken: access, RefreshToken: refresh, SocketToken: socket}, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain both letters and digits")
	}

	return nil
}
