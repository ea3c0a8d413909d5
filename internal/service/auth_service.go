package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")
	// ErrAdminAlreadyExists is returned when trying to create an existing admin.
	ErrAdminAlreadyExists = apperrors.Conflict("admin already exists")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = apperrors.Unauthorized("invalid or expired refresh token")
)

// AuthService handles admin authentication.
type AuthService interface {
	CreateAdmin(ctx context.Context, name, email, password string) (*model.Admin, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, admin *model.Admin, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout drops the refresh token and, when the caller is signed in, revokes its access token.
	Logout(ctx context.Context, refreshToken string, principal *auth.Principal) error
}

type authService struct {
	adminRepo  repository.AdminRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(adminRepo repository.AdminRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// CreateAdmin creates a back office account with a hashed password.
func (s *authService) CreateAdmin(ctx context.Context, name, email, password string) (*model.Admin, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return nil, apperrors.Validation("invalid admin", map[string]string{"email": "required", "password": "min=8"})
	}

	existing, err := s.adminRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrAdminAlreadyExists
	}
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check admin existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         "admin",
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrAdminAlreadyExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// Login authenticates an admin and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, admin *model.Admin, err error) {
	admin, err = s.adminRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(admin.ID, admin.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, admin.ID, admin.Email, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, admin, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	storedAdminID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if storedAdminID != claims.AdminID || storedEmail != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.AdminID, claims.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string, principal *auth.Principal) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if principal != nil && principal.Claims != nil && principal.Claims.ExpiresAt != nil {
		ttl := time.Until(principal.Claims.ExpiresAt.Time)
		if err := s.tokenStore.BlacklistAccessToken(ctx, principal.TokenID, ttl); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return nil
}
