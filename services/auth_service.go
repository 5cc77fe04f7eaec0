package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"go.uber.org/zap"
)

// AuthResult is returned by every call that signs a user in
type AuthResult struct {
	User  *model.User
	Token *auth.IssuedToken
}

// AuthService issues and revokes access tokens on top of the user directory
type AuthService struct {
	users     *UserService
	jwt       *auth.JWTManager
	blacklist *auth.BlacklistService
	log       *zap.Logger
}

func NewAuthService(users *UserService, jwt *auth.JWTManager, blacklist *auth.BlacklistService, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, blacklist: blacklist, log: log}
}

// Register creates a self-service account and signs it in
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*AuthResult, error) {
	user, err := s.users.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin bootstraps the first admin and signs it in
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateUserInput) (*AuthResult, error) {
	user, err := s.users.CreateFirstAdmin(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("first admin created", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return unauthorized("Invalid token")
	}
	if err := s.blacklist.RevokeToken(ctx, claims.ID, claims.UserID(), claims.ExpiresAt.Time, "logout"); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.log.Info("token revoked", zap.String("user_id", claims.UserID()), zap.String("jti", claims.ID))
	return nil
}

// Authorize turns validated claims into the current user. Revoked tokens and
// deleted users are rejected.
func (s *AuthService) Authorize(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token status: %w", err)
	}
	if revoked {
		return nil, unauthorized("Token has been revoked")
	}
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if IsKind(err, ErrNotFound) {
			return nil, unauthorized("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
