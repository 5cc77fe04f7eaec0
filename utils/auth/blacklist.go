package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
)

// BlacklistService handles JWT token revocation
type BlacklistService struct {
	store database.BlacklistRepository
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(store database.BlacklistRepository) *BlacklistService {
	return &BlacklistService{store: store}
}

// RevokeToken adds a token id to the blacklist until expiresAt
func (s *BlacklistService) RevokeToken(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error {
	return s.store.RevokeToken(ctx, &model.JWTTokenBlacklist{
		TokenID:   jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	})
}

// IsTokenRevoked checks if a token is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.store.IsTokenRevoked(ctx, jti, time.Now())
}

// CleanupExpiredTokens removes expired entries from the blacklist
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredTokens(ctx, time.Now())
}
