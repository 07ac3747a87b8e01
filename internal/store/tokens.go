package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-authcore/authcore/internal/models"

	"gorm.io/gorm"
)

// --- Refresh tokens ---

func (s *Store) CreateRefreshToken(token *models.RefreshToken) error {
	return s.db.Create(token).Error
}

// GetRefreshTokenByHash loads a refresh token regardless of status.
// Callers use the status to tell a rotated-and-replayed token apart
// from one that never existed.
func (s *Store) GetRefreshTokenByHash(tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.Where("token_hash = ?", tokenHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// GetActiveRefreshToken loads a refresh token that is still redeemable.
// A row found expired is flipped to expired state and reported as not found.
func (s *Store) GetActiveRefreshToken(tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.Where("token_hash = ? AND status = ?", tokenHash, models.TokenStatusActive).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if token.IsExpired() {
		s.db.Model(&token).Update("status", models.TokenStatusExpired)
		return nil, ErrRecordNotFound
	}
	return &token, nil
}

// RotateRefreshToken revokes the presented token and inserts its
// replacement in a single transaction. The conditional update is the
// exclusivity guarantee: only a row still in active state can be rotated,
// so a replayed token fails with ErrRefreshTokenNotActive instead of
// minting a second successor.
func (s *Store) RotateRefreshToken(oldHash string, next *models.RefreshToken) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	result := tx.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND status = ?", oldHash, models.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":     models.TokenStatusRevoked,
			"revoked_at": now,
		})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrRefreshTokenNotActive
	}

	if err := tx.Create(next).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit token rotation: %w", err)
	}
	return nil
}

// RevokeRefreshTokenByHash flips the token to revoked state. Revoking an
// already revoked or unknown token is not an error.
func (s *Store) RevokeRefreshTokenByHash(tokenHash string) error {
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND status = ?", tokenHash, models.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":     models.TokenStatusRevoked,
			"revoked_at": now,
		}).Error
}

// RevokeRefreshTokenFamily revokes every active token descended from the
// same initial grant. Used when replay of a rotated token is detected.
func (s *Store) RevokeRefreshTokenFamily(family string) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.RefreshToken{}).
		Where("family = ? AND status = ?", family, models.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":     models.TokenStatusRevoked,
			"revoked_at": now,
		})
	return result.RowsAffected, result.Error
}

func (s *Store) MarkExpiredRefreshTokens() (int64, error) {
	result := s.db.Model(&models.RefreshToken{}).
		Where("status = ? AND expires_at < CURRENT_TIMESTAMP", models.TokenStatusActive).
		Update("status", models.TokenStatusExpired)
	return result.RowsAffected, result.Error
}

// --- Access tokens ---

func (s *Store) CreateAccessToken(token *models.AccessToken) error {
	return s.db.Create(token).Error
}

// GetAccessTokenByHash loads an access token row. Expired rows are deleted
// at read time and reported as not found.
func (s *Store) GetAccessTokenByHash(tokenHash string) (*models.AccessToken, error) {
	var token models.AccessToken
	err := s.db.Where("token_hash = ?", tokenHash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if token.IsExpired() {
		s.db.Delete(&token)
		return nil, ErrRecordNotFound
	}
	return &token, nil
}

// RevokeAccessTokenByHash flips the token to revoked state; unknown
// hashes are a no-op
func (s *Store) RevokeAccessTokenByHash(tokenHash string) error {
	now := time.Now()
	return s.db.Model(&models.AccessToken{}).
		Where("token_hash = ? AND status = ?", tokenHash, models.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":     models.TokenStatusRevoked,
			"revoked_at": now,
		}).Error
}

func (s *Store) DeleteExpiredAccessTokens() (int64, error) {
	result := s.db.Where("expires_at < CURRENT_TIMESTAMP").Delete(&models.AccessToken{})
	return result.RowsAffected, result.Error
}
