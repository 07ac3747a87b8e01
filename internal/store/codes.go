package store

import (
	"errors"

	"github.com/go-authcore/authcore/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateAuthorizationCode(code *models.AuthorizationCode) error {
	return s.db.Create(code).Error
}

// GetAuthorizationCodeByHash loads a pending code. Expired rows are deleted
// at read time and reported as not found.
func (s *Store) GetAuthorizationCodeByHash(codeHash string) (*models.AuthorizationCode, error) {
	var code models.AuthorizationCode
	err := s.db.Where("code_hash = ?", codeHash).First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if code.IsExpired() {
		s.db.Delete(&code)
		return nil, ErrRecordNotFound
	}
	return &code, nil
}

// ConsumeAuthorizationCode deletes the code row. The conditional delete is
// what makes codes single-use under concurrent redemption: exactly one
// caller sees a row deleted, every other caller gets ErrCodeConsumed.
func (s *Store) ConsumeAuthorizationCode(codeHash string) error {
	result := s.db.Where("code_hash = ?", codeHash).Delete(&models.AuthorizationCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCodeConsumed
	}
	return nil
}

func (s *Store) DeleteExpiredAuthorizationCodes() (int64, error) {
	result := s.db.Where("expires_at < CURRENT_TIMESTAMP").Delete(&models.AuthorizationCode{})
	return result.RowsAffected, result.Error
}
