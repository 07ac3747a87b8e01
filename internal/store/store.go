// Package store is the persistence layer. All token and code lookups are
// keyed by SHA-256 hash; plaintext credentials never reach the database.
package store

import (
	"errors"
	"time"

	"github.com/go-authcore/authcore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.AuthorizationCode{},
		&models.RefreshToken{},
		&models.AccessToken{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Health verifies database connectivity
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB exposes the underlying gorm handle for transactions
func (s *Store) DB() *gorm.DB {
	return s.db
}

// --- Clients ---

func (s *Store) CreateClient(client *models.OAuthClient) error {
	err := s.db.Create(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrClientConflict
	}
	return err
}

func (s *Store) GetClient(clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	err := s.db.Where("client_id = ? AND is_active = ?", clientID, true).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// --- Users ---

// UpsertUser creates the user on first authorization and bumps
// LastLoginAt on every subsequent grant
func (s *Store) UpsertUser(id, email, name string) (*models.User, error) {
	now := time.Now()
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:          id,
			Email:       email,
			Name:        name,
			LastLoginAt: now,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = now
	if email != "" {
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
