package store

import (
	"time"

	"github.com/go-authcore/authcore/internal/models"
)

func (s *Store) CreateAuditLog(entry *models.AuditLog) error {
	return s.db.Create(entry).Error
}

// CreateAuditLogBatch inserts a batch of audit entries in one statement
func (s *Store) CreateAuditLogBatch(entries []*models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(entries).Error
}

// DeleteOldAuditLogs removes audit rows older than the retention window
func (s *Store) DeleteOldAuditLogs(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

// ListAuditLogs returns recent audit entries for a client, newest first
func (s *Store) ListAuditLogs(clientID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var logs []models.AuditLog
	query := s.db.Order("created_at DESC").Limit(limit)
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	err := query.Find(&logs).Error
	return logs, err
}
