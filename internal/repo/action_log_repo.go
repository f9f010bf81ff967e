// Package repo implements the data persistence layer for domain entities.
// This file provides repository functions for the outbound ActionLog.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
)

// CreateActionLog inserts an audit row. ID and CreatedAt are filled when empty.
func CreateActionLog(ctx context.Context, db *gorm.DB, l *domain.ActionLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}

// CountActionLogs returns the number of rows for accountID.
func CountActionLogs(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ActionLog{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	return total, err
}

// ListActionLogsPage returns a page ordered newest first (CreatedAt DESC, ID DESC).
func ListActionLogsPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.ActionLog, error) {
	var out []domain.ActionLog
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
