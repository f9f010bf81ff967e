// Package repo implements the data persistence layer for domain entities.
// This file provides a small aggregate query used for conditional responses
// (ETag generation) on the action log endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
)

// ActionLogStats returns the number of action log rows for accountID and the
// newest CreatedAt among them. When there are no rows, count is 0 and
// newest is nil.
func ActionLogStats(ctx context.Context, db *gorm.DB, accountID string) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ActionLog{}).Where("account_id = ?", accountID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
