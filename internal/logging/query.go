package logging

import (
	"context"

	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"gorm.io/gorm"
)

// LogFilter narrows a system_logs listing. Empty fields match everything.
type LogFilter struct {
	Level         string
	UserID        string
	PartnershipID string
	Limit         int
	Offset        int
}

// Recent lists stored records newest first along with the total match count.
func Recent(ctx context.Context, db *gorm.DB, f LogFilter) ([]models.SystemLog, int64, error) {
	q := db.WithContext(ctx).Model(&models.SystemLog{})
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.PartnershipID != "" {
		q = q.Where("partnership_id = ?", f.PartnershipID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SystemLog
	err := q.Order("timestamp DESC").Limit(f.Limit).Offset(f.Offset).Find(&logs).Error
	return logs, total, err
}
