package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles database operations for audit and health rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance.
func NewRepository() *Repository {
	return &Repository{db: DB}
}

// InsertModAction appends one row to the audit trail.
func (r *Repository) InsertModAction(action *ModAction) error {
	return WithRetry(func() error {
		return r.db.Create(action).Error
	})
}

// RecentModActions returns the newest audit rows for a guild.
func (r *Repository) RecentModActions(guildID string, limit int) ([]ModAction, error) {
	var actions []ModAction
	err := WithRetry(func() error {
		return r.db.
			Where("guild_id = ?", guildID).
			Order("id DESC").
			Limit(limit).
			Find(&actions).Error
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *Repository) UpsertServiceStatus(status *ServiceStatus) error {
	return WithRetry(func() error {
		// GORM's Save works as an upsert for records with a primary key.
		return r.db.Save(status).Error
	})
}

// UpdateAPIHealthBulk adds a batch of call counts to a service's totals.
func (r *Repository) UpdateAPIHealthBulk(serviceName string, total, successful uint64) error {
	return WithRetry(func() error {
		row := APIHealth{
			ServiceName:        serviceName,
			TotalRequests:      int64(total),
			SuccessfulRequests: int64(successful),
			UpdatedAt:          time.Now(),
		}
		return r.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "service_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_requests":      gorm.Expr("api_health.total_requests + ?", int64(total)),
				"successful_requests": gorm.Expr("api_health.successful_requests + ?", int64(successful)),
				"updated_at":          time.Now(),
			}),
		}).Create(&row).Error
	})
}
