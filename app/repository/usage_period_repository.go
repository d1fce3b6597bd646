package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docfoxhq/DocFox/app/models"
)

// usagePeriodRepository implements the UsagePeriodRepository interface
type usagePeriodRepository struct {
	db *gorm.DB
}

// NewUsagePeriodRepository creates a new usage period repository instance
func NewUsagePeriodRepository(db *gorm.DB) UsagePeriodRepository {
	return &usagePeriodRepository{db: db}
}

// GetOrCreate resolves the ledger row for (userID, periodStart), creating it
// lazily on first use within a period. The unique index on the pair makes
// concurrent first-use creation safe.
func (r *usagePeriodRepository) GetOrCreate(userID uint, periodStart, periodEnd time.Time) (*models.UsagePeriod, error) {
	period := &models.UsagePeriod{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "period_start"},
		},
		DoNothing: true,
	}).Create(period).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure usage period: %w", err)
	}

	var stored models.UsagePeriod
	if err := r.db.Where("user_id = ? AND period_start = ?", userID, periodStart).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Get returns the ledger row for (userID, periodStart), or nil if the user
// has no usage recorded in that period yet.
func (r *usagePeriodRepository) Get(userID uint, periodStart time.Time) (*models.UsagePeriod, error) {
	var period models.UsagePeriod
	err := r.db.Where("user_id = ? AND period_start = ?", userID, periodStart).First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// Increment applies the counter deltas as one atomic UPDATE. Never
// read-modify-write: two concurrent finalizations for the same user must both
// land.
func (r *usagePeriodRepository) Increment(userID uint, periodStart time.Time, conversions, storageBytes, aiCredits int64) error {
	tx := r.db.Model(&models.UsagePeriod{}).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		Updates(map[string]interface{}{
			"total_conversions":  gorm.Expr("total_conversions + ?", conversions),
			"storage_used_bytes": gorm.Expr("storage_used_bytes + ?", storageBytes),
			"ai_credits_used":    gorm.Expr("ai_credits_used + ?", aiCredits),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("usage period not found for user %d at %s", userID, periodStart.Format(time.RFC3339))
	}
	return nil
}
