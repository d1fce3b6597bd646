package models

import "time"

// UsagePeriod is the ledger record for one user and one calendar-month
// billing period. Exactly one row exists per (user, period start); counters
// are incremented only by successful job completion, never by job creation.
type UsagePeriod struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:ux_usage_user_period,unique,priority:1" json:"user_id"`
	PeriodStart      time.Time `gorm:"type:timestamp;not null;index:ux_usage_user_period,unique,priority:2" json:"period_start"`
	PeriodEnd        time.Time `gorm:"type:timestamp;not null" json:"period_end"`
	TotalConversions int64     `gorm:"type:bigint;default:0" json:"total_conversions"`
	StorageUsedBytes int64     `gorm:"type:bigint;default:0" json:"storage_used_bytes"`
	AICreditsUsed    int64     `gorm:"type:bigint;default:0" json:"ai_credits_used"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Covers reports whether the given instant falls inside this period
func (p *UsagePeriod) Covers(t time.Time) bool {
	return !t.Before(p.PeriodStart) && t.Before(p.PeriodEnd)
}
