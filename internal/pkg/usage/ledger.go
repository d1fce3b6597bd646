package usage

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
)

// Delta is one all-or-nothing ledger increment. The job manager applies it
// exactly once per job, gated on the transition into completed.
type Delta struct {
	Conversions  int64
	StorageBytes int64
	AICredits    int64
}

// Ledger tracks per-user counters over calendar-month billing periods.
type Ledger struct {
	periods repository.UsagePeriodRepository
	now     func() time.Time
}

// NewLedger creates a ledger over the given repository
func NewLedger(periods repository.UsagePeriodRepository) *Ledger {
	return &Ledger{periods: periods, now: time.Now}
}

// NewLedgerAt creates a ledger with an injected clock (tests)
func NewLedgerAt(periods repository.UsagePeriodRepository, now func() time.Time) *Ledger {
	return &Ledger{periods: periods, now: now}
}

// RecordSuccess resolves or lazily creates the current period row and applies
// the delta as a single atomic counter update.
func (l *Ledger) RecordSuccess(userID uint, delta Delta) (*models.UsagePeriod, error) {
	start, end := PeriodBounds(l.now())
	if _, err := l.periods.GetOrCreate(userID, start, end); err != nil {
		return nil, fmt.Errorf("failed to resolve usage period: %w", err)
	}
	if err := l.periods.Increment(userID, start, delta.Conversions, delta.StorageBytes, delta.AICredits); err != nil {
		return nil, fmt.Errorf("failed to apply usage increment: %w", err)
	}
	period, err := l.periods.Get(userID, start)
	if err != nil {
		return nil, err
	}
	return period, nil
}

// Snapshot returns the read-only usage view for entitlement checks. A user
// without a ledger row this period reads as zero usage.
func (l *Ledger) Snapshot(userID uint) (entitlements.Usage, error) {
	start, _ := PeriodBounds(l.now())
	period, err := l.periods.Get(userID, start)
	if err != nil {
		return entitlements.Usage{}, err
	}
	if period == nil {
		return entitlements.Usage{}, nil
	}
	return entitlements.Usage{
		TotalConversions: period.TotalConversions,
		StorageUsedBytes: period.StorageUsedBytes,
		AICreditsUsed:    period.AICreditsUsed,
	}, nil
}

// CurrentPeriod returns the ledger row for the current month, creating it if
// missing. Used by the account endpoint.
func (l *Ledger) CurrentPeriod(userID uint) (*models.UsagePeriod, error) {
	start, end := PeriodBounds(l.now())
	return l.periods.GetOrCreate(userID, start, end)
}

// RecordSuccessBestEffort applies RecordSuccess and degrades ledger failures
// to a log line. User-visible completion must never be blocked by
// accounting; the alert trail is the reconciliation hook.
func (l *Ledger) RecordSuccessBestEffort(userID uint, delta Delta) {
	if _, err := l.RecordSuccess(userID, delta); err != nil {
		log.Errorf("[Usage] Failed to record usage for user %d (delta %+v): %v", userID, delta, err)
	}
}
