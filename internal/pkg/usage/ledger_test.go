package usage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoxhq/DocFox/app/models"
)

type fakePeriodRepo struct {
	periods map[string]*models.UsagePeriod
}

func newFakePeriodRepo() *fakePeriodRepo {
	return &fakePeriodRepo{periods: make(map[string]*models.UsagePeriod)}
}

func key(userID uint, start time.Time) string {
	return fmt.Sprintf("%d/%s", userID, start.Format("2006-01"))
}

func (r *fakePeriodRepo) GetOrCreate(userID uint, periodStart, periodEnd time.Time) (*models.UsagePeriod, error) {
	k := key(userID, periodStart)
	if p, ok := r.periods[k]; ok {
		return p, nil
	}
	p := &models.UsagePeriod{UserID: userID, PeriodStart: periodStart, PeriodEnd: periodEnd}
	r.periods[k] = p
	return p, nil
}

func (r *fakePeriodRepo) Get(userID uint, periodStart time.Time) (*models.UsagePeriod, error) {
	if p, ok := r.periods[key(userID, periodStart)]; ok {
		return p, nil
	}
	return nil, nil
}

func (r *fakePeriodRepo) Increment(userID uint, periodStart time.Time, conversions, storageBytes, aiCredits int64) error {
	p, ok := r.periods[key(userID, periodStart)]
	if !ok {
		return assert.AnError
	}
	p.TotalConversions += conversions
	p.StorageUsedBytes += storageBytes
	p.AICreditsUsed += aiCredits
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordSuccessCreatesAndIncrements(t *testing.T) {
	repo := newFakePeriodRepo()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	ledger := NewLedgerAt(repo, fixedClock(now))

	period, err := ledger.RecordSuccess(1, Delta{Conversions: 1, AICredits: 1})
	require.NoError(t, err)
	require.NotNil(t, period)
	assert.Equal(t, int64(1), period.TotalConversions)
	assert.Equal(t, int64(1), period.AICreditsUsed)
	assert.Equal(t, int64(0), period.StorageUsedBytes)

	period, err = ledger.RecordSuccess(1, Delta{Conversions: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), period.TotalConversions)
	assert.Equal(t, int64(1), period.AICreditsUsed)
}

func TestSnapshotWithoutRowReadsZero(t *testing.T) {
	repo := newFakePeriodRepo()
	ledger := NewLedgerAt(repo, fixedClock(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))

	snap, err := ledger.Snapshot(7)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalConversions)
	assert.Zero(t, snap.StorageUsedBytes)
	assert.Zero(t, snap.AICreditsUsed)
}

// A new month means a new ledger row; last month's counters do not carry over.
func TestUsageResetsAcrossMonths(t *testing.T) {
	repo := newFakePeriodRepo()
	august := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	september := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	ledger := NewLedgerAt(repo, fixedClock(august))
	_, err := ledger.RecordSuccess(1, Delta{Conversions: 5})
	require.NoError(t, err)

	ledger = NewLedgerAt(repo, fixedClock(september))
	snap, err := ledger.Snapshot(1)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalConversions)
}
