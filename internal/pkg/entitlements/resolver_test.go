package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckUploadSizeBoundary(t *testing.T) {
	limit := LimitsForTier(TierFree).MaxFileSizeBytes

	d := CheckUpload("free", "active", limit)
	assert.True(t, d.Allowed, "a file exactly at the limit is allowed")

	d = CheckUpload("free", "active", limit+1)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonFileTooLarge, d.Reason)
	assert.Equal(t, limit, d.Limit)
	assert.Contains(t, d.Message, "25MB")
}

func TestCheckUploadInactiveSubscription(t *testing.T) {
	for _, status := range []string{"canceled", "past_due"} {
		d := CheckUpload("pro", status, 1)
		assert.False(t, d.Allowed, "status %q must deny", status)
		assert.Equal(t, ReasonSubscriptionInactive, d.Reason)
	}
	for _, status := range []string{"active", "trialing"} {
		d := CheckUpload("pro", status, 1)
		assert.True(t, d.Allowed, "status %q must allow", status)
	}
}

// A canceled pro subscription is denied outright rather than silently
// downgraded to free limits.
func TestCheckUploadCanceledProNotTreatedAsFree(t *testing.T) {
	d := CheckUpload("pro", "canceled", 1)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSubscriptionInactive, d.Reason)
}

func TestCheckConversionQuotaBoundary(t *testing.T) {
	monthly := LimitsForTier(TierFree).MonthlyConversions

	d := CheckConversion("free", "active", Usage{TotalConversions: monthly - 1})
	assert.True(t, d.Allowed, "one below the cap is allowed")

	d = CheckConversion("free", "active", Usage{TotalConversions: monthly})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonMonthlyLimitReached, d.Reason)
	assert.Equal(t, monthly, d.Limit)
}

func TestCheckConversionUnlimitedTier(t *testing.T) {
	d := CheckConversion("pro", "active", Usage{TotalConversions: 1_000_000})
	assert.True(t, d.Allowed)
}

func TestCheckAICredits(t *testing.T) {
	credits := LimitsForTier(TierFree).AICredits

	d := CheckAICredits("free", "active", Usage{AICreditsUsed: credits - 1})
	assert.True(t, d.Allowed)

	d = CheckAICredits("free", "active", Usage{AICreditsUsed: credits})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAICreditsExhausted, d.Reason)

	d = CheckAICredits("enterprise", "active", Usage{AICreditsUsed: 1 << 40})
	assert.True(t, d.Allowed, "enterprise credits are unlimited")
}

func TestCheckAIFeature(t *testing.T) {
	d := CheckAIFeature("free", "active", FeatureAIChat, Usage{})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonFeatureNotAvailable, d.Reason)

	d = CheckAIFeature("pro", "active", FeatureAIChat, Usage{})
	assert.True(t, d.Allowed)

	credits := LimitsForTier(TierPro).AICredits
	d = CheckAIFeature("pro", "active", FeatureAIChat, Usage{AICreditsUsed: credits})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonAICreditsExhausted, d.Reason)
}
