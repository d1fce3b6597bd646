package entitlements

import (
	"fmt"

	"github.com/docfoxhq/DocFox/app/models"
)

// Machine-readable denial reasons. The Message field carries the wording
// shown to users; clients branch on Reason.
const (
	ReasonSubscriptionInactive = "subscription_inactive"
	ReasonFileTooLarge         = "file_too_large"
	ReasonMonthlyLimitReached  = "monthly_limit_reached"
	ReasonFeatureNotAvailable  = "feature_not_available"
	ReasonAICreditsExhausted   = "ai_credits_exhausted"
)

// Decision is the outcome of an entitlement check. Checks are pure reads:
// nothing is reserved or consumed, so a denial can be explained to the user
// before any state changes.
type Decision struct {
	Allowed bool
	Reason  string
	Limit   int64
	Message string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string, limit int64, message string) Decision {
	return Decision{Reason: reason, Limit: limit, Message: message}
}

// Usage is the read-only snapshot of the current billing period consulted by
// the checks. A user with no ledger row yet checks as all-zero.
type Usage struct {
	TotalConversions int64
	StorageUsedBytes int64
	AICreditsUsed    int64
}

// subscriptionEntitles gates every paid-tier check: a paid tier with a
// canceled or past_due subscription is denied regardless of the tier column.
func subscriptionEntitles(status string) bool {
	return status == models.SUB_STATUS_ACTIVE || status == models.SUB_STATUS_TRIALING
}

func effectiveTier(tier, subscriptionStatus string) Tier {
	t := NormalizeTier(tier)
	if t != TierFree && !subscriptionEntitles(subscriptionStatus) {
		return TierFree
	}
	return t
}

// CheckUpload decides whether a user may upload a file of the given size
func CheckUpload(tier, subscriptionStatus string, fileSizeBytes int64) Decision {
	if !subscriptionEntitles(subscriptionStatus) {
		return deny(ReasonSubscriptionInactive, 0, "subscription inactive")
	}
	limits := LimitsForTier(effectiveTier(tier, subscriptionStatus))
	if fileSizeBytes > limits.MaxFileSizeBytes {
		return deny(ReasonFileTooLarge, limits.MaxFileSizeBytes,
			fmt.Sprintf("file too large: maximum file size is %s", FormatByteLimit(limits.MaxFileSizeBytes)))
	}
	return allow()
}

// CheckConversion decides whether a user may start another conversion in the
// current billing period. The check is advisory, not a reservation: two
// concurrent calls near the cap can both pass (accepted looseness, see the
// manager tests).
func CheckConversion(tier, subscriptionStatus string, usage Usage) Decision {
	if !subscriptionEntitles(subscriptionStatus) {
		return deny(ReasonSubscriptionInactive, 0, "subscription inactive")
	}
	limits := LimitsForTier(effectiveTier(tier, subscriptionStatus))
	if limits.MonthlyConversions != Unlimited && usage.TotalConversions >= limits.MonthlyConversions {
		return deny(ReasonMonthlyLimitReached, limits.MonthlyConversions,
			fmt.Sprintf("monthly limit reached: %d conversions per month", limits.MonthlyConversions))
	}
	return allow()
}

// CheckAICredits decides whether a user may consume one AI credit. Unlike
// CheckAIFeature this is not flag-gated: credit-billed operations like OCR
// are available on every tier while the credit pool lasts.
func CheckAICredits(tier, subscriptionStatus string, usage Usage) Decision {
	if !subscriptionEntitles(subscriptionStatus) {
		return deny(ReasonSubscriptionInactive, 0, "subscription inactive")
	}
	limits := LimitsForTier(effectiveTier(tier, subscriptionStatus))
	if limits.AICredits != Unlimited && usage.AICreditsUsed >= limits.AICredits {
		return deny(ReasonAICreditsExhausted, limits.AICredits, "AI credits exhausted for this billing period")
	}
	return allow()
}

// CheckAIFeature decides whether a user may use an AI feature right now
func CheckAIFeature(tier, subscriptionStatus string, feature Feature, usage Usage) Decision {
	if !subscriptionEntitles(subscriptionStatus) {
		return deny(ReasonSubscriptionInactive, 0, "subscription inactive")
	}
	t := effectiveTier(tier, subscriptionStatus)
	if !HasFeature(t, feature) {
		return deny(ReasonFeatureNotAvailable, 0,
			fmt.Sprintf("feature %s is not available on the %s plan", feature, t))
	}
	limits := LimitsForTier(t)
	if limits.AICredits != Unlimited && usage.AICreditsUsed >= limits.AICredits {
		return deny(ReasonAICreditsExhausted, limits.AICredits, "AI credits exhausted for this billing period")
	}
	return allow()
}
