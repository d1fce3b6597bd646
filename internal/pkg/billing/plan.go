package billing

import (
	"strings"

	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
)

func normalizeTier(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(entitlements.TierPro):
		return string(entitlements.TierPro)
	case string(entitlements.TierEnterprise):
		return string(entitlements.TierEnterprise)
	default:
		return string(entitlements.TierFree)
	}
}

func tierRank(tier string) int {
	switch normalizeTier(tier) {
	case string(entitlements.TierEnterprise):
		return 2
	case string(entitlements.TierPro):
		return 1
	default:
		return 0
	}
}

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case "month", "year":
		return i
	default:
		return "unknown"
	}
}

// isEntitlingStatus reports whether a subscription status grants paid-tier
// entitlements. past_due does not: access drops immediately when payment
// fails and comes back when the provider reports recovery.
func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}
