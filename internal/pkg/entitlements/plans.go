package entitlements

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Unlimited marks a numeric limit as uncapped.
const Unlimited = -1

type Feature string

const (
	FeatureAIChat        Feature = "ai_chat"
	FeatureAISummarize   Feature = "ai_summarize"
	FeatureAITranslate   Feature = "ai_translate"
	FeatureReadAloud     Feature = "read_aloud"
	FeatureCollaboration Feature = "collaboration"
	FeatureAPIAccess     Feature = "api_access"
	FeatureSSO           Feature = "sso"
	FeatureAuditLogs     Feature = "audit_logs"
)

// Limits is the static entitlement table for one tier. Numeric limits use
// Unlimited (-1) for uncapped; every limit and flag must be monotonic across
// free < pro < enterprise.
type Limits struct {
	MaxFileSizeBytes   int64
	MonthlyConversions int64
	CloudStorageBytes  int64
	AICredits          int64
	CloudProviders     []string
	AIChat             bool
	AISummarize        bool
	AITranslate        bool
	ReadAloud          bool
	Collaboration      bool
	APIAccess          bool
	SSO                bool
	AuditLogs          bool
}

var tierLimits = map[Tier]Limits{
	TierFree: {
		MaxFileSizeBytes:   25 * 1024 * 1024,
		MonthlyConversions: 25,
		CloudStorageBytes:  1 * 1024 * 1024 * 1024,
		AICredits:          10,
		CloudProviders:     []string{"device"},
	},
	TierPro: {
		MaxFileSizeBytes:   100 * 1024 * 1024,
		MonthlyConversions: Unlimited,
		CloudStorageBytes:  50 * 1024 * 1024 * 1024,
		AICredits:          500,
		CloudProviders:     []string{"device", "gdrive", "dropbox"},
		AIChat:             true,
		AISummarize:        true,
		AITranslate:        true,
		ReadAloud:          true,
	},
	TierEnterprise: {
		MaxFileSizeBytes:   1024 * 1024 * 1024,
		MonthlyConversions: Unlimited,
		CloudStorageBytes:  1024 * 1024 * 1024 * 1024,
		AICredits:          Unlimited,
		CloudProviders:     []string{"device", "gdrive", "dropbox", "onedrive", "box"},
		AIChat:             true,
		AISummarize:        true,
		AITranslate:        true,
		ReadAloud:          true,
		Collaboration:      true,
		APIAccess:          true,
		SSO:                true,
		AuditLogs:          true,
	},
}

// NormalizeTier maps arbitrary input to a known tier, defaulting to free
func NormalizeTier(tier string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(tier))) {
	case TierPro:
		return TierPro
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// LimitsForTier returns the static limits table entry for a tier
func LimitsForTier(tier Tier) Limits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierFree]
}

// MaxUploadBytes returns the per-file upload cap for a tier
func MaxUploadBytes(tier Tier) int64 {
	return LimitsForTier(tier).MaxFileSizeBytes
}

// StorageQuotaBytes returns the cloud storage quota for a tier
func StorageQuotaBytes(tier Tier) int64 {
	return LimitsForTier(tier).CloudStorageBytes
}

// HasFeature reports whether a tier's feature flag is enabled
func HasFeature(tier Tier, feature Feature) bool {
	limits := LimitsForTier(tier)
	switch feature {
	case FeatureAIChat:
		return limits.AIChat
	case FeatureAISummarize:
		return limits.AISummarize
	case FeatureAITranslate:
		return limits.AITranslate
	case FeatureReadAloud:
		return limits.ReadAloud
	case FeatureCollaboration:
		return limits.Collaboration
	case FeatureAPIAccess:
		return limits.APIAccess
	case FeatureSSO:
		return limits.SSO
	case FeatureAuditLogs:
		return limits.AuditLogs
	default:
		return false
	}
}

// AllowsCloudProvider reports whether a tier may connect the given provider
func AllowsCloudProvider(tier Tier, provider string) bool {
	p := strings.ToLower(strings.TrimSpace(provider))
	for _, allowed := range LimitsForTier(tier).CloudProviders {
		if allowed == p {
			return true
		}
	}
	return false
}

// FormatByteLimit renders a byte cap for user-facing denial messages
// (25 MiB -> "25MB").
func FormatByteLimit(limit int64) string {
	const (
		mb = 1024 * 1024
		gb = 1024 * mb
	)
	if limit >= gb && limit%gb == 0 {
		return fmt.Sprintf("%dGB", limit/gb)
	}
	return fmt.Sprintf("%dMB", limit/mb)
}
