package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
	"github.com/docfoxhq/DocFox/internal/pkg/usage"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

// AccountController exposes the user's plan, limits and current usage
type AccountController struct {
	users  repository.UserRepository
	docs   repository.DocumentRepository
	ledger *usage.Ledger
}

func NewAccountController(users repository.UserRepository, docs repository.DocumentRepository, ledger *usage.Ledger) *AccountController {
	return &AccountController{users: users, docs: docs, ledger: ledger}
}

// HandleGetAccount returns the account overview: tier, limits, and usage for
// the current billing period
func (ac *AccountController) HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	user, err := ac.users.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load user")
	}

	period, err := ac.ledger.CurrentPeriod(user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load usage")
	}

	storageUsed, err := ac.docs.StorageBytesByUserID(user.ID)
	if err != nil {
		log.Warnf("[Account] Failed to compute storage usage for user %d: %v", user.ID, err)
	}

	tier := entitlements.NormalizeTier(user.SubscriptionTier)
	limits := entitlements.LimitsForTier(tier)

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"name":   user.Name,
			"email":  user.Email,
			"status": user.Status,
		},
		"subscription": fiber.Map{
			"tier":   string(tier),
			"status": user.SubscriptionStatus,
		},
		"limits": fiber.Map{
			"max_file_size_bytes": limits.MaxFileSizeBytes,
			"monthly_conversions": limits.MonthlyConversions,
			"cloud_storage_bytes": limits.CloudStorageBytes,
			"ai_credits":          limits.AICredits,
			"api_access":          limits.APIAccess,
		},
		"usage": fiber.Map{
			"period_start":       period.PeriodStart,
			"period_end":         period.PeriodEnd,
			"total_conversions":  period.TotalConversions,
			"ai_credits_used":    period.AICreditsUsed,
			"storage_used_bytes": storageUsed,
		},
	})
}

// HandleCreateAPIKey issues a fresh API key, replacing any previous one. The
// plaintext key appears in this response only.
func (ac *AccountController) HandleCreateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	user, err := ac.users.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load user")
	}

	tier := entitlements.NormalizeTier(user.SubscriptionTier)
	if !user.SubscriptionEntitles() || !entitlements.HasFeature(tier, entitlements.FeatureAPIAccess) {
		return jsonError(c, fiber.StatusForbidden, entitlements.ReasonFeatureNotAvailable, "API access is not available on your plan")
	}

	key, err := user.GenerateAPIKey()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to generate API key")
	}
	if err := ac.users.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to store API key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key": key,
		"note":    "store this key now, it will not be shown again",
	})
}
