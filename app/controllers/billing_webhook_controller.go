package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/billing"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
	"github.com/docfoxhq/DocFox/internal/pkg/notification"
)

// BillingWebhookController receives subscription lifecycle events from the
// payment provider. It is the only write path into user tier and status.
type BillingWebhookController struct {
	billing       *billing.Service
	users         repository.UserRepository
	notifications *notification.Dispatcher
	webhookSecret string
}

func NewBillingWebhookController(billingSvc *billing.Service, users repository.UserRepository, notifications *notification.Dispatcher, webhookSecret string) *BillingWebhookController {
	return &BillingWebhookController{
		billing:       billingSvc,
		users:         users,
		notifications: notifications,
		webhookSecret: webhookSecret,
	}
}

// webhookPayload is the provider event envelope
type webhookPayload struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		UserID             uint   `json:"user_id"`
		SubscriptionID     string `json:"subscription_id"`
		PlanRef            string `json:"plan_ref"`
		Tier               string `json:"tier"`
		Interval           string `json:"interval"`
		Status             string `json:"status"`
		CurrentPeriodStart *int64 `json:"current_period_start"`
		CurrentPeriodEnd   *int64 `json:"current_period_end"`
		CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	} `json:"data"`
}

// HandleWebhook verifies, deduplicates and processes one provider event.
// Redeliveries of an already-processed event return 200 without side effects.
func (bc *BillingWebhookController) HandleWebhook(c *fiber.Ctx) error {
	body := c.Body()

	signatureValid := billing.VerifyWebhookSignature(body, c.Get("X-Webhook-Signature"), bc.webhookSecret)
	if !signatureValid {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "invalid webhook signature")
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON payload")
	}

	created, event, err := bc.billing.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        "docfox-billing",
		ProviderEventID: payload.EventID,
		EventType:       payload.EventType,
		PayloadJSON:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Billing] Failed to record webhook event: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to record event")
	}
	if !created && event.ProcessedAt != nil {
		return c.JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	processErr := bc.process(c, payload)
	if err := bc.billing.MarkWebhookProcessed(c.Context(), event.ID, processErr); err != nil {
		log.Errorf("[Billing] Failed to mark event %d processed: %v", event.ID, err)
	}
	if processErr != nil {
		log.Errorf("[Billing] Failed to process event %s: %v", payload.EventID, processErr)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to process event")
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (bc *BillingWebhookController) process(c *fiber.Ctx, payload webhookPayload) error {
	if payload.Data.UserID == 0 || payload.Data.SubscriptionID == "" {
		return errors.New("event data missing user_id or subscription_id")
	}

	user, err := bc.users.GetByID(payload.Data.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("unknown user in webhook event")
		}
		return err
	}
	previousTier := entitlements.NormalizeTier(user.SubscriptionTier)

	var periodStart, periodEnd *time.Time
	if payload.Data.CurrentPeriodStart != nil {
		t := time.Unix(*payload.Data.CurrentPeriodStart, 0).UTC()
		periodStart = &t
	}
	if payload.Data.CurrentPeriodEnd != nil {
		t := time.Unix(*payload.Data.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}

	_, effectiveTier, err := bc.billing.SyncSubscription(c.Context(), billing.NormalizedSubscription{
		UserID:                 payload.Data.UserID,
		Provider:               "docfox-billing",
		ProviderSubscriptionID: payload.Data.SubscriptionID,
		ProviderPlanRef:        payload.Data.PlanRef,
		InternalTier:           payload.Data.Tier,
		BillingInterval:        payload.Data.Interval,
		Status:                 payload.Data.Status,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
		CancelAtPeriodEnd:      payload.Data.CancelAtPeriodEnd,
		RawPayloadJSON:         string(c.Body()),
	})
	if err != nil {
		return err
	}

	bc.notify(user.ID, payload.EventType, previousTier, entitlements.NormalizeTier(effectiveTier))
	return nil
}

func (bc *BillingWebhookController) notify(userID uint, eventType string, previous, current entitlements.Tier) {
	if bc.notifications == nil {
		return
	}
	user, err := bc.users.GetByID(userID)
	if err != nil || user == nil {
		return
	}

	switch {
	case eventType == "invoice.payment_failed":
		bc.notifications.Send(user, notification.EventPaymentFailed, notification.Payload{
			PlanName: string(previous),
		})
	case tierAbove(current, previous):
		bc.notifications.Send(user, notification.EventSubscriptionUpgrade, notification.Payload{
			PlanName: string(current),
		})
	}
}

func tierAbove(a, b entitlements.Tier) bool {
	rank := map[entitlements.Tier]int{
		entitlements.TierFree:       0,
		entitlements.TierPro:        1,
		entitlements.TierEnterprise: 2,
	}
	return rank[a] > rank[b]
}
