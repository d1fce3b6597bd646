package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
)

// Service provides provider-neutral billing synchronization. It is the only
// component allowed to write User.SubscriptionTier and
// User.SubscriptionStatus; everything else treats those columns as read-only.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SyncSubscription upserts provider subscription data and reconciles the
// user's tier from the full set of their subscriptions.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, string, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if in.UserID == 0 || provider == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, "", errors.New("user_id, provider and provider_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}

	sub := &models.BillingSubscription{
		UserID:                 in.UserID,
		Provider:               provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderPlanRef:        strings.TrimSpace(in.ProviderPlanRef),
		InternalTier:           normalizeTier(in.InternalTier),
		BillingInterval:        normalizeInterval(in.BillingInterval),
		Status:                 status,
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, "", err
	}

	effectiveTier, err := s.ReconcileUserTier(ctx, in.UserID)
	if err != nil {
		return sub, "", err
	}
	return sub, effectiveTier, nil
}

// ReconcileUserTier computes and writes the best effective tier for a user.
// The best entitling subscription wins; with none the user drops to free
// with the status of their highest-ranked subscription, so the entitlement
// checks deny on the status rather than on a silently shrunk tier.
func (s *Service) ReconcileUserTier(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return "", err
	}

	bestTier := string(entitlements.TierFree)
	bestStatus := models.SUB_STATUS_ACTIVE
	for _, sub := range subs {
		if !isEntitlingStatus(sub.Status) {
			continue
		}
		candidate := normalizeTier(sub.InternalTier)
		if tierRank(candidate) > tierRank(bestTier) {
			bestTier = candidate
			bestStatus = strings.ToLower(sub.Status)
		}
	}

	if bestTier == string(entitlements.TierFree) {
		// No entitling paid subscription. Surface the most relevant lapsed
		// status so the API can tell "free user" from "payment problem".
		for _, sub := range subs {
			if tierRank(normalizeTier(sub.InternalTier)) > 0 {
				bestStatus = strings.ToLower(sub.Status)
				break
			}
		}
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		return "", err
	}
	if user.SubscriptionTier == bestTier && user.SubscriptionStatus == bestStatus {
		return bestTier, nil
	}
	if err := s.repo.UpdateUserSubscription(userID, bestTier, bestStatus); err != nil {
		return "", err
	}
	return bestTier, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without
// a provider event id are deduplicated by payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
