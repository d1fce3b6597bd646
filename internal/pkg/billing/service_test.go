package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoxhq/DocFox/app/models"
)

type fakeBillingRepo struct {
	subs    []models.BillingSubscription
	users   map[uint]*models.User
	events  map[string]*models.BillingWebhookEvent
	nextID  uint
	updates []string // "tier/status" writes, in order
}

func newFakeBillingRepo(users ...*models.User) *fakeBillingRepo {
	r := &fakeBillingRepo{
		users:  make(map[uint]*models.User),
		events: make(map[string]*models.BillingWebhookEvent),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeBillingRepo) UpsertSubscription(sub *models.BillingSubscription) error {
	for i := range r.subs {
		if r.subs[i].Provider == sub.Provider && r.subs[i].ProviderSubscriptionID == sub.ProviderSubscriptionID {
			sub.ID = r.subs[i].ID
			r.subs[i] = *sub
			return nil
		}
	}
	r.nextID++
	sub.ID = r.nextID
	r.subs = append(r.subs, *sub)
	return nil
}

func (r *fakeBillingRepo) ListSubscriptionsByUser(userID uint) ([]models.BillingSubscription, error) {
	var out []models.BillingSubscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeBillingRepo) GetUser(userID uint) (*models.User, error) {
	return r.users[userID], nil
}

func (r *fakeBillingRepo) UpdateUserSubscription(userID uint, tier, status string) error {
	u := r.users[userID]
	u.SubscriptionTier = tier
	u.SubscriptionStatus = status
	r.updates = append(r.updates, tier+"/"+status)
	return nil
}

func (r *fakeBillingRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *fakeBillingRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return nil
}

func freeUser(id uint) *models.User {
	return &models.User{ID: id, SubscriptionTier: "free", SubscriptionStatus: "active"}
}

func TestSyncSubscriptionUpgradesUser(t *testing.T) {
	user := freeUser(1)
	repo := newFakeBillingRepo(user)
	svc := NewService(repo)

	sub, tier, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 1,
		Provider:               "Stripe",
		ProviderSubscriptionID: "sub_123",
		InternalTier:           "pro",
		BillingInterval:        "month",
		Status:                 "active",
	})
	require.NoError(t, err)
	assert.Equal(t, "stripe", sub.Provider)
	assert.Equal(t, "pro", tier)
	assert.Equal(t, "pro", user.SubscriptionTier)
	assert.Equal(t, "active", user.SubscriptionStatus)
}

func TestSyncSubscriptionRequiresIdentity(t *testing.T) {
	svc := NewService(newFakeBillingRepo(freeUser(1)))

	_, _, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		Provider:               "stripe",
		ProviderSubscriptionID: "sub_123",
	})
	assert.Error(t, err)
}

// Of several subscriptions the best entitling one decides the tier.
func TestReconcileBestEntitlingSubscriptionWins(t *testing.T) {
	user := freeUser(1)
	repo := newFakeBillingRepo(user)
	repo.subs = []models.BillingSubscription{
		{ID: 1, UserID: 1, Provider: "stripe", ProviderSubscriptionID: "a", InternalTier: "pro", Status: "active"},
		{ID: 2, UserID: 1, Provider: "stripe", ProviderSubscriptionID: "b", InternalTier: "enterprise", Status: "trialing"},
		{ID: 3, UserID: 1, Provider: "stripe", ProviderSubscriptionID: "c", InternalTier: "enterprise", Status: "canceled"},
	}
	svc := NewService(repo)

	tier, err := svc.ReconcileUserTier(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "enterprise", tier)
	assert.Equal(t, "trialing", user.SubscriptionStatus)
}

// With no entitling subscription the tier drops to free but the lapsed status
// is kept, so the API can tell a free user from a payment problem.
func TestReconcileDropToFreeKeepsLapsedStatus(t *testing.T) {
	user := &models.User{ID: 1, SubscriptionTier: "pro", SubscriptionStatus: "active"}
	repo := newFakeBillingRepo(user)
	repo.subs = []models.BillingSubscription{
		{ID: 1, UserID: 1, Provider: "stripe", ProviderSubscriptionID: "a", InternalTier: "pro", Status: "past_due"},
	}
	svc := NewService(repo)

	tier, err := svc.ReconcileUserTier(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "free", tier)
	assert.Equal(t, "free", user.SubscriptionTier)
	assert.Equal(t, "past_due", user.SubscriptionStatus)
}

func TestReconcileSkipsNoOpWrites(t *testing.T) {
	user := freeUser(1)
	repo := newFakeBillingRepo(user)
	svc := NewService(repo)

	_, err := svc.ReconcileUserTier(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, repo.updates, "an unchanged tier/status pair is not rewritten")
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	created, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "customer.subscription.updated",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, event)

	created, replay, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "customer.subscription.updated",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, event.ID, replay.ID)
}

// Events without a provider id are deduplicated by payload hash instead.
func TestRecordWebhookEventHashFallback(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	created, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"some":"payload"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.ProviderEventID, "hash:")

	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"some":"payload"}`,
	})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMarkWebhookProcessedStoresError(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := NewService(repo)

	_, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_2",
		PayloadJSON:     "{}",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), event.ID, assert.AnError))

	stored := repo.events["stripe/evt_2"]
	require.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, assert.AnError.Error(), stored.ProcessingError)
}
