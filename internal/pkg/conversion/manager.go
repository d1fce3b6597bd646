package conversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
	"github.com/docfoxhq/DocFox/internal/pkg/storage"
	"github.com/docfoxhq/DocFox/internal/pkg/usage"
)

var (
	// ErrJobNotFound covers both missing jobs and jobs owned by someone else;
	// callers must not be able to distinguish the two.
	ErrJobNotFound = errors.New("conversion job not found")

	ErrInvalidRequest = errors.New("invalid conversion request")
)

// Notifier delivers user-facing job notifications. Implementations must be
// best-effort: a notification failure never fails the job.
type Notifier interface {
	JobCompleted(user *models.User, job *models.ConversionJob)
	JobFailed(user *models.User, job *models.ConversionJob)
}

// Manager owns the conversion job lifecycle: admission, dispatch to the
// processing backend, and idempotent finalization. All state transitions go
// through guarded repository updates so replayed callbacks and racing
// sweepers cannot double-finalize a job.
type Manager struct {
	jobs    repository.ConversionJobRepository
	docs    repository.DocumentRepository
	users   repository.UserRepository
	ledger  *usage.Ledger
	mirror  StatusMirror
	backend Backend
	notify  Notifier

	callbackBaseURL   string
	processingTimeout time.Duration
}

// ManagerConfig wires the manager's collaborators
type ManagerConfig struct {
	Jobs              repository.ConversionJobRepository
	Docs              repository.DocumentRepository
	Users             repository.UserRepository
	Ledger            *usage.Ledger
	Mirror            StatusMirror
	Backend           Backend
	Notifier          Notifier
	CallbackBaseURL   string
	ProcessingTimeout time.Duration
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 30 * time.Minute
	}
	return &Manager{
		jobs:              cfg.Jobs,
		docs:              cfg.Docs,
		users:             cfg.Users,
		ledger:            cfg.Ledger,
		mirror:            cfg.Mirror,
		backend:           cfg.Backend,
		notify:            cfg.Notifier,
		callbackBaseURL:   cfg.CallbackBaseURL,
		processingTimeout: cfg.ProcessingTimeout,
	}
}

// CreateRequest is one job creation request as received from the API
type CreateRequest struct {
	Type          string
	OutputFormat  string
	DocumentUUIDs []string
	Options       json.RawMessage
}

// Create validates the request, checks entitlements and records a pending
// job. The entitlement check is advisory: it reads current usage without
// reserving anything, so two requests racing at the cap can both pass.
func (m *Manager) Create(user *models.User, req CreateRequest) (*models.ConversionJob, error) {
	jobType, err := ParseJobType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if _, err := DecodeOptions(jobType, req.Options); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if len(req.DocumentUUIDs) < MinInputDocuments(jobType) {
		return nil, fmt.Errorf("%w: %s requires at least %d document(s)",
			ErrInvalidRequest, jobType, MinInputDocuments(jobType))
	}

	// Ownership-scoped resolution: a document that exists but belongs to
	// another user is reported as missing
	docs, err := m.docs.GetByUUIDsForUser(req.DocumentUUIDs, user.ID)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(req.DocumentUUIDs) {
		return nil, ErrJobNotFound
	}

	outputFormat := ""
	if jobType == JobTypeConvert {
		outputFormat = NormalizeFormat(req.OutputFormat)
		if outputFormat == "" {
			return nil, fmt.Errorf("%w: convert requires an output format", ErrInvalidRequest)
		}
		for _, doc := range docs {
			if !CanConvert(doc.OriginalFormat, outputFormat) {
				return nil, fmt.Errorf("%w: cannot convert %s to %s",
					ErrInvalidRequest, doc.OriginalFormat, outputFormat)
			}
		}
	}

	snapshot, err := m.ledger.Snapshot(user.ID)
	if err != nil {
		return nil, err
	}
	decision := entitlements.CheckConversion(user.SubscriptionTier, user.SubscriptionStatus, snapshot)
	if !decision.Allowed {
		return nil, entitlements.Deny(decision)
	}
	if IsAIJobType(jobType) {
		decision = entitlements.CheckAICredits(user.SubscriptionTier, user.SubscriptionStatus, snapshot)
		if !decision.Allowed {
			return nil, entitlements.Deny(decision)
		}
	}

	var optionsJSON *models.JSON
	if len(req.Options) > 0 {
		j := models.JSON(req.Options)
		optionsJSON = &j
	}

	job := &models.ConversionJob{
		UserID:       user.ID,
		Type:         string(jobType),
		OutputFormat: outputFormat,
		OptionsJSON:  optionsJSON,
		Status:       models.JobStatusPending,
	}

	documentIDs := make([]uint, 0, len(docs))
	byUUID := make(map[string]uint, len(docs))
	for _, doc := range docs {
		byUUID[doc.UUID] = doc.ID
	}
	// Preserve the order the client submitted; merge output depends on it
	for _, u := range req.DocumentUUIDs {
		documentIDs = append(documentIDs, byUUID[u])
	}

	if err := m.jobs.Create(job, documentIDs); err != nil {
		return nil, err
	}

	m.mirrorStatus(job.UserID, job.UUID, models.JobStatusPending)
	log.Infof("[Conversion] Created job %s (type=%s) for user %d", job.UUID, jobType, user.ID)
	return job, nil
}

// Dispatch moves a pending job to processing and hands it to the backend. A
// synchronous backend result finalizes the job immediately; a backend error
// fails it.
func (m *Manager) Dispatch(ctx context.Context, job *models.ConversionJob, callbackToken string) error {
	now := time.Now()
	ok, err := m.jobs.Transition(job.UUID, models.JobStatusPending, map[string]interface{}{
		"status":        models.JobStatusProcessing,
		"dispatched_at": now,
	})
	if err != nil {
		return err
	}
	if !ok {
		// Someone else already moved it; nothing to do
		return nil
	}
	job.Status = models.JobStatusProcessing
	job.DispatchedAt = &now

	m.mirrorStatus(job.UserID, job.UUID, models.JobStatusProcessing)
	if m.mirror != nil {
		deadline := now.Add(m.processingTimeout)
		if err := m.mirror.AddProcessingDeadline(ctx, job.UUID, deadline); err != nil {
			log.Warnf("[Conversion] Failed to index processing deadline for %s: %v", job.UUID, err)
		}
	}
	m.progressInputDocuments(job, models.DocumentStatusProcessing, "")

	docs, err := m.jobs.GetInputDocuments(job.ID)
	if err != nil {
		return m.FinalizeFailure(ctx, job.UUID, "failed to load input documents")
	}
	inputKeys := make([]string, 0, len(docs))
	for _, doc := range docs {
		inputKeys = append(inputKeys, doc.StoragePath)
	}

	var rawOptions json.RawMessage
	if job.OptionsJSON != nil {
		rawOptions = json.RawMessage(*job.OptionsJSON)
	}

	req := DispatchRequest{
		JobUUID:      job.UUID,
		Type:         JobType(job.Type),
		OutputFormat: job.OutputFormat,
		Options:      rawOptions,
		InputKeys:    inputKeys,
		OutputKey:    storage.ResultKey(job.UserID, job.UUID, m.resultExtension(job)),
		CallbackURL:  fmt.Sprintf("%s/api/v1/conversions/%s/callback?token=%s", m.callbackBaseURL, job.UUID, callbackToken),
	}

	result, err := m.backend.Dispatch(ctx, req)
	if err != nil {
		log.Errorf("[Conversion] Dispatch of job %s failed: %v", job.UUID, err)
		return m.FinalizeFailure(ctx, job.UUID, "processing engine unavailable")
	}
	if result == nil {
		// Asynchronous: the engine calls back when done
		return nil
	}
	if result.Success {
		return m.FinalizeSuccess(ctx, job.UUID, result.ResultURL)
	}
	return m.FinalizeFailure(ctx, job.UUID, result.Error)
}

func (m *Manager) resultExtension(job *models.ConversionJob) string {
	if job.OutputFormat != "" {
		return "." + job.OutputFormat
	}
	switch JobType(job.Type) {
	case JobTypeSplit:
		return ".zip"
	default:
		return ".pdf"
	}
}

// FinalizeSuccess completes a processing job exactly once. Replays and
// late callbacks after the job reached a terminal state are silent no-ops:
// the transition guard fails and no accounting or notification runs again.
func (m *Manager) FinalizeSuccess(ctx context.Context, jobUUID, resultURL string) error {
	now := time.Now()
	ok, err := m.jobs.Transition(jobUUID, models.JobStatusProcessing, map[string]interface{}{
		"status":       models.JobStatusCompleted,
		"progress":     100,
		"result_url":   resultURL,
		"completed_at": now,
	})
	if err != nil {
		return err
	}
	if !ok {
		// Already terminal; still drop any stale deadline entry
		m.clearDeadline(ctx, jobUUID)
		log.Infof("[Conversion] Ignoring duplicate success finalization for job %s", jobUUID)
		return nil
	}

	m.clearDeadline(ctx, jobUUID)

	job, err := m.jobs.GetByUUID(jobUUID)
	if err != nil || job == nil {
		log.Errorf("[Conversion] Completed job %s but could not reload it: %v", jobUUID, err)
		return nil
	}

	// Accounting, mirroring and notification are best-effort side effects of
	// the transition; the job stays completed even if they fail
	m.mirrorStatus(job.UserID, jobUUID, models.JobStatusCompleted)
	m.progressInputDocuments(job, models.DocumentStatusCompleted, "")

	delta := usage.Delta{Conversions: 1}
	if IsAIJobType(JobType(job.Type)) {
		delta.AICredits = 1
	}
	m.ledger.RecordSuccessBestEffort(job.UserID, delta)

	m.notifyUser(job, true)
	log.Infof("[Conversion] Job %s completed", jobUUID)
	return nil
}

// FinalizeFailure fails a job exactly once, from either pending or
// processing. Failed jobs never consume quota.
func (m *Manager) FinalizeFailure(ctx context.Context, jobUUID, errorMessage string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.JobStatusFailed,
		"error_message": errorMessage,
		"completed_at":  now,
	}

	ok, err := m.jobs.Transition(jobUUID, models.JobStatusProcessing, updates)
	if err != nil {
		return err
	}
	if !ok {
		// Dispatch can fail before the job ever left pending
		ok, err = m.jobs.Transition(jobUUID, models.JobStatusPending, updates)
		if err != nil {
			return err
		}
	}
	if !ok {
		m.clearDeadline(ctx, jobUUID)
		log.Infof("[Conversion] Ignoring duplicate failure finalization for job %s", jobUUID)
		return nil
	}

	m.clearDeadline(ctx, jobUUID)

	job, err := m.jobs.GetByUUID(jobUUID)
	if err != nil || job == nil {
		log.Errorf("[Conversion] Failed job %s but could not reload it: %v", jobUUID, err)
		return nil
	}

	m.mirrorStatus(job.UserID, jobUUID, models.JobStatusFailed)
	m.progressInputDocuments(job, models.DocumentStatusFailed, errorMessage)

	m.notifyUser(job, false)
	log.Infof("[Conversion] Job %s failed: %s", jobUUID, errorMessage)
	return nil
}

// Get returns a job scoped to its owner. Jobs of other users read as missing.
func (m *Manager) Get(userID uint, jobUUID string) (*models.ConversionJob, error) {
	job, err := m.jobs.GetByUUIDForUser(jobUUID, userID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// List returns a page of the user's jobs, newest first
func (m *Manager) List(userID uint, offset, limit int) ([]models.ConversionJob, error) {
	return m.jobs.ListByUserID(userID, offset, limit)
}

// StatusFor serves the polling hot path: the Redis mirror first, the
// database as fallback. Mirror keys are scoped per owner, so a miss for the
// wrong user falls through to the ownership-checked database read.
func (m *Manager) StatusFor(ctx context.Context, userID uint, jobUUID string) (string, error) {
	if m.mirror != nil {
		status, err := m.mirror.GetJobStatus(ctx, userID, jobUUID)
		if err != nil {
			log.Warnf("[Conversion] Status mirror read failed for job %s: %v", jobUUID, err)
		} else if status != "" {
			return status, nil
		}
	}

	job, err := m.Get(userID, jobUUID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

func (m *Manager) mirrorStatus(userID uint, jobUUID, status string) {
	if m.mirror == nil {
		return
	}
	if err := m.mirror.SetJobStatus(context.Background(), userID, jobUUID, status); err != nil {
		log.Warnf("[Conversion] Failed to mirror status for job %s: %v", jobUUID, err)
	}
}

// progressInputDocuments mirrors the job lifecycle onto the input documents.
// Best-effort: the job row is the source of truth, document rows follow.
func (m *Manager) progressInputDocuments(job *models.ConversionJob, status, errorMessage string) {
	if m.docs == nil {
		return
	}
	docs, err := m.jobs.GetInputDocuments(job.ID)
	if err != nil {
		log.Warnf("[Conversion] Cannot load input documents of job %s: %v", job.UUID, err)
		return
	}
	convertedFormat := ""
	if status == models.DocumentStatusCompleted && JobType(job.Type) == JobTypeConvert {
		convertedFormat = job.OutputFormat
	}
	for _, doc := range docs {
		if err := m.docs.UpdateStatus(doc.ID, status, errorMessage); err != nil {
			log.Warnf("[Conversion] Failed to update document %d for job %s: %v", doc.ID, job.UUID, err)
			continue
		}
		if convertedFormat != "" {
			if err := m.docs.SetConvertedFormat(doc.ID, convertedFormat); err != nil {
				log.Warnf("[Conversion] Failed to record converted format on document %d: %v", doc.ID, err)
			}
		}
	}
}

func (m *Manager) clearDeadline(ctx context.Context, jobUUID string) {
	if m.mirror == nil {
		return
	}
	if err := m.mirror.RemoveProcessingDeadline(ctx, jobUUID); err != nil {
		log.Warnf("[Conversion] Failed to clear processing deadline for job %s: %v", jobUUID, err)
	}
}

func (m *Manager) notifyUser(job *models.ConversionJob, success bool) {
	if m.notify == nil {
		return
	}
	user, err := m.users.GetByID(job.UserID)
	if err != nil || user == nil {
		log.Warnf("[Conversion] Cannot notify user %d for job %s: %v", job.UserID, job.UUID, err)
		return
	}
	if success {
		m.notify.JobCompleted(user, job)
	} else {
		m.notify.JobFailed(user, job)
	}
}
