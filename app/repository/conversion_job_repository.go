package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/models"
)

// conversionJobRepository implements the ConversionJobRepository interface
type conversionJobRepository struct {
	db *gorm.DB
}

// NewConversionJobRepository creates a new conversion job repository instance
func NewConversionJobRepository(db *gorm.DB) ConversionJobRepository {
	return &conversionJobRepository{db: db}
}

// Create persists the job and its ordered input document links in one
// transaction.
func (r *conversionJobRepository) Create(job *models.ConversionJob, documentIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		for i, docID := range documentIDs {
			link := models.ConversionJobDocument{
				ConversionJobID: job.ID,
				DocumentID:      docID,
				Position:        i,
			}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link document %d: %w", docID, err)
			}
		}
		return nil
	})
}

// GetByUUID retrieves a job by its public UUID
func (r *conversionJobRepository) GetByUUID(uuid string) (*models.ConversionJob, error) {
	var job models.ConversionJob
	err := r.db.Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUUIDForUser retrieves a job only if it belongs to the given user
func (r *conversionJobRepository) GetByUUIDForUser(uuid string, userID uint) (*models.ConversionJob, error) {
	var job models.ConversionJob
	err := r.db.Where("uuid = ? AND user_id = ?", uuid, userID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetInputDocuments returns the job's input documents in submission order
func (r *conversionJobRepository) GetInputDocuments(jobID uint) ([]models.Document, error) {
	var links []models.ConversionJobDocument
	err := r.db.Preload("Document").
		Where("conversion_job_id = ?", jobID).
		Order("position ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(links))
	for _, link := range links {
		docs = append(docs, link.Document)
	}
	return docs, nil
}

// ListByUserID retrieves a paginated list of a user's jobs
func (r *conversionJobRepository) ListByUserID(userID uint, offset, limit int) ([]models.ConversionJob, error) {
	var jobs []models.ConversionJob
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, err
}

// Transition applies updates only while the job is still in fromStatus. The
// WHERE clause carries the state guard, so duplicate or out-of-order callers
// see applied == false instead of overwriting a terminal state.
func (r *conversionJobRepository) Transition(uuid string, fromStatus string, updates map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.ConversionJob{}).
		Where("uuid = ? AND status = ?", uuid, fromStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// CountActiveByUserID counts a user's pending and processing jobs
func (r *conversionJobRepository) CountActiveByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ConversionJob{}).
		Where("user_id = ? AND status IN ?", userID, []string{models.JobStatusPending, models.JobStatusProcessing}).
		Count(&count).Error
	return count, err
}

// ListStuckProcessing returns processing jobs dispatched before olderThan.
// Used by the timeout sweeper as the durable fallback to the Redis deadline
// index.
func (r *conversionJobRepository) ListStuckProcessing(olderThan time.Time, limit int) ([]models.ConversionJob, error) {
	var jobs []models.ConversionJob
	err := r.db.Where("status = ? AND dispatched_at IS NOT NULL AND dispatched_at < ?", models.JobStatusProcessing, olderThan).
		Order("dispatched_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
