package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	UpdateSubscription(userID uint, tier, status string) error
}

// DocumentRepository defines the interface for document metadata operations
type DocumentRepository interface {
	Create(doc *models.Document) error
	GetByID(id uint) (*models.Document, error)
	GetByUUID(uuid string) (*models.Document, error)
	GetByUUIDForUser(uuid string, userID uint) (*models.Document, error)
	GetByUUIDsForUser(uuids []string, userID uint) ([]models.Document, error)
	Update(doc *models.Document) error
	UpdateStatus(id uint, status, errorMessage string) error
	SetConvertedFormat(id uint, convertedFormat string) error
	ListByUserID(userID uint, offset, limit int) ([]models.Document, error)
	StorageBytesByUserID(userID uint) (int64, error)
}

// ConversionJobRepository defines the interface for job lifecycle operations.
// Transition applies a guarded state change: the update only takes effect if
// the job is still in fromStatus, and the return value reports whether it did.
type ConversionJobRepository interface {
	Create(job *models.ConversionJob, documentIDs []uint) error
	GetByUUID(uuid string) (*models.ConversionJob, error)
	GetByUUIDForUser(uuid string, userID uint) (*models.ConversionJob, error)
	GetInputDocuments(jobID uint) ([]models.Document, error)
	ListByUserID(userID uint, offset, limit int) ([]models.ConversionJob, error)
	Transition(uuid string, fromStatus string, updates map[string]interface{}) (bool, error)
	CountActiveByUserID(userID uint) (int64, error)
	ListStuckProcessing(olderThan time.Time, limit int) ([]models.ConversionJob, error)
}

// UsagePeriodRepository defines the interface for the usage ledger. Increment
// must be a single conditional UPDATE keyed by (userID, periodStart) so that
// concurrent finalizations never lose updates.
type UsagePeriodRepository interface {
	GetOrCreate(userID uint, periodStart, periodEnd time.Time) (*models.UsagePeriod, error)
	Get(userID uint, periodStart time.Time) (*models.UsagePeriod, error)
	Increment(userID uint, periodStart time.Time, conversions, storageBytes, aiCredits int64) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Document    DocumentRepository
	Job         ConversionJobRepository
	UsagePeriod UsagePeriodRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Document:    NewDocumentRepository(db),
		Job:         NewConversionJobRepository(db),
		UsagePeriod: NewUsagePeriodRepository(db),
	}
}
