package repository

import (
	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/models"
)

// documentRepository implements the DocumentRepository interface
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository instance
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create inserts a new document row
func (r *documentRepository) Create(doc *models.Document) error {
	return r.db.Create(doc).Error
}

// GetByID retrieves a document by its ID
func (r *documentRepository) GetByID(id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByUUID retrieves a document by its public UUID
func (r *documentRepository) GetByUUID(uuid string) (*models.Document, error) {
	var doc models.Document
	err := r.db.Where("uuid = ?", uuid).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByUUIDForUser retrieves a document only if it belongs to the given user.
// An unowned document is indistinguishable from a missing one.
func (r *documentRepository) GetByUUIDForUser(uuid string, userID uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.Where("uuid = ? AND user_id = ?", uuid, userID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByUUIDsForUser resolves a set of document UUIDs for one owner. Callers
// compare the result length to the request length to detect missing/unowned
// documents without learning which is which.
func (r *documentRepository) GetByUUIDsForUser(uuids []string, userID uint) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Where("uuid IN ? AND user_id = ?", uuids, userID).Find(&docs).Error
	return docs, err
}

// Update saves the full document row
func (r *documentRepository) Update(doc *models.Document) error {
	return r.db.Save(doc).Error
}

// UpdateStatus sets the processing status and optional error message
func (r *documentRepository) UpdateStatus(id uint, status, errorMessage string) error {
	return r.db.Model(&models.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	}).Error
}

// SetConvertedFormat records the format a document was last converted to
func (r *documentRepository) SetConvertedFormat(id uint, convertedFormat string) error {
	return r.db.Model(&models.Document{}).Where("id = ?", id).
		Update("converted_format", convertedFormat).Error
}

// ListByUserID retrieves a paginated list of a user's documents
func (r *documentRepository) ListByUserID(userID uint, offset, limit int) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, err
}

// StorageBytesByUserID sums the stored bytes of a user's documents
func (r *documentRepository) StorageBytesByUserID(userID uint) (int64, error) {
	var used int64
	err := r.db.Model(&models.Document{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(file_size_bytes), 0)").Row().Scan(&used)
	return used, err
}
