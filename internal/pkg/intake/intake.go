package intake

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
	"github.com/docfoxhq/DocFox/internal/pkg/storage"
)

var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ObjectStore is the slice of the storage client the intake path needs
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectKey string) error
}

// Service admits uploads: entitlement check, type validation, object write,
// then the metadata row. The object write happens first so a failed DB insert
// leaves no row pointing at nothing; the compensating delete handles the
// reverse case.
type Service struct {
	store     ObjectStore
	documents repository.DocumentRepository
}

func NewService(store ObjectStore, documents repository.DocumentRepository) *Service {
	return &Service{store: store, documents: documents}
}

// Upload holds one admitted upload request
type Upload struct {
	Filename string
	Size     int64
	Head     []byte // first bytes for content sniffing
	Body     io.Reader
}

// Admit validates and stores one upload for the given user. On success the
// returned document is pending and owned by the user.
func (s *Service) Admit(ctx context.Context, user *models.User, up Upload) (*models.Document, error) {
	if up.Size <= 0 {
		return nil, ErrEmptyFile
	}

	decision := entitlements.CheckUpload(user.SubscriptionTier, user.SubscriptionStatus, up.Size)
	if !decision.Allowed {
		return nil, entitlements.Deny(decision)
	}

	if _, err := ValidateDocumentBySniff(up.Filename, up.Head); err != nil {
		return nil, errors.Join(ErrUnsupportedType, err)
	}

	format := FormatFromFilename(up.Filename)
	ext := strings.ToLower(filepath.Ext(up.Filename))
	docUUID := uuid.New().String()
	objectKey := storage.DocumentKey(user.ID, docUUID, ext)

	contentType := storage.ContentTypeFor(ext)
	if err := s.store.Upload(ctx, objectKey, up.Body, up.Size, contentType); err != nil {
		return nil, err
	}

	doc := &models.Document{
		UUID:             docUUID,
		UserID:           user.ID,
		OriginalFilename: filepath.Base(up.Filename),
		OriginalFormat:   format,
		FileSizeBytes:    up.Size,
		StoragePath:      objectKey,
		Status:           models.DocumentStatusPending,
	}

	if err := s.documents.Create(doc); err != nil {
		// Metadata insert failed after the object landed; remove the orphan
		if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
			log.Errorf("[Intake] Failed to clean up orphaned object %s: %v", objectKey, delErr)
		}
		return nil, err
	}

	log.Infof("[Intake] Stored document %s for user %d (%s, %d bytes)", docUUID, user.ID, format, up.Size)
	return doc, nil
}
