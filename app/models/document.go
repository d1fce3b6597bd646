package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document is the metadata record for an uploaded file. The bytes live in
// object storage under StoragePath; rows are never deleted by the core
// (cleanup is an external retention policy).
type Document struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UUID             string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	User             User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OriginalFilename string         `gorm:"type:varchar(255);not null" json:"original_filename"`
	OriginalFormat   string         `gorm:"type:varchar(20);not null" json:"original_format"`
	ConvertedFormat  string         `gorm:"type:varchar(20);default:null" json:"converted_format,omitempty"`
	FileSizeBytes    int64          `gorm:"type:bigint;not null" json:"file_size_bytes"`
	StoragePath      string         `gorm:"type:varchar(255);not null" json:"-"` // opaque object storage key
	Status           string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates the public UUID if not present
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.New().String()
	}
	return nil
}
