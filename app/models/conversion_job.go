package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ConversionJob is the lifecycle record for one user-requested document
// transformation. Completed and failed are absorbing states; once reached the
// row is only ever read.
type ConversionJob struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type         string         `gorm:"type:varchar(20);not null" json:"type"`
	OutputFormat string         `gorm:"type:varchar(20);default:null" json:"output_format,omitempty"`
	OptionsJSON  *JSON          `gorm:"type:json" json:"options,omitempty"`
	Status       string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Progress     int            `gorm:"type:int;default:0" json:"progress"`
	ResultURL    string         `gorm:"type:varchar(512);default:null" json:"result_url,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	DispatchedAt *time.Time     `gorm:"type:timestamp;default:null" json:"dispatched_at,omitempty"`
	CompletedAt  *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConversionJobDocument links a job to its input documents, preserving the
// order the client submitted them in (Position is 0-based).
type ConversionJobDocument struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	ConversionJobID uint     `gorm:"index:ux_job_document,unique,priority:1;not null" json:"conversion_job_id"`
	DocumentID      uint     `gorm:"index:ux_job_document,unique,priority:2;not null" json:"document_id"`
	Document        Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Position        int      `gorm:"type:int;not null" json:"position"`
}

// BeforeCreate generates the public UUID if not present
func (j *ConversionJob) BeforeCreate(tx *gorm.DB) error {
	if j.UUID == "" {
		j.UUID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether the job reached an absorbing state
func (j *ConversionJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
