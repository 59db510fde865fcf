// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Application is a submitted wizard record. Searchable fields are lifted out
// of Record, which keeps the full payload.
type Application struct {
	BaseModel
	SessionID         uuid.UUID         `json:"session_id" gorm:"type:uuid;uniqueIndex;not null"`
	Status            ApplicationStatus `json:"status" gorm:"type:varchar(30);not null;index"`
	ApplicantName     string            `json:"applicant_name" gorm:"size:255;not null"`
	ApplicantEmail    string            `json:"applicant_email" gorm:"size:255;not null;index"`
	ApplicantTaxID    string            `json:"applicant_tax_id" gorm:"size:14"`
	ApplicantPhone    string            `json:"applicant_phone" gorm:"size:20"`
	ContactPreference string            `json:"contact_preference" gorm:"size:20"`
	HolderKind        string            `json:"holder_kind" gorm:"size:20;not null"`
	HolderName        string            `json:"holder_name" gorm:"size:255"`
	HolderDocument    string            `json:"holder_document" gorm:"size:18;index"`
	TrademarkName     string            `json:"trademark_name" gorm:"size:255;not null"`
	TrademarkCategory string            `json:"trademark_category" gorm:"size:20"`
	Record            JSONB             `json:"record" gorm:"type:jsonb;not null"`
	Attachments       pq.StringArray    `json:"attachments" gorm:"type:text[]"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	NotifiedAt        *time.Time        `json:"notified_at"`
	NotificationError string            `json:"notification_error,omitempty" gorm:"type:text"`

	// Relationships
	Files []StoredFile `json:"files,omitempty" gorm:"foreignKey:ApplicationID"`
}
