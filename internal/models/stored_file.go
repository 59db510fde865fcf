// internal/models/stored_file.go
package models

import (
	"github.com/google/uuid"
)

// StoredFile records one upload; ApplicationID is set once the session submits.
type StoredFile struct {
	BaseModel
	SessionID     uuid.UUID    `json:"session_id" gorm:"type:uuid;not null;index"`
	ApplicationID *uuid.UUID   `json:"application_id" gorm:"type:uuid;index"`
	Category      FileCategory `json:"category" gorm:"type:varchar(30);not null"`
	OriginalName  string       `json:"original_name" gorm:"size:255"`
	MimeType      string       `json:"mime_type" gorm:"size:100"`
	Size          int64        `json:"size"`
	StorageKey    string       `json:"storage_key" gorm:"size:255;uniqueIndex;not null"`
	URL           string       `json:"url" gorm:"type:text"`
	Checksum      string       `json:"checksum" gorm:"size:64"`
}
