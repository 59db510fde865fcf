// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// ToJSONB converts any JSON-encodable value into a JSONB column value.
func ToJSONB(v interface{}) (JSONB, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Enums
type ApplicationStatus string

const (
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusNotified           ApplicationStatus = "notified"
	ApplicationStatusNotificationFailed ApplicationStatus = "notification_failed"
)

type FileCategory string

const (
	FileCategoryApplicantIdentity  FileCategory = "applicant_identity"
	FileCategoryHolderIdentity     FileCategory = "holder_identity"
	FileCategoryQualificationProof FileCategory = "qualification_proof"
	FileCategoryPowerOfAttorney    FileCategory = "power_of_attorney"
	FileCategoryLogo               FileCategory = "logo"
)
