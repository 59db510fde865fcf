// internal/services/submission_repository.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/database"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
)

// SubmissionRepository persists submitted applications, uploaded file rows
// and audit entries.
type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) SaveFile(ctx context.Context, file *models.StoredFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to save stored file: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) FilesForSession(ctx context.Context, sessionID uuid.UUID) ([]models.StoredFile, error) {
	var files []models.StoredFile
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stored files: %w", err)
	}
	return files, nil
}

// SaveSubmission upserts the application by session and links the session's
// referenced uploads to it. A retried submission overwrites the earlier row.
func (r *SubmissionRepository) SaveSubmission(ctx context.Context, app *models.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	return database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "applicant_name", "applicant_email", "applicant_tax_id",
				"applicant_phone", "contact_preference", "holder_kind", "holder_name",
				"holder_document", "trademark_name", "trademark_category", "record",
				"attachments", "submitted_at", "notified_at", "notification_error", "updated_at",
			}),
		}).Create(app).Error
		if err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}

		if len(app.Attachments) == 0 {
			return nil
		}
		err = tx.Model(&models.StoredFile{}).
			Where("session_id = ? AND url IN ?", app.SessionID, []string(app.Attachments)).
			Update("application_id", app.ID).Error
		if err != nil {
			return fmt.Errorf("failed to link stored files: %w", err)
		}
		return nil
	})
}

func (r *SubmissionRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             models.ApplicationStatusNotified,
			"notified_at":        at,
			"notification_error": "",
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark application notified: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) MarkNotificationFailed(ctx context.Context, id uuid.UUID, reason string) error {
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             models.ApplicationStatusNotificationFailed,
			"notification_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification failure: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
