// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/metrics"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

var (
	ErrSubmissionFailed   = errors.New("submission could not be stored")
	ErrNotificationFailed = errors.New("submission notification failed")
)

// SubmissionStore is the persistence side of a submission; SubmissionRepository implements it.
type SubmissionStore interface {
	SaveSubmission(ctx context.Context, app *models.Application) error
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkNotificationFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type SubmissionNotifier interface {
	NotifySubmission(ctx context.Context, record wizard.ApplicationRecord) error
}

// ApplicationService hands a confirmed record to the back office. The
// session stays frozen while the hand-off runs and is reopened on failure
// so the applicant can retry.
type ApplicationService struct {
	wizard   *WizardService
	store    SubmissionStore
	notifier SubmissionNotifier
	now      func() time.Time
}

// NewApplicationService accepts a nil store when no database is configured.
func NewApplicationService(wizard *WizardService, store SubmissionStore, notifier SubmissionNotifier) *ApplicationService {
	return &ApplicationService{
		wizard:   wizard,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

type SubmitResult struct {
	ApplicationID *uuid.UUID         `json:"application_id,omitempty"`
	Violations    []wizard.Violation `json:"violations,omitempty"`
	Session       *SessionView       `json:"session"`
}

func (s *ApplicationService) Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error) {
	res := &SubmitResult{}
	var record *wizard.ApplicationRecord

	err := s.wizard.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		rec, violations, err := e.Submit()
		if err != nil {
			return err
		}
		res.Violations = violations
		record = rec
		res.Session = view(id, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		metrics.Submissions.WithLabelValues("blocked").Inc()
		recordTransition(wizard.StepConfirmation, "submit", res.Violations)
		return res, nil
	}

	log := logrus.WithFields(logrus.Fields{
		"session_id": id,
		"trademark":  record.Trademark.Name,
	})

	var app *models.Application
	if s.store != nil {
		app, err = buildApplication(id, *record, s.now())
		if err == nil {
			err = s.store.SaveSubmission(ctx, app)
		}
		if err != nil {
			log.WithError(err).Error("failed to store submission")
			metrics.Submissions.WithLabelValues("store_failed").Inc()
			s.reopen(ctx, id)
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		res.ApplicationID = &app.ID
	}

	if err := s.notifier.NotifySubmission(ctx, *record); err != nil {
		log.WithError(err).Error("failed to send submission notification")
		metrics.Submissions.WithLabelValues("notify_failed").Inc()
		if app != nil {
			if markErr := s.store.MarkNotificationFailed(ctx, app.ID, err.Error()); markErr != nil {
				log.WithError(markErr).Warn("failed to record notification failure")
			}
		}
		s.reopen(ctx, id)
		return nil, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if app != nil {
		if err := s.store.MarkNotified(ctx, app.ID, s.now()); err != nil {
			// the email went out; a stale status is not worth failing the applicant
			log.WithError(err).Warn("failed to mark application notified")
		}
	}

	err = s.wizard.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		if err := e.MarkSubmitted(); err != nil {
			return err
		}
		res.Session = view(id, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Submissions.WithLabelValues("submitted").Inc()
	recordTransition(wizard.StepConfirmation, "submit", nil)
	log.Info("application submitted")
	return res, nil
}

func (s *ApplicationService) reopen(ctx context.Context, id uuid.UUID) {
	err := s.wizard.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		return e.Reopen()
	})
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("failed to reopen session")
	}
}

func buildApplication(sessionID uuid.UUID, record wizard.ApplicationRecord, now time.Time) (*models.Application, error) {
	payload, err := models.ToJSONB(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	app := &models.Application{
		SessionID:         sessionID,
		Status:            models.ApplicationStatusSubmitted,
		ApplicantName:     record.Applicant.FullName,
		ApplicantEmail:    record.Applicant.Email,
		ApplicantTaxID:    record.Applicant.TaxID,
		ApplicantPhone:    record.Applicant.Phone,
		ContactPreference: string(record.Applicant.ContactPreference),
		TrademarkName:     record.Trademark.Name,
		TrademarkCategory: string(record.Trademark.Category),
		Record:            payload,
		Attachments:       record.Attachments(),
		SubmittedAt:       now,
	}
	app.ID = uuid.New()

	switch h := record.Holder.(type) {
	case *wizard.IndividualHolder:
		app.HolderKind = string(wizard.HolderIndividual)
		app.HolderName = h.FullName
		app.HolderDocument = h.TaxID
	case *wizard.OrganizationHolder:
		app.HolderKind = string(wizard.HolderOrganization)
		app.HolderDocument = h.CompanyID
		if h.Registry != nil {
			app.HolderName = h.Registry.LegalName
		}
	}
	return app, nil
}
