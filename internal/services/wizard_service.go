// internal/services/wizard_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/metrics"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

var ErrUnknownCategory = errors.New("unknown file category")

// WizardService runs engine operations against stored sessions. Each
// operation loads the snapshot, mutates it under a per-session lock and
// saves it back.
type WizardService struct {
	store     SessionStore
	addresses wizard.AddressLookup
	registry  wizard.RegistryLookup
	tokenTTL  time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewWizardService(store SessionStore, addresses wizard.AddressLookup, registry wizard.RegistryLookup, tokenTTL time.Duration) *WizardService {
	return &WizardService{
		store:     store,
		addresses: addresses,
		registry:  registry,
		tokenTTL:  tokenTTL,
		locks:     make(map[uuid.UUID]*sessionLock),
	}
}

// SessionView is what clients see of a session.
type SessionView struct {
	SessionID  uuid.UUID                `json:"session_id"`
	Step       wizard.Step              `json:"step"`
	StepName   string                   `json:"step_name"`
	TotalSteps int                      `json:"total_steps"`
	Frozen     bool                     `json:"frozen"`
	Completed  bool                     `json:"completed"`
	Record     wizard.ApplicationRecord `json:"record"`
	Violations []wizard.Violation       `json:"violations"`
}

type StartResult struct {
	Token   string       `json:"token"`
	Session *SessionView `json:"session"`
}

type UpdateResult struct {
	Derived []wizard.Derivation    `json:"derived"`
	Notices []wizard.Notice        `json:"notices"`
	Lookups []wizard.LookupOutcome `json:"lookups"`
	Session *SessionView           `json:"session"`
}

type StepResult struct {
	Violations []wizard.Violation `json:"violations"`
	Session    *SessionView       `json:"session"`
}

func (s *WizardService) engineOptions() []wizard.Option {
	return []wizard.Option{
		wizard.WithAddressLookup(s.addresses),
		wizard.WithRegistryLookup(s.registry),
		wizard.WithStrictSubmit(),
	}
}

func (s *WizardService) Start(ctx context.Context) (*StartResult, error) {
	id := uuid.New()
	engine := wizard.New(s.engineOptions()...)
	if err := s.store.Save(ctx, id, engine.State()); err != nil {
		return nil, err
	}

	token, err := utils.GenerateSessionToken(id, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	metrics.SessionsStarted.Inc()
	logrus.WithField("session_id", id).Info("wizard session started")
	return &StartResult{Token: token, Session: view(id, engine)}, nil
}

func (s *WizardService) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	var out *SessionView
	err := s.withEngine(ctx, id, false, func(e *wizard.Engine) error {
		out = view(id, e)
		return nil
	})
	return out, err
}

func (s *WizardService) Validate(ctx context.Context, id uuid.UUID, step wizard.Step) ([]wizard.Violation, error) {
	var out []wizard.Violation
	err := s.withEngine(ctx, id, false, func(e *wizard.Engine) error {
		out = e.Validate(step)
		return nil
	})
	return out, err
}

// UpdateSection applies patch and, on blur, resolves the lookups it produced.
// The collaborator calls run without the session lock; results are applied
// in a second locked phase where the engine drops stale answers.
func (s *WizardService) UpdateSection(ctx context.Context, id uuid.UUID, patch wizard.SectionPatch, trigger wizard.Trigger) (*UpdateResult, error) {
	var update *wizard.Update
	var lookupEngine *wizard.Engine
	res := &UpdateResult{}

	err := s.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		u, err := e.UpdateSection(patch, trigger)
		if err != nil {
			return err
		}
		update = u
		lookupEngine = e
		res.Session = view(id, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Derived = update.Derived
	res.Notices = update.Notices

	if len(update.Lookups) == 0 {
		return res, nil
	}

	answers := make([]wizard.LookupResult, len(update.Lookups))
	for i, ticket := range update.Lookups {
		answers[i] = lookupEngine.Lookup(ctx, ticket)
	}

	err = s.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		for i, ticket := range update.Lookups {
			out := e.ApplyLookup(ticket, answers[i])
			res.Lookups = append(res.Lookups, out)
			logLookup(id, out)
		}
		res.Session = view(id, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *WizardService) Next(ctx context.Context, id uuid.UUID) (*StepResult, error) {
	res := &StepResult{}
	err := s.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		from := e.Step()
		v, err := e.GoToNextStep()
		if err != nil {
			return err
		}
		res.Violations = v
		res.Session = view(id, e)
		recordTransition(from, "next", v)
		return nil
	})
	return res, err
}

func (s *WizardService) Previous(ctx context.Context, id uuid.UUID) (*StepResult, error) {
	res := &StepResult{}
	err := s.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		from := e.Step()
		if _, err := e.GoToPreviousStep(); err != nil {
			return err
		}
		res.Session = view(id, e)
		recordTransition(from, "previous", nil)
		return nil
	})
	return res, err
}

// AttachFile stores ref in the record field the category feeds.
func (s *WizardService) AttachFile(ctx context.Context, id uuid.UUID, category models.FileCategory, ref string) (*SessionView, error) {
	patch, err := attachmentPatch(category, ref)
	if err != nil {
		return nil, err
	}
	var out *SessionView
	err = s.withEngine(ctx, id, true, func(e *wizard.Engine) error {
		if _, err := e.UpdateSection(patch, wizard.TriggerChange); err != nil {
			return err
		}
		out = view(id, e)
		return nil
	})
	return out, err
}

func attachmentPatch(category models.FileCategory, ref string) (wizard.SectionPatch, error) {
	switch category {
	case models.FileCategoryApplicantIdentity:
		return wizard.ApplicantPatch{IdentityDocument: &ref}, nil
	case models.FileCategoryHolderIdentity:
		return wizard.HolderPatch{IdentityDocument: &ref}, nil
	case models.FileCategoryQualificationProof:
		return wizard.HolderPatch{QualificationProof: &ref}, nil
	case models.FileCategoryPowerOfAttorney:
		return wizard.HolderPatch{PowerOfAttorney: &ref}, nil
	case models.FileCategoryLogo:
		return wizard.TrademarkPatch{Logo: &ref}, nil
	default:
		return nil, ErrUnknownCategory
	}
}

// withEngine runs fn on the restored engine and saves the result when save is set.
func (s *WizardService) withEngine(ctx context.Context, id uuid.UUID, save bool, fn func(*wizard.Engine) error) error {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	engine, err := wizard.Restore(*st, s.engineOptions()...)
	if err != nil {
		return fmt.Errorf("restore session %s: %w", id, err)
	}

	if err := fn(engine); err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.store.Save(ctx, id, engine.State())
}

func (s *WizardService) lock(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func view(id uuid.UUID, e *wizard.Engine) *SessionView {
	v := &SessionView{
		SessionID:  id,
		Step:       e.Step(),
		StepName:   e.Step().String(),
		TotalSteps: wizard.TotalSteps,
		Frozen:     e.Frozen(),
		Completed:  e.Completed(),
		Record:     e.Record(),
		Violations: e.Validate(e.Step()),
	}
	if v.Violations == nil {
		v.Violations = []wizard.Violation{}
	}
	return v
}

func recordTransition(from wizard.Step, direction string, violations []wizard.Violation) {
	result := "moved"
	if len(violations) > 0 {
		result = "blocked"
		for _, v := range violations {
			metrics.Violations.WithLabelValues(v.Field, string(v.Reason)).Inc()
		}
	}
	metrics.StepTransitions.WithLabelValues(strconv.Itoa(int(from)), direction, result).Inc()
}

func logLookup(id uuid.UUID, out wizard.LookupOutcome) {
	entry := logrus.WithFields(logrus.Fields{
		"session_id": id,
		"slot":       out.Slot,
		"status":     out.Status,
	})
	if out.Err != nil {
		entry = entry.WithError(out.Err)
	}
	if out.Status == wizard.LookupFailed {
		entry.Warn("lookup failed")
		return
	}
	entry.Debug("lookup resolved")
}
