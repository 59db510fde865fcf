package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

type stubAddresses struct {
	mu    sync.Mutex
	calls int
}

func (s *stubAddresses) LookupAddress(_ context.Context, postalCode string) (*wizard.AddressResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if utils.OnlyDigits(postalCode) != "01310100" {
		return nil, wizard.ErrNotFound
	}
	return &wizard.AddressResult{Street: "Avenida Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP"}, nil
}

type stubRegistry struct{}

func (stubRegistry) LookupCompany(_ context.Context, companyID string) (*wizard.RegistrySnapshot, error) {
	if utils.OnlyDigits(companyID) != "11222333000181" {
		return nil, wizard.ErrNotFound
	}
	return &wizard.RegistrySnapshot{LegalName: "ACME COMERCIO LTDA", TradeName: "ACME", Status: "ATIVA"}, nil
}

type fakeNotifier struct {
	err     error
	records []wizard.ApplicationRecord
}

func (f *fakeNotifier) NotifySubmission(_ context.Context, record wizard.ApplicationRecord) error {
	f.records = append(f.records, record)
	return f.err
}

type fakeSubmissionStore struct {
	saveErr  error
	saved    []*models.Application
	notified []uuid.UUID
	failed   map[uuid.UUID]string
}

func (f *fakeSubmissionStore) SaveSubmission(_ context.Context, app *models.Application) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, app)
	return nil
}

func (f *fakeSubmissionStore) MarkNotified(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.notified = append(f.notified, id)
	return nil
}

func (f *fakeSubmissionStore) MarkNotificationFailed(_ context.Context, id uuid.UUID, reason string) error {
	if f.failed == nil {
		f.failed = map[uuid.UUID]string{}
	}
	f.failed[id] = reason
	return nil
}

func strPtr(s string) *string { return &s }

type WizardServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	addresses *stubAddresses
	wizard    *WizardService
	notifier  *fakeNotifier
	store     *fakeSubmissionStore
	apps      *ApplicationService
	id        uuid.UUID
}

func (s *WizardServiceTestSuite) SetupTest() {
	utils.SetJWTSecret("test-secret")
	s.ctx = context.Background()
	s.addresses = &stubAddresses{}
	s.wizard = NewWizardService(NewMemorySessionStore(time.Hour), s.addresses, stubRegistry{}, time.Hour)
	s.notifier = &fakeNotifier{}
	s.store = &fakeSubmissionStore{}
	s.apps = NewApplicationService(s.wizard, s.store, s.notifier)

	started, err := s.wizard.Start(s.ctx)
	s.Require().NoError(err)
	s.id = started.Session.SessionID
}

func (s *WizardServiceTestSuite) update(p wizard.SectionPatch, trigger wizard.Trigger) *UpdateResult {
	res, err := s.wizard.UpdateSection(s.ctx, s.id, p, trigger)
	s.Require().NoError(err)
	return res
}

func (s *WizardServiceTestSuite) fillAll() {
	pref := wizard.ContactEmail
	s.update(wizard.ApplicantPatch{
		FullName: strPtr("Maria Silva"),
		TaxID:    strPtr("52998224725"),
		Phone:    strPtr("11987654321"),
		Email:    strPtr("maria@example.com"),
		Address: &wizard.AddressPatch{
			PostalCode:   strPtr("01310100"),
			Street:       strPtr("Av. Paulista"),
			Number:       strPtr("1000"),
			Neighborhood: strPtr("Bela Vista"),
			City:         strPtr("São Paulo"),
			State:        strPtr("SP"),
		},
		ContactPreference: &pref,
		IdentityDocument:  strPtr("/uploads/applicant_identity/20260101_ab12cd34.pdf"),
	}, wizard.TriggerChange)

	no := false
	s.update(wizard.HolderPatch{HasRelatedBusiness: &no}, wizard.TriggerChange)
	s.update(wizard.HolderPatch{BirthDate: strPtr("1990-05-20"), Profession: strPtr("Designer")}, wizard.TriggerChange)

	cat := wizard.CategoryServices
	s.update(wizard.TrademarkPatch{
		Name:        strPtr("Marca Fácil"),
		Category:    &cat,
		Description: strPtr("Consultoria em registro de marcas"),
		HasLogo:     &no,
	}, wizard.TriggerChange)

	yes := true
	s.update(wizard.TermsPatch{Accepted: &yes}, wizard.TriggerChange)
}

func (s *WizardServiceTestSuite) advanceToConfirmation() {
	for i := 0; i < 3; i++ {
		res, err := s.wizard.Next(s.ctx, s.id)
		s.Require().NoError(err)
		s.Require().Empty(res.Violations)
	}
	s.Require().Equal(wizard.StepConfirmation, s.session().Step)
}

func (s *WizardServiceTestSuite) session() *SessionView {
	v, err := s.wizard.Get(s.ctx, s.id)
	s.Require().NoError(err)
	return v
}

func (s *WizardServiceTestSuite) TestStartIssuesBoundToken() {
	started, err := s.wizard.Start(s.ctx)
	s.Require().NoError(err)

	claims, err := utils.ValidateSessionToken(started.Token)
	s.Require().NoError(err)
	s.Equal(started.Session.SessionID.String(), claims.SessionID)
	s.Equal(wizard.StepApplicant, started.Session.Step)
	s.Equal("applicant", started.Session.StepName)
	s.Equal(wizard.TotalSteps, started.Session.TotalSteps)
	s.NotEmpty(started.Session.Violations)
}

func (s *WizardServiceTestSuite) TestUnknownSession() {
	_, err := s.wizard.Get(s.ctx, uuid.New())
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *WizardServiceTestSuite) TestNextBlockedReturnsViolations() {
	res, err := s.wizard.Next(s.ctx, s.id)
	s.Require().NoError(err)
	s.NotEmpty(res.Violations)
	s.Equal("applicant.fullName", res.Violations[0].Field)
	s.Equal(wizard.StepApplicant, res.Session.Step)
}

func (s *WizardServiceTestSuite) TestBlurResolvesPostalLookup() {
	res := s.update(wizard.ApplicantPatch{Address: &wizard.AddressPatch{PostalCode: strPtr("01310-100")}}, wizard.TriggerBlur)

	s.Require().Len(res.Lookups, 1)
	s.Equal(wizard.LookupApplied, res.Lookups[0].Status)
	addr := res.Session.Record.Applicant.Address
	s.Equal("Avenida Paulista", addr.Street)
	s.Equal("SP", addr.State)

	// persisted, not only returned
	s.Equal("Bela Vista", s.session().Record.Applicant.Address.Neighborhood)
}

func (s *WizardServiceTestSuite) TestChangeDoesNotLookup() {
	res := s.update(wizard.ApplicantPatch{Address: &wizard.AddressPatch{PostalCode: strPtr("01310100")}}, wizard.TriggerChange)
	s.Empty(res.Lookups)
	s.Equal(0, s.addresses.calls)
}

func (s *WizardServiceTestSuite) TestBlurWithInvalidCompanyIDGivesNotice() {
	kind := wizard.HolderOrganization
	s.update(wizard.HolderPatch{Kind: &kind}, wizard.TriggerChange)

	res := s.update(wizard.HolderPatch{CompanyID: strPtr("11.222.333/0001-82")}, wizard.TriggerBlur)
	s.Empty(res.Lookups)
	s.Require().Len(res.Notices, 1)
	s.Equal(wizard.NoticeInvalidCompanyID, res.Notices[0].Code)
}

func (s *WizardServiceTestSuite) TestRegistryLookupThroughService() {
	kind := wizard.HolderOrganization
	res := s.update(wizard.HolderPatch{Kind: &kind}, wizard.TriggerChange)
	s.Contains(res.Derived, wizard.DerivedVariantSwitched)

	res = s.update(wizard.HolderPatch{CompanyID: strPtr("11222333000181")}, wizard.TriggerBlur)
	s.Require().Len(res.Lookups, 1)
	s.Equal(wizard.LookupApplied, res.Lookups[0].Status)

	org, ok := res.Session.Record.Holder.(*wizard.OrganizationHolder)
	s.Require().True(ok)
	s.Require().NotNil(org.Registry)
	s.Equal("ACME COMERCIO LTDA", org.Registry.LegalName)
	s.Nil(org.RegistryConfirmed)
}

func (s *WizardServiceTestSuite) TestAttachFileSetsDocumentField() {
	view, err := s.wizard.AttachFile(s.ctx, s.id, models.FileCategoryLogo, "/uploads/logo/20260101_ab12cd34.jpg")
	s.Require().NoError(err)
	s.Equal("/uploads/logo/20260101_ab12cd34.jpg", view.Record.Trademark.Logo)

	_, err = s.wizard.AttachFile(s.ctx, s.id, models.FileCategory("selfie"), "x")
	s.ErrorIs(err, ErrUnknownCategory)
}

func (s *WizardServiceTestSuite) TestAttachPowerOfAttorneyToOrganization() {
	kind := wizard.HolderOrganization
	s.update(wizard.HolderPatch{Kind: &kind}, wizard.TriggerChange)

	view, err := s.wizard.AttachFile(s.ctx, s.id, models.FileCategoryPowerOfAttorney, "/uploads/power_of_attorney/a.pdf")
	s.Require().NoError(err)
	org := view.Record.Holder.(*wizard.OrganizationHolder)
	s.Equal("/uploads/power_of_attorney/a.pdf", org.PowerOfAttorney)

	_, err = s.wizard.AttachFile(s.ctx, s.id, models.FileCategoryQualificationProof, "/uploads/qualification_proof/a.pdf")
	s.ErrorIs(err, wizard.ErrInactiveVariant)
}

func (s *WizardServiceTestSuite) TestPreviousAndValidate() {
	s.fillAll()
	s.advanceToConfirmation()

	res, err := s.wizard.Previous(s.ctx, s.id)
	s.Require().NoError(err)
	s.Equal(wizard.StepTrademark, res.Session.Step)

	v, err := s.wizard.Validate(s.ctx, s.id, wizard.StepConfirmation)
	s.Require().NoError(err)
	s.Empty(v)
}

func (s *WizardServiceTestSuite) TestSubmitHappyPath() {
	s.fillAll()
	s.advanceToConfirmation()

	res, err := s.apps.Submit(s.ctx, s.id)
	s.Require().NoError(err)
	s.Empty(res.Violations)
	s.Require().NotNil(res.ApplicationID)
	s.True(res.Session.Completed)
	s.Equal(wizard.StepCompleted, res.Session.Step)

	s.Require().Len(s.store.saved, 1)
	app := s.store.saved[0]
	s.Equal(s.id, app.SessionID)
	s.Equal("Maria Silva", app.ApplicantName)
	s.Equal("individual", app.HolderKind)
	s.Equal("Maria Silva", app.HolderName)
	s.Equal("529.982.247-25", app.HolderDocument)
	s.Equal([]string{"/uploads/applicant_identity/20260101_ab12cd34.pdf"}, []string(app.Attachments))
	s.Equal([]uuid.UUID{app.ID}, s.store.notified)
	s.Len(s.notifier.records, 1)

	// completed sessions are closed for edits
	_, err = s.wizard.UpdateSection(s.ctx, s.id, wizard.TermsPatch{}, wizard.TriggerChange)
	s.ErrorIs(err, wizard.ErrCompleted)
}

func (s *WizardServiceTestSuite) TestSubmitOutsideConfirmation() {
	s.fillAll()
	_, err := s.apps.Submit(s.ctx, s.id)
	s.ErrorIs(err, wizard.ErrNotAtConfirmation)
	s.Empty(s.notifier.records)
}

func (s *WizardServiceTestSuite) TestSubmitBlockedByEarlierStep() {
	s.fillAll()
	s.advanceToConfirmation()
	s.update(wizard.ApplicantPatch{Email: strPtr("not-an-email")}, wizard.TriggerChange)

	res, err := s.apps.Submit(s.ctx, s.id)
	s.Require().NoError(err)
	s.Require().NotEmpty(res.Violations)
	s.Equal("applicant.email", res.Violations[0].Field)
	s.False(res.Session.Frozen)
	s.Empty(s.store.saved)
}

func (s *WizardServiceTestSuite) TestNotificationFailureReopens() {
	s.fillAll()
	s.advanceToConfirmation()
	s.notifier.err = errors.New("smtp: connection refused")

	_, err := s.apps.Submit(s.ctx, s.id)
	s.ErrorIs(err, ErrNotificationFailed)

	view := s.session()
	s.False(view.Frozen)
	s.Equal(wizard.StepConfirmation, view.Step)
	s.Require().Len(s.store.saved, 1)
	s.Equal("smtp: connection refused", s.store.failed[s.store.saved[0].ID])

	// manual retry
	s.notifier.err = nil
	res, err := s.apps.Submit(s.ctx, s.id)
	s.Require().NoError(err)
	s.True(res.Session.Completed)
	s.Len(s.notifier.records, 2)
}

func (s *WizardServiceTestSuite) TestStoreFailureReopensWithoutNotifying() {
	s.fillAll()
	s.advanceToConfirmation()
	s.store.saveErr = errors.New("connection reset")

	_, err := s.apps.Submit(s.ctx, s.id)
	s.ErrorIs(err, ErrSubmissionFailed)
	s.Empty(s.notifier.records)
	s.False(s.session().Frozen)
}

func (s *WizardServiceTestSuite) TestSubmitWithoutDatabase() {
	apps := NewApplicationService(s.wizard, nil, s.notifier)
	s.fillAll()
	s.advanceToConfirmation()

	res, err := apps.Submit(s.ctx, s.id)
	s.Require().NoError(err)
	s.Nil(res.ApplicationID)
	s.True(res.Session.Completed)
}

func (s *WizardServiceTestSuite) TestConcurrentUpdatesAreSerialized() {
	var wg sync.WaitGroup
	names := []string{"Ana", "Bruno", "Carla", "Diego", "Eva", "Fábio", "Gil", "Helena"}
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.wizard.UpdateSection(s.ctx, s.id, wizard.ApplicantPatch{FullName: &name}, wizard.TriggerChange)
			s.NoError(err)
		}(n)
	}
	wg.Wait()

	s.Contains(names, s.session().Record.Applicant.FullName)
	s.Empty(s.wizard.locks)
}

func TestWizardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WizardServiceTestSuite))
}
