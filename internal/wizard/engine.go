package wizard

import (
	"fmt"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

// Engine drives one application through the wizard. It is not safe for
// concurrent use; callers serialize access per session.
type Engine struct {
	step    Step
	record  ApplicationRecord
	frozen  bool
	seq     uint64
	pending map[LookupSlot]uint64

	addresses    AddressLookup
	registry     RegistryLookup
	strictSubmit bool
}

type Option func(*Engine)

func WithAddressLookup(l AddressLookup) Option {
	return func(e *Engine) { e.addresses = l }
}

func WithRegistryLookup(l RegistryLookup) Option {
	return func(e *Engine) { e.registry = l }
}

// WithStrictSubmit makes Submit validate steps 1-4 instead of step 4 only.
func WithStrictSubmit() Option {
	return func(e *Engine) { e.strictSubmit = true }
}

// New returns an engine at step 1 holding an empty record.
func New(opts ...Option) *Engine {
	e := &Engine{
		step:    StepApplicant,
		record:  NewRecord(),
		pending: make(map[LookupSlot]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Step() Step { return e.step }

func (e *Engine) Frozen() bool { return e.frozen }

func (e *Engine) Completed() bool { return e.step == StepCompleted }

// Record returns a deep copy of the current record.
func (e *Engine) Record() ApplicationRecord { return e.record.Clone() }

// Validate is a pure projection of the record; it is also what presentation
// layers poll for live field feedback.
func (e *Engine) Validate(step Step) []Violation {
	return ValidateRecord(e.record, step)
}

// GoToNextStep advances one step when the current step validates. The
// confirmation step does not advance; completion is reached through Submit.
func (e *Engine) GoToNextStep() ([]Violation, error) {
	if err := e.checkMutable(); err != nil {
		return nil, err
	}
	if v := e.Validate(e.step); len(v) > 0 {
		return v, nil
	}
	if e.step < StepConfirmation {
		e.step++
	}
	return nil, nil
}

// GoToPreviousStep moves back one step without validating, never below step 1.
func (e *Engine) GoToPreviousStep() (Step, error) {
	if err := e.checkMutable(); err != nil {
		return e.step, err
	}
	if e.step > StepApplicant {
		e.step--
	}
	return e.step, nil
}

// Submit validates the confirmation step (every step under WithStrictSubmit).
// On success the record is frozen and a copy is returned for hand-off; the
// caller follows up with MarkSubmitted or Reopen.
func (e *Engine) Submit() (*ApplicationRecord, []Violation, error) {
	if err := e.checkMutable(); err != nil {
		return nil, nil, err
	}
	if e.step != StepConfirmation {
		return nil, nil, ErrNotAtConfirmation
	}

	var violations []Violation
	if e.strictSubmit {
		for s := StepApplicant; s <= StepConfirmation; s++ {
			violations = append(violations, e.Validate(s)...)
		}
	} else {
		violations = e.Validate(StepConfirmation)
	}
	if len(violations) > 0 {
		return nil, violations, nil
	}

	e.frozen = true
	rec := e.record.Clone()
	return &rec, nil, nil
}

// MarkSubmitted moves a frozen engine to the terminal step.
func (e *Engine) MarkSubmitted() error {
	if !e.frozen {
		return ErrNotFrozen
	}
	e.frozen = false
	e.step = StepCompleted
	clear(e.pending)
	return nil
}

// Reopen unfreezes the record after a failed hand-off so the user can retry.
func (e *Engine) Reopen() error {
	if !e.frozen {
		return ErrNotFrozen
	}
	e.frozen = false
	return nil
}

func (e *Engine) checkMutable() error {
	if e.step == StepCompleted {
		return ErrCompleted
	}
	if e.frozen {
		return ErrFrozen
	}
	return nil
}

// Derivation names an auto-fill rule that fired during UpdateSection.
type Derivation string

const (
	DerivedVariantSwitched Derivation = "holder_variant_switched"
	DerivedSelfCopy        Derivation = "holder_self_copy"
	DerivedAttorneyReset   Derivation = "holder_attorney_reset"
	DerivedRegistryCleared Derivation = "holder_registry_cleared"
)

// Notice is a non-blocking message about the edit, e.g. a company id that
// fails its checksum on blur.
type Notice struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

const (
	NoticeInvalidCompanyID  = "invalid_company_id"
	NoticeInvalidPostalCode = "invalid_postal_code"
)

// Update reports the side effects of one UpdateSection call.
type Update struct {
	Derived []Derivation   `json:"derived,omitempty"`
	Lookups []LookupTicket `json:"lookups,omitempty"`
	Notices []Notice       `json:"notices,omitempty"`
}

// UpdateSection merges patch into its section without validating it, then
// runs the derivation rules the edited fields feed. A patch is applied
// entirely or not at all.
func (e *Engine) UpdateSection(patch SectionPatch, trigger Trigger) (*Update, error) {
	if err := e.checkMutable(); err != nil {
		return nil, err
	}
	u := &Update{}
	switch p := patch.(type) {
	case ApplicantPatch:
		e.applyApplicant(p, trigger, u)
	case *ApplicantPatch:
		if p == nil {
			return nil, ErrNilPatch
		}
		e.applyApplicant(*p, trigger, u)
	case HolderPatch:
		if err := e.applyHolder(p, trigger, u); err != nil {
			return nil, err
		}
	case *HolderPatch:
		if p == nil {
			return nil, ErrNilPatch
		}
		if err := e.applyHolder(*p, trigger, u); err != nil {
			return nil, err
		}
	case TrademarkPatch:
		e.applyTrademark(p)
	case *TrademarkPatch:
		if p == nil {
			return nil, ErrNilPatch
		}
		e.applyTrademark(*p)
	case TermsPatch:
		setBool(&e.record.Terms.Accepted, p.Accepted)
	case *TermsPatch:
		if p == nil {
			return nil, ErrNilPatch
		}
		setBool(&e.record.Terms.Accepted, p.Accepted)
	case nil:
		return nil, ErrNilPatch
	default:
		return nil, fmt.Errorf("wizard: unsupported patch %T", patch)
	}
	return u, nil
}

func (e *Engine) applyApplicant(p ApplicantPatch, trigger Trigger, u *Update) {
	a := &e.record.Applicant
	setString(&a.FullName, p.FullName)
	setMasked(&a.TaxID, p.TaxID, utils.FormatCPF)
	setMasked(&a.Phone, p.Phone, utils.FormatPhone)
	setString(&a.Email, p.Email)
	applyAddress(&a.Address, p.Address)
	if p.ContactPreference != nil {
		a.ContactPreference = *p.ContactPreference
	}
	setString(&a.IdentityDocument, p.IdentityDocument)

	if trigger == TriggerBlur && p.Address != nil && p.Address.PostalCode != nil {
		e.postalTicket(SlotApplicantPostal, a.Address.PostalCode, u)
	}
}

func (e *Engine) applyHolder(p HolderPatch, trigger Trigger, u *Update) error {
	kind := e.record.Holder.Kind()
	if p.Kind != nil {
		if *p.Kind != HolderIndividual && *p.Kind != HolderOrganization {
			return ErrUnknownKind
		}
		kind = *p.Kind
	}
	if (kind == HolderIndividual && p.hasOrganizationFields()) ||
		(kind == HolderOrganization && p.hasIndividualFields()) {
		return ErrInactiveVariant
	}
	if kind == HolderOrganization && p.RegistryConfirmed != nil {
		org, ok := e.record.Holder.(*OrganizationHolder)
		if !ok || org.Registry == nil || companyChanged(org, p.CompanyID) {
			return ErrRegistryNotLoaded
		}
	}

	if kind != e.record.Holder.Kind() {
		e.record.Holder = newHolder(kind)
		delete(e.pending, SlotHolderPostal)
		delete(e.pending, SlotHolderRegistry)
		u.Derived = append(u.Derived, DerivedVariantSwitched)
	}

	switch h := e.record.Holder.(type) {
	case *IndividualHolder:
		e.applyIndividual(h, p, trigger, u)
	case *OrganizationHolder:
		e.applyOrganization(h, p, trigger, u)
	}
	return nil
}

func (e *Engine) applyIndividual(h *IndividualHolder, p HolderPatch, trigger Trigger, u *Update) {
	prevRelated := h.HasRelatedBusiness
	prevRole := h.RepresentativeRole

	if p.HasRelatedBusiness != nil {
		h.HasRelatedBusiness = boolPtr(*p.HasRelatedBusiness)
	}
	if p.RepresentativeRole != nil {
		h.RepresentativeRole = *p.RepresentativeRole
	}

	// the attorney-in-fact re-enters the holder's personal data
	if prevRole != RoleAttorneyInFact && h.RepresentativeRole == RoleAttorneyInFact {
		h.FullName = ""
		h.TaxID = ""
		h.BirthDate = ""
		h.Address = Address{}
		h.Profession = ""
		delete(e.pending, SlotHolderPostal)
		u.Derived = append(u.Derived, DerivedAttorneyReset)
	}

	setString(&h.FullName, p.FullName)
	setMasked(&h.TaxID, p.TaxID, utils.FormatCPF)
	setString(&h.BirthDate, p.BirthDate)
	applyAddress(&h.Address, p.Address)
	setString(&h.Profession, p.Profession)
	setString(&h.IdentityDocument, p.IdentityDocument)
	setString(&h.QualificationProof, p.QualificationProof)
	setString(&h.PowerOfAttorney, p.PowerOfAttorney)

	relatedTurnedFalse := p.HasRelatedBusiness != nil && !*p.HasRelatedBusiness &&
		(prevRelated == nil || *prevRelated)
	roleTurnedSelf := p.RepresentativeRole != nil && prevRole != RoleSelf && h.RepresentativeRole == RoleSelf
	if (relatedTurnedFalse || roleTurnedSelf) && e.selfCopyApplies(h) {
		a := e.record.Applicant
		h.FullName = a.FullName
		h.TaxID = a.TaxID
		h.Address = a.Address
		u.Derived = append(u.Derived, DerivedSelfCopy)
	}

	if trigger == TriggerBlur && p.Address != nil && p.Address.PostalCode != nil {
		e.postalTicket(SlotHolderPostal, h.Address.PostalCode, u)
	}
}

// selfCopyApplies guards the copy with an empty holder name so manual edits
// are never overwritten.
func (e *Engine) selfCopyApplies(h *IndividualHolder) bool {
	return h.HasRelatedBusiness != nil && !*h.HasRelatedBusiness &&
		h.RepresentativeRole == RoleSelf &&
		h.FullName == "" &&
		e.record.Applicant.FullName != ""
}

func (e *Engine) applyOrganization(h *OrganizationHolder, p HolderPatch, trigger Trigger, u *Update) {
	if p.CompanyID != nil {
		changed := companyChanged(h, p.CompanyID)
		h.CompanyID = utils.FormatCNPJ(*p.CompanyID)
		if changed {
			if h.Registry != nil || h.RegistryConfirmed != nil {
				u.Derived = append(u.Derived, DerivedRegistryCleared)
			}
			h.Registry = nil
			h.RegistryConfirmed = nil
		}
	}
	if p.RegistryConfirmed != nil {
		h.RegistryConfirmed = boolPtr(*p.RegistryConfirmed)
	}
	if p.RepresentativeRole != nil {
		h.RepresentativeRole = *p.RepresentativeRole
	}
	setString(&h.PowerOfAttorney, p.PowerOfAttorney)

	if trigger == TriggerBlur && p.CompanyID != nil {
		key := cleanDigits(h.CompanyID)
		if utils.ValidateCNPJ(key) {
			u.Lookups = append(u.Lookups, e.issueTicket(SlotHolderRegistry, key))
		} else if key != "" {
			u.Notices = append(u.Notices, Notice{Field: string(SlotHolderRegistry), Code: NoticeInvalidCompanyID})
		}
	}
}

func (e *Engine) applyTrademark(p TrademarkPatch) {
	t := &e.record.Trademark
	setString(&t.Name, p.Name)
	if p.Category != nil {
		t.Category = *p.Category
	}
	setString(&t.Description, p.Description)
	if p.HasLogo != nil {
		t.HasLogo = boolPtr(*p.HasLogo)
	}
	setString(&t.Logo, p.Logo)
}

func (e *Engine) postalTicket(slot LookupSlot, postalCode string, u *Update) {
	key := cleanDigits(postalCode)
	if utils.ValidateCEP(key) {
		u.Lookups = append(u.Lookups, e.issueTicket(slot, key))
	} else if key != "" {
		u.Notices = append(u.Notices, Notice{Field: string(slot), Code: NoticeInvalidPostalCode})
	}
}

func companyChanged(h *OrganizationHolder, next *string) bool {
	return next != nil && cleanDigits(*next) != cleanDigits(h.CompanyID)
}

func applyAddress(dst *Address, p *AddressPatch) {
	if p == nil {
		return
	}
	setMasked(&dst.PostalCode, p.PostalCode, utils.FormatCEP)
	setString(&dst.Street, p.Street)
	setString(&dst.Number, p.Number)
	setString(&dst.Complement, p.Complement)
	setString(&dst.Neighborhood, p.Neighborhood)
	setString(&dst.City, p.City)
	setMasked(&dst.State, p.State, utils.FormatStateCode)
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func cleanDigits(s string) string {
	return utils.OnlyDigits(s)
}
