package wizard

import "fmt"

// Section names a subsection of the record.
type Section string

const (
	SectionApplicant Section = "applicant"
	SectionHolder    Section = "trademarkHolder"
	SectionTrademark Section = "trademark"
	SectionTerms     Section = "terms"
)

// ParseSection maps a section name to its constant.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionApplicant, SectionHolder, SectionTrademark, SectionTerms:
		return Section(s), nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// Trigger tells UpdateSection whether the edit is a keystroke or a field blur.
// Lookups are only requested on blur.
type Trigger int

const (
	TriggerChange Trigger = iota
	TriggerBlur
)

func ParseTrigger(s string) Trigger {
	if s == "blur" {
		return TriggerBlur
	}
	return TriggerChange
}

// SectionPatch is a partial update of one section. Nil fields are left untouched.
type SectionPatch interface {
	Section() Section
}

type AddressPatch struct {
	PostalCode   *string `json:"postalCode"`
	Street       *string `json:"street"`
	Number       *string `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood *string `json:"neighborhood"`
	City         *string `json:"city"`
	State        *string `json:"state"`
}

type ApplicantPatch struct {
	FullName          *string            `json:"fullName"`
	TaxID             *string            `json:"taxId"`
	Phone             *string            `json:"phone"`
	Email             *string            `json:"email"`
	Address           *AddressPatch      `json:"address"`
	ContactPreference *ContactPreference `json:"contactPreference"`
	IdentityDocument  *string            `json:"identityDocument"`
}

func (ApplicantPatch) Section() Section { return SectionApplicant }

// HolderPatch carries fields of both variants; only those of the active
// (or newly selected) kind may be set.
type HolderPatch struct {
	Kind               *HolderKind         `json:"kind"`
	RepresentativeRole *RepresentativeRole `json:"representativeRole"`
	PowerOfAttorney    *string             `json:"powerOfAttorney"`

	// individual
	HasRelatedBusiness *bool         `json:"hasRelatedBusiness"`
	FullName           *string       `json:"fullName"`
	TaxID              *string       `json:"taxId"`
	BirthDate          *string       `json:"birthDate"`
	Address            *AddressPatch `json:"address"`
	Profession         *string       `json:"profession"`
	IdentityDocument   *string       `json:"identityDocument"`
	QualificationProof *string       `json:"qualificationProof"`

	// organization
	CompanyID         *string `json:"companyId"`
	RegistryConfirmed *bool   `json:"registryConfirmed"`
}

func (HolderPatch) Section() Section { return SectionHolder }

func (p HolderPatch) hasIndividualFields() bool {
	return p.HasRelatedBusiness != nil || p.FullName != nil || p.TaxID != nil ||
		p.BirthDate != nil || p.Address != nil || p.Profession != nil ||
		p.IdentityDocument != nil || p.QualificationProof != nil
}

func (p HolderPatch) hasOrganizationFields() bool {
	return p.CompanyID != nil || p.RegistryConfirmed != nil
}

type TrademarkPatch struct {
	Name        *string            `json:"name"`
	Category    *TrademarkCategory `json:"category"`
	Description *string            `json:"description"`
	HasLogo     *bool              `json:"hasLogo"`
	Logo        *string            `json:"logo"`
}

func (TrademarkPatch) Section() Section { return SectionTrademark }

type TermsPatch struct {
	Accepted *bool `json:"accepted"`
}

func (TermsPatch) Section() Section { return SectionTerms }

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setMasked(dst *string, src *string, mask func(string) string) {
	if src != nil {
		*dst = mask(*src)
	}
}
