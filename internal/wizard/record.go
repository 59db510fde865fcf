package wizard

import (
	"encoding/json"
	"fmt"
)

// Step is the wizard position. Steps 1-4 collect data; StepCompleted is terminal.
type Step int

const (
	StepApplicant Step = iota + 1
	StepHolder
	StepTrademark
	StepConfirmation
	StepCompleted
)

const TotalSteps = int(StepCompleted)

func (s Step) Valid() bool {
	return s >= StepApplicant && s <= StepCompleted
}

func (s Step) String() string {
	switch s {
	case StepApplicant:
		return "applicant"
	case StepHolder:
		return "holder"
	case StepTrademark:
		return "trademark"
	case StepConfirmation:
		return "confirmation"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type ContactPreference string

const (
	ContactWhatsApp ContactPreference = "whatsapp"
	ContactEmail    ContactPreference = "email"
)

type TrademarkCategory string

const (
	CategoryGoods    TrademarkCategory = "goods"
	CategoryServices TrademarkCategory = "services"
	CategoryOther    TrademarkCategory = "other"
)

type HolderKind string

const (
	HolderIndividual   HolderKind = "individual"
	HolderOrganization HolderKind = "organization"
)

type RepresentativeRole string

const (
	RoleSelf              RepresentativeRole = "self"
	RoleNonRepresentative RepresentativeRole = "non_representative"
	RoleAttorneyInFact    RepresentativeRole = "attorney_in_fact"
)

// Address is shared by the applicant, the individual holder and registry snapshots.
type Address struct {
	PostalCode   string `json:"postalCode" validate:"required,cep"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,uf"`
}

// Applicant is the person filling the form, not necessarily the trademark owner.
// Field order is the order violations are reported in.
type Applicant struct {
	FullName          string            `json:"fullName" validate:"required"`
	TaxID             string            `json:"taxId" validate:"required,cpf"`
	Email             string            `json:"email" validate:"required,mailbox"`
	Phone             string            `json:"phone" validate:"required,phone_br"`
	Address           Address           `json:"address"`
	ContactPreference ContactPreference `json:"contactPreference" validate:"required,oneof=whatsapp email"`
	IdentityDocument  string            `json:"identityDocument" validate:"required"`
}

type Trademark struct {
	Name        string            `json:"name" validate:"required"`
	Category    TrademarkCategory `json:"category" validate:"required,oneof=goods services other"`
	Description string            `json:"description" validate:"required,min=10"`
	HasLogo     *bool             `json:"hasLogo" validate:"required"`
	Logo        string            `json:"logo"`
}

type Terms struct {
	Accepted bool `json:"accepted"`
}

// ApplicationRecord is the aggregate the wizard mutates in place.
type ApplicationRecord struct {
	Applicant Applicant `json:"applicant"`
	Holder    Holder    `json:"holder"`
	Trademark Trademark `json:"trademark"`
	Terms     Terms     `json:"terms"`
}

// NewRecord returns the empty record a session starts with.
func NewRecord() ApplicationRecord {
	return ApplicationRecord{
		Applicant: Applicant{ContactPreference: ContactWhatsApp},
		Holder:    newHolder(HolderIndividual),
	}
}

// Clone returns a deep copy; nothing in the copy aliases the receiver.
func (r ApplicationRecord) Clone() ApplicationRecord {
	out := r
	if r.Holder != nil {
		out.Holder = r.Holder.clone()
	}
	out.Trademark.HasLogo = cloneBool(r.Trademark.HasLogo)
	return out
}

// Attachments lists every non-empty document reference in the record.
func (r ApplicationRecord) Attachments() []string {
	var refs []string
	add := func(ref string) {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	add(r.Applicant.IdentityDocument)
	switch h := r.Holder.(type) {
	case *IndividualHolder:
		add(h.IdentityDocument)
		add(h.QualificationProof)
		add(h.PowerOfAttorney)
	case *OrganizationHolder:
		add(h.PowerOfAttorney)
	}
	add(r.Trademark.Logo)
	return refs
}

type recordJSON struct {
	Applicant Applicant       `json:"applicant"`
	Holder    json.RawMessage `json:"holder"`
	Trademark Trademark       `json:"trademark"`
	Terms     Terms           `json:"terms"`
}

func (r *ApplicationRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	holder, err := decodeHolder(raw.Holder)
	if err != nil {
		return err
	}
	*r = ApplicationRecord{
		Applicant: raw.Applicant,
		Holder:    holder,
		Trademark: raw.Trademark,
		Terms:     raw.Terms,
	}
	return nil
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func boolPtr(b bool) *bool {
	return &b
}
