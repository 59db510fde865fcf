package wizard

import (
	"encoding/json"
	"fmt"
)

// Holder is the trademark owner: exactly one of *IndividualHolder or
// *OrganizationHolder. Switching kinds replaces the value, so fields of the
// other variant cannot survive.
type Holder interface {
	Kind() HolderKind
	clone() Holder
}

type IndividualHolder struct {
	HasRelatedBusiness *bool              `json:"hasRelatedBusiness"`
	RepresentativeRole RepresentativeRole `json:"representativeRole" validate:"required,oneof=self attorney_in_fact"`
	FullName           string             `json:"fullName" validate:"required,min=3"`
	TaxID              string             `json:"taxId" validate:"required,cpf"`
	BirthDate          string             `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Address            Address            `json:"address"`
	Profession         string             `json:"profession" validate:"required"`
	IdentityDocument   string             `json:"identityDocument"`
	QualificationProof string             `json:"qualificationProof"`
	PowerOfAttorney    string             `json:"powerOfAttorney" validate:"required_if=RepresentativeRole attorney_in_fact"`
}

func (*IndividualHolder) Kind() HolderKind { return HolderIndividual }

func (h *IndividualHolder) clone() Holder {
	c := *h
	c.HasRelatedBusiness = cloneBool(h.HasRelatedBusiness)
	return &c
}

func (h *IndividualHolder) MarshalJSON() ([]byte, error) {
	type Alias IndividualHolder
	return json.Marshal(struct {
		Kind HolderKind `json:"kind"`
		*Alias
	}{HolderIndividual, (*Alias)(h)})
}

// RegistrySnapshot is a point-in-time copy of public company-registry fields.
type RegistrySnapshot struct {
	LegalName       string  `json:"legalName"`
	TradeName       string  `json:"tradeName"`
	PrimaryActivity string  `json:"primaryActivity"`
	Status          string  `json:"status"`
	Size            string  `json:"size"`
	LegalNature     string  `json:"legalNature"`
	Address         Address `json:"address"`
}

type OrganizationHolder struct {
	CompanyID          string             `json:"companyId" validate:"required,cnpj"`
	Registry           *RegistrySnapshot  `json:"registry" validate:"-"`
	RegistryConfirmed  *bool              `json:"registryConfirmed"`
	RepresentativeRole RepresentativeRole `json:"representativeRole"`
	PowerOfAttorney    string             `json:"powerOfAttorney"`
}

func (*OrganizationHolder) Kind() HolderKind { return HolderOrganization }

func (h *OrganizationHolder) clone() Holder {
	c := *h
	if h.Registry != nil {
		snap := *h.Registry
		c.Registry = &snap
	}
	c.RegistryConfirmed = cloneBool(h.RegistryConfirmed)
	return &c
}

func (h *OrganizationHolder) MarshalJSON() ([]byte, error) {
	type Alias OrganizationHolder
	return json.Marshal(struct {
		Kind HolderKind `json:"kind"`
		*Alias
	}{HolderOrganization, (*Alias)(h)})
}

func newHolder(kind HolderKind) Holder {
	if kind == HolderOrganization {
		return &OrganizationHolder{}
	}
	return &IndividualHolder{RepresentativeRole: RoleSelf}
}

func decodeHolder(raw json.RawMessage) (Holder, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return newHolder(HolderIndividual), nil
	}
	var head struct {
		Kind HolderKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Kind {
	case HolderIndividual:
		var h IndividualHolder
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, err
		}
		return &h, nil
	case HolderOrganization:
		var h OrganizationHolder
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, err
		}
		return &h, nil
	default:
		return nil, fmt.Errorf("unknown holder kind %q", head.Kind)
	}
}
