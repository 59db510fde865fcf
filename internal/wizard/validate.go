package wizard

import (
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

// Reason classifies a violation; presentation layers translate it.
type Reason string

const (
	ReasonRequired     Reason = "required"
	ReasonInvalid      Reason = "invalid"
	ReasonTooShort     Reason = "too_short"
	ReasonBusinessRule Reason = "business_rule"
	ReasonNotConfirmed Reason = "not_confirmed"
	ReasonNotAllowed   Reason = "not_allowed"
	ReasonNotAccepted  Reason = "not_accepted"
)

// Violation is one failed predicate. Field is a dotted path such as
// "applicant.taxId" or "holder.address.postalCode".
type Violation struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
}

// ValidateRecord runs the predicates of one step against r. Steps outside 1-4
// have no predicates.
func ValidateRecord(r ApplicationRecord, step Step) []Violation {
	switch step {
	case StepApplicant:
		return structViolations("applicant", r.Applicant)
	case StepHolder:
		return validateHolder(r.Holder)
	case StepTrademark:
		return validateTrademark(r.Trademark)
	case StepConfirmation:
		if !r.Terms.Accepted {
			return []Violation{{Field: "terms.accepted", Reason: ReasonNotAccepted}}
		}
	}
	return nil
}

func validateHolder(h Holder) []Violation {
	switch h := h.(type) {
	case *IndividualHolder:
		return validateIndividual(h)
	case *OrganizationHolder:
		return validateOrganization(h)
	default:
		return []Violation{{Field: "holder.kind", Reason: ReasonRequired}}
	}
}

func validateIndividual(h *IndividualHolder) []Violation {
	if h.HasRelatedBusiness == nil {
		return []Violation{{Field: "holder.hasRelatedBusiness", Reason: ReasonRequired}}
	}
	// individuals with a related business must re-register as an organization
	if *h.HasRelatedBusiness {
		return []Violation{{Field: "holder.hasRelatedBusiness", Reason: ReasonBusinessRule}}
	}
	return structViolations("holder", h)
}

func validateOrganization(h *OrganizationHolder) []Violation {
	violations := structViolations("holder", h)
	if h.Registry == nil {
		return append(violations, Violation{Field: "holder.registry", Reason: ReasonRequired})
	}
	if h.RegistryConfirmed == nil {
		return append(violations, Violation{Field: "holder.registryConfirmed", Reason: ReasonRequired})
	}
	if !*h.RegistryConfirmed {
		return append(violations, Violation{Field: "holder.registryConfirmed", Reason: ReasonNotConfirmed})
	}
	switch h.RepresentativeRole {
	case RoleSelf, RoleAttorneyInFact:
	case "":
		violations = append(violations, Violation{Field: "holder.representativeRole", Reason: ReasonRequired})
	case RoleNonRepresentative:
		violations = append(violations, Violation{Field: "holder.representativeRole", Reason: ReasonNotAllowed})
	default:
		violations = append(violations, Violation{Field: "holder.representativeRole", Reason: ReasonInvalid})
	}
	return violations
}

func validateTrademark(t Trademark) []Violation {
	violations := structViolations("trademark", t)
	if t.HasLogo != nil && *t.HasLogo && t.Logo == "" {
		violations = append(violations, Violation{Field: "trademark.logo", Reason: ReasonRequired})
	}
	return violations
}

// structViolations runs the validate tags of v and maps them to violations
// under prefix, in struct field order.
func structViolations(prefix string, v interface{}) []Violation {
	err := utils.ValidateStruct(v)
	if err == nil {
		return nil
	}
	errs := utils.GetValidationErrors(err)
	violations := make([]Violation, 0, len(errs))
	for _, e := range errs {
		violations = append(violations, Violation{
			Field:  prefix + "." + e.Field,
			Reason: reasonFor(e.Tag),
		})
	}
	return violations
}

func reasonFor(tag string) Reason {
	switch tag {
	case "required", "required_if":
		return ReasonRequired
	case "min":
		return ReasonTooShort
	default:
		return ReasonInvalid
	}
}
