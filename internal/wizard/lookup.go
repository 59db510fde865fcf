package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

// AddressResult is what a postal-code lookup yields.
type AddressResult struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// AddressLookup resolves an 8-digit postal code. It returns ErrNotFound for
// unknown codes and any other error for transport failures.
type AddressLookup interface {
	LookupAddress(ctx context.Context, postalCode string) (*AddressResult, error)
}

// RegistryLookup resolves a 14-digit company id. Errors follow AddressLookup.
type RegistryLookup interface {
	LookupCompany(ctx context.Context, companyID string) (*RegistrySnapshot, error)
}

// LookupSlot identifies the field a lookup was triggered from. At most one
// lookup per slot is current; older tickets resolve as stale.
type LookupSlot string

const (
	SlotApplicantPostal LookupSlot = "applicant.address.postalCode"
	SlotHolderPostal    LookupSlot = "holder.address.postalCode"
	SlotHolderRegistry  LookupSlot = "holder.companyId"
)

func (s LookupSlot) registry() bool { return s == SlotHolderRegistry }

// LookupTicket is issued by UpdateSection on blur of a well-formed postal code
// or company id. Key holds the cleaned digits.
type LookupTicket struct {
	Slot LookupSlot `json:"slot"`
	Key  string     `json:"key"`
	Seq  uint64     `json:"seq"`
}

// LookupResult is the raw answer of a collaborator call.
type LookupResult struct {
	Address  *AddressResult
	Registry *RegistrySnapshot
	Err      error
}

type LookupStatus string

const (
	LookupApplied  LookupStatus = "applied"
	LookupNotFound LookupStatus = "not_found"
	LookupFailed   LookupStatus = "failed"
	LookupStale    LookupStatus = "stale"
)

// LookupOutcome is reported to the caller; not_found and failed are
// informational and never block step advancement.
type LookupOutcome struct {
	Slot   LookupSlot   `json:"slot"`
	Status LookupStatus `json:"status"`
	Err    error        `json:"-"`
}

var errNoCollaborator = errors.New("wizard: no lookup collaborator configured")

// Lookup performs the collaborator call for t. It reads no engine state and
// may run without holding whatever lock guards the engine.
func (e *Engine) Lookup(ctx context.Context, t LookupTicket) LookupResult {
	if t.Slot.registry() {
		if e.registry == nil {
			return LookupResult{Err: errNoCollaborator}
		}
		snap, err := e.registry.LookupCompany(ctx, t.Key)
		if err == nil && snap == nil {
			err = ErrNotFound
		}
		return LookupResult{Registry: snap, Err: err}
	}
	if e.addresses == nil {
		return LookupResult{Err: errNoCollaborator}
	}
	addr, err := e.addresses.LookupAddress(ctx, t.Key)
	if err == nil && addr == nil {
		err = ErrNotFound
	}
	return LookupResult{Address: addr, Err: err}
}

// ApplyLookup merges res into the record if t is still current: it must be the
// newest ticket of its slot, the slot's field must still hold t.Key and the
// holder variant the slot belongs to must still be active.
func (e *Engine) ApplyLookup(t LookupTicket, res LookupResult) LookupOutcome {
	out := LookupOutcome{Slot: t.Slot}
	if !e.lookupCurrent(t) {
		out.Status = LookupStale
		return out
	}
	delete(e.pending, t.Slot)

	switch {
	case errors.Is(res.Err, ErrNotFound):
		out.Status, out.Err = LookupNotFound, res.Err
		return out
	case res.Err != nil:
		out.Status, out.Err = LookupFailed, res.Err
		return out
	}

	switch t.Slot {
	case SlotApplicantPostal:
		mergeAddress(&e.record.Applicant.Address, res.Address)
	case SlotHolderPostal:
		mergeAddress(&e.record.Holder.(*IndividualHolder).Address, res.Address)
	case SlotHolderRegistry:
		org := e.record.Holder.(*OrganizationHolder)
		if res.Registry == nil {
			out.Status, out.Err = LookupFailed, fmt.Errorf("wizard: empty registry result")
			return out
		}
		snap := *res.Registry
		if org.Registry == nil || *org.Registry != snap {
			org.RegistryConfirmed = nil
		}
		org.Registry = &snap
	}
	out.Status = LookupApplied
	return out
}

// Resolve runs Lookup and ApplyLookup back to back, for single-threaded callers.
func (e *Engine) Resolve(ctx context.Context, t LookupTicket) LookupOutcome {
	return e.ApplyLookup(t, e.Lookup(ctx, t))
}

func (e *Engine) lookupCurrent(t LookupTicket) bool {
	if e.frozen || e.step == StepCompleted {
		return false
	}
	if seq, ok := e.pending[t.Slot]; !ok || seq != t.Seq {
		return false
	}
	key, ok := e.slotKey(t.Slot)
	return ok && key == t.Key
}

// slotKey returns the cleaned value currently held by the slot's field.
func (e *Engine) slotKey(slot LookupSlot) (string, bool) {
	switch slot {
	case SlotApplicantPostal:
		return cleanDigits(e.record.Applicant.Address.PostalCode), true
	case SlotHolderPostal:
		if h, ok := e.record.Holder.(*IndividualHolder); ok {
			return cleanDigits(h.Address.PostalCode), true
		}
	case SlotHolderRegistry:
		if h, ok := e.record.Holder.(*OrganizationHolder); ok {
			return cleanDigits(h.CompanyID), true
		}
	}
	return "", false
}

func (e *Engine) issueTicket(slot LookupSlot, key string) LookupTicket {
	e.seq++
	if e.pending == nil {
		e.pending = make(map[LookupSlot]uint64)
	}
	e.pending[slot] = e.seq
	return LookupTicket{Slot: slot, Key: key, Seq: e.seq}
}

// mergeAddress overwrites only the fields the lookup actually returned.
func mergeAddress(dst *Address, src *AddressResult) {
	if src == nil {
		return
	}
	if src.Street != "" {
		dst.Street = src.Street
	}
	if src.Neighborhood != "" {
		dst.Neighborhood = src.Neighborhood
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.State != "" {
		dst.State = utils.FormatStateCode(src.State)
	}
}
