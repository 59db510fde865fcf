package wizard

import "fmt"

// State is the serializable form of an engine, used by session stores
// between requests. Pending holds the newest ticket sequence per slot so
// lookups resolved after a reload are still checked for staleness.
type State struct {
	Step    Step                  `json:"step"`
	Record  ApplicationRecord     `json:"record"`
	Frozen  bool                  `json:"frozen"`
	Seq     uint64                `json:"seq"`
	Pending map[LookupSlot]uint64 `json:"pending,omitempty"`
}

func (e *Engine) State() State {
	pending := make(map[LookupSlot]uint64, len(e.pending))
	for k, v := range e.pending {
		pending[k] = v
	}
	return State{
		Step:    e.step,
		Record:  e.record.Clone(),
		Frozen:  e.frozen,
		Seq:     e.seq,
		Pending: pending,
	}
}

// Restore rebuilds an engine from a saved State. Collaborators and options are
// not part of the state and must be passed again.
func Restore(st State, opts ...Option) (*Engine, error) {
	if !st.Step.Valid() {
		return nil, fmt.Errorf("wizard: invalid step %d", st.Step)
	}
	if st.Frozen && st.Step == StepCompleted {
		return nil, fmt.Errorf("wizard: completed state cannot be frozen")
	}
	e := New(opts...)
	e.step = st.Step
	e.record = st.Record.Clone()
	if e.record.Holder == nil {
		e.record.Holder = newHolder(HolderIndividual)
	}
	e.frozen = st.Frozen
	e.seq = st.Seq
	for k, v := range st.Pending {
		e.pending[k] = v
	}
	return e, nil
}
