package tx

import "fmt"

// Propagation controls how Begin treats a transaction that is already
// active on the call chain.
type Propagation uint8

const (
	// PropagationRequired joins the active transaction, or starts a new
	// physical transaction when none is active.
	PropagationRequired Propagation = iota

	// PropagationRequiresNew always starts a new physical transaction on a
	// fresh connection. The active one is suspended until the new one ends.
	PropagationRequiresNew
)

// String implements fmt.Stringer.
func (p Propagation) String() string {
	switch p {
	case PropagationRequired:
		return "REQUIRED"
	case PropagationRequiresNew:
		return "REQUIRES_NEW"
	default:
		return fmt.Sprintf("Propagation(%d)", uint8(p))
	}
}

// Definition describes the transaction requested by Begin.
type Definition struct {
	// Name shows up in logs and spans (e.g. "OrderService.Place").
	Name string

	// Propagation defaults to PropagationRequired.
	Propagation Propagation

	// ReadOnly applies to new physical transactions only. Participants
	// report the flag of the transaction they joined.
	ReadOnly bool
}

// DefaultDefinition returns a REQUIRED read-write definition.
func DefaultDefinition() Definition {
	return Definition{Propagation: PropagationRequired}
}

// RequiresNew returns a REQUIRES_NEW read-write definition.
func RequiresNew() Definition {
	return Definition{Propagation: PropagationRequiresNew}
}

// WithName returns a copy of d with the given name.
func (d Definition) WithName(name string) Definition {
	d.Name = name
	return d
}

// AsReadOnly returns a copy of d flagged read-only.
func (d Definition) AsReadOnly() Definition {
	d.ReadOnly = true
	return d
}

func (d Definition) String() string {
	s := d.Propagation.String()
	if d.ReadOnly {
		s += ",readOnly"
	}
	if d.Name != "" {
		return "[" + d.Name + "]: " + s
	}
	return s
}
