package entity

import "fmt"

type ChangeType int

const (
	ChangeTypeNoop ChangeType = iota
	ChangeTypeCreate
	ChangeTypeUpdate
	ChangeTypeDelete
)

func (ct ChangeType) String() string {
	switch ct {
	case ChangeTypeNoop:
		return "NOOP"
	case ChangeTypeCreate:
		return "CREATE"
	case ChangeTypeUpdate:
		return "UPDATE"
	case ChangeTypeDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one record operation against a target. For updates Record carries
// the existing record's id with the desired values; Existing holds the old state.
type Change struct {
	Type     ChangeType `json:"type"`
	Record   Record     `json:"record"`
	Existing *Record    `json:"existing,omitempty"`
}

func (c Change) String() string {
	switch c.Type {
	case ChangeTypeUpdate:
		if c.Existing != nil {
			return fmt.Sprintf("~ %s %s: %s -> %s", c.Record.Type, c.Record.Name, c.Existing.Content, c.Record.Content)
		}
		return fmt.Sprintf("~ %s", c.Record.String())
	case ChangeTypeCreate:
		return fmt.Sprintf("+ %s", c.Record.String())
	case ChangeTypeDelete:
		return fmt.Sprintf("- %s", c.Record.String())
	default:
		return c.Record.String()
	}
}

// Actions is the diff output. Apply order is Updates, Creates, Deletes.
type Actions struct {
	Updates []Change `json:"updates"`
	Creates []Change `json:"creates"`
	Deletes []Change `json:"deletes"`
}

func (a *Actions) IsEmpty() bool {
	return len(a.Updates) == 0 && len(a.Creates) == 0 && len(a.Deletes) == 0
}

func (a *Actions) Len() int {
	return len(a.Updates) + len(a.Creates) + len(a.Deletes)
}

// Ordered flattens the actions in apply order.
func (a *Actions) Ordered() []Change {
	out := make([]Change, 0, a.Len())
	out = append(out, a.Updates...)
	out = append(out, a.Creates...)
	return append(out, a.Deletes...)
}

func (a *Actions) Merge(other Actions) {
	a.Updates = append(a.Updates, other.Updates...)
	a.Creates = append(a.Creates, other.Creates...)
	a.Deletes = append(a.Deletes, other.Deletes...)
}
