// Package domain provides core business rules for the leads bounded context.
package domain

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusAssigned    Status = "assigned"
	StatusContacted   Status = "contacted"
	StatusConverted   Status = "converted"
	StatusLost        Status = "lost"
	StatusPendingSale Status = "pending_sale"
)

// transitions lists every allowed status change. Statuses without an entry are terminal.
// An assigned lead already belongs to a company, so only new leads can be listed for sale.
var transitions = map[Status][]Status{
	StatusNew:         {StatusAssigned, StatusPendingSale, StatusLost},
	StatusAssigned:    {StatusContacted, StatusConverted, StatusLost},
	StatusContacted:   {StatusConverted, StatusLost},
	StatusPendingSale: {StatusNew, StatusAssigned},
	StatusLost:        {StatusNew},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	switch s {
	case StatusNew, StatusAssigned, StatusContacted, StatusConverted, StatusLost, StatusPendingSale:
		return s, true
	}
	return "", false
}

// CanTransition reports whether a lead may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ManualTransitionAllowed reports whether an admin may perform the change through a plain
// status update. Assignment and sales have dedicated operations that also move money
// or credits, so they are excluded here.
func ManualTransitionAllowed(from, to Status) bool {
	if from == StatusPendingSale || to == StatusPendingSale || to == StatusAssigned {
		return false
	}
	return CanTransition(from, to)
}

// IsTerminal reports whether no further transitions exist.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
