package domain

// Status enumerates lifecycle states shared by chamados and SARs. The
// values are the exact strings the upstream services exchange.
type Status string

const (
	StatusPending    Status = "Pendente"
	StatusInProgress Status = "Em Andamento"
	StatusCompleted  Status = "Concluído"
	StatusCancelled  Status = "Cancelado"
)

// Priority enumerates urgency labels as rendered on cards.
type Priority string

const (
	PriorityLow    Priority = "Baixa"
	PriorityNormal Priority = "Normal"
	PriorityMedium Priority = "Média"
	PriorityHigh   Priority = "Alta"
)

// WorkItem is a claimable unit of work: a support ticket (chamado) or a
// field-service work order (SAR). Details carries descriptive fields that
// are rendered but never branched on.
type WorkItem struct {
	ID       string
	Title    string
	Status   Status
	Priority Priority
	Owner    string
	Details  map[string]string
}

// Claimed reports whether the item currently has an owner.
func (w *WorkItem) Claimed() bool {
	return w.Owner != ""
}

// ParseStatus validates a user-supplied status string.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(raw), true
	}
	return "", false
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusPending, StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether moving from current to next is permitted.
func CanTransition(current, next Status) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
