package dto

import "github.com/opsdesk/console-gateway/internal/domain"

// WorkItemResponse is one card on the board.
type WorkItemResponse struct {
	ID          string            `json:"id"`
	Titulo      string            `json:"titulo,omitempty"`
	Status      string            `json:"status"`
	Prioridade  string            `json:"prioridade"`
	Responsavel string            `json:"responsavel,omitempty"`
	Detalhes    map[string]string `json:"detalhes,omitempty"`
}

// BoardResponse partitions a kind into the open board and the closed
// history.
type BoardResponse struct {
	Abertos    []WorkItemResponse `json:"abertos"`
	Concluidos []WorkItemResponse `json:"concluidos"`
}

// StatusRequest selects a target status.
type StatusRequest struct {
	Status string `json:"status"`
}

// StatusConfirmRequest confirms a terminal status, optionally with a
// closing observation.
type StatusConfirmRequest struct {
	Status     string `json:"status"`
	Observacao string `json:"observacao"`
}

// TransitionResponse reports what a status request produced.
type TransitionResponse struct {
	Aplicado         bool             `json:"aplicado"`
	ExigeConfirmacao bool             `json:"exige_confirmacao"`
	ExigeObservacao  bool             `json:"exige_observacao"`
	Item             WorkItemResponse `json:"item"`
}

// FromWorkItem maps a domain item to its response shape.
func FromWorkItem(item domain.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		ID:          item.ID,
		Titulo:      item.Title,
		Status:      string(item.Status),
		Prioridade:  string(item.Priority),
		Responsavel: item.Owner,
		Detalhes:    item.Details,
	}
}

// FromWorkItems maps a slice of domain items.
func FromWorkItems(items []domain.WorkItem) []WorkItemResponse {
	out := make([]WorkItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromWorkItem(item))
	}
	return out
}
