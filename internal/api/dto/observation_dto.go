package dto

import (
	"time"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// ObservationResponse is one log entry, oldest first in listings. Data
// carries the display label; Timestamp is zero when the source date could
// not be parsed.
type ObservationResponse struct {
	Usuario    string    `json:"usuario"`
	Observacao string    `json:"observacao"`
	Data       string    `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

// ObservationAppendRequest payload for a new entry.
type ObservationAppendRequest struct {
	Observacao string `json:"observacao"`
}

// FromObservations maps domain entries to their response shape.
func FromObservations(entries []domain.Observation) []ObservationResponse {
	out := make([]ObservationResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ObservationResponse{
			Usuario:    entry.Author,
			Observacao: entry.Text,
			Data:       entry.Label,
			Timestamp:  entry.Timestamp,
		})
	}
	return out
}
