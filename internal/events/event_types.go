package events

import (
	"time"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemClaimed      EventType = "item_claimed"
	EventItemReleased     EventType = "item_released"
	EventClaimConflict    EventType = "claim_conflict"
	EventStatusChanged    EventType = "status_changed"
	EventObservationAdded EventType = "observation_added"
)

// Event represents a workflow event emitted by the controllers. Actor is
// the display name of the user who triggered it.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Kind      string      `json:"kind"`
	ItemID    string      `json:"item_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ItemClaimedPayload payload.
type ItemClaimedPayload struct {
	Owner string `json:"owner"`
}

// ItemReleasedPayload payload.
type ItemReleasedPayload struct {
	PreviousOwner string `json:"previous_owner"`
}

// ClaimConflictPayload payload.
type ClaimConflictPayload struct {
	CurrentOwner string `json:"current_owner,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	Note      string        `json:"note,omitempty"`
}

// ObservationAddedPayload payload.
type ObservationAddedPayload struct {
	TextPreview string `json:"text_preview"`
}
