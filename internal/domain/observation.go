package domain

import (
	"sort"
	"time"
)

// timestampLayout is the human-facing format used by the upstream services
// for observation dates.
const timestampLayout = "02/01/2006 15:04"

// missingTimestampLabel is rendered for entries whose timestamp could not
// be parsed. Such entries sort first rather than being dropped.
const missingTimestampLabel = "Data não informada"

// Observation is one timestamped free-text note in an item's history.
// Append-only; the collection is owned by the work item.
type Observation struct {
	Author    string    `json:"usuario"`
	Text      string    `json:"observacao"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"data"`
}

// NewObservation builds an entry stamped with the current time.
func NewObservation(author, text string) Observation {
	now := time.Now()
	return Observation{
		Author:    author,
		Text:      text,
		Timestamp: now,
		Label:     now.Format(timestampLayout),
	}
}

// ParseObservationTimestamp interprets the mixed timestamp formats the
// upstream services emit. It returns the zero time when nothing parses;
// callers keep such entries and render a placeholder label.
func ParseObservationTimestamp(isoValue, labelValue string) (time.Time, string) {
	if isoValue != "" {
		if ts, err := time.Parse(time.RFC3339, isoValue); err == nil {
			label := labelValue
			if label == "" {
				label = ts.Format(timestampLayout)
			}
			return ts, label
		}
	}
	if labelValue != "" {
		if ts, err := time.Parse(timestampLayout, labelValue); err == nil {
			return ts, labelValue
		}
	}
	return time.Time{}, missingTimestampLabel
}

// SortObservations orders entries by timestamp ascending. Entries with the
// zero timestamp come first. The sort is stable so equal timestamps keep
// their arrival order.
func SortObservations(entries []Observation) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

// MergeObservation inserts a new entry preserving ascending order.
func MergeObservation(entries []Observation, entry Observation) []Observation {
	merged := append(append([]Observation{}, entries...), entry)
	SortObservations(merged)
	return merged
}
