package domain

import (
	"sort"
	"time"
)

// Timeline actions, shipment-level and detail-level.
const (
	ActionStarted          = "started"
	ActionSent             = "sent"
	ActionReceivingStarted = "receiving_started"
	ActionCompleted        = "completed"
	ActionCanceled         = "canceled"
	ActionMarkedLost       = "marked_lost"
	ActionBoxAdded         = "box_added"
	ActionBoxRemoved       = "box_removed"
	ActionBoxLost          = "box_lost"
	ActionBoxReceived      = "box_received"
)

// HistoryEntry is one line of the shipment timeline. BoxLabel is empty for
// shipment-level transitions.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	BoxLabel  string    `json:"box_label,omitempty"`
}

// HistoryDay groups the timeline entries of one calendar date (UTC).
type HistoryDay struct {
	Date    string         `json:"date"` // YYYY-MM-DD
	Entries []HistoryEntry `json:"entries"`
}

// BuildTimeline assembles the chronological log of a shipment from its
// populated timestamp/actor pairs, shipment-level and per-detail. Entries are
// grouped by calendar date; days are sorted newest first, and within each day
// later entries come first. The timeline is recomputed from the snapshot on
// every call, never maintained incrementally.
func BuildTimeline(s *Shipment) []HistoryDay {
	var entries []HistoryEntry

	entries = append(entries, HistoryEntry{Action: ActionStarted, Timestamp: s.StartedOn, Actor: s.StartedBy})
	if s.SentOn != nil {
		entries = append(entries, HistoryEntry{Action: ActionSent, Timestamp: *s.SentOn, Actor: deref(s.SentBy)})
	}
	if s.ReceivingStartedOn != nil {
		entries = append(entries, HistoryEntry{Action: ActionReceivingStarted, Timestamp: *s.ReceivingStartedOn, Actor: deref(s.ReceivingStartedBy)})
	}
	if s.CompletedOn != nil {
		entries = append(entries, HistoryEntry{Action: ActionCompleted, Timestamp: *s.CompletedOn, Actor: deref(s.CompletedBy)})
	}
	if s.CanceledOn != nil {
		entries = append(entries, HistoryEntry{Action: ActionCanceled, Timestamp: *s.CanceledOn, Actor: deref(s.CanceledBy)})
	}

	for _, d := range s.Details {
		label := d.Box.LabelIdentifier
		entries = append(entries, HistoryEntry{Action: ActionBoxAdded, Timestamp: d.CreatedOn, Actor: d.CreatedBy, BoxLabel: label})
		if d.RemovedOn != nil {
			entries = append(entries, HistoryEntry{Action: ActionBoxRemoved, Timestamp: *d.RemovedOn, Actor: deref(d.RemovedBy), BoxLabel: label})
		}
		if d.LostOn != nil {
			entries = append(entries, HistoryEntry{Action: ActionBoxLost, Timestamp: *d.LostOn, Actor: deref(d.LostBy), BoxLabel: label})
		}
		if d.ReceivedOn != nil {
			entries = append(entries, HistoryEntry{Action: ActionBoxReceived, Timestamp: *d.ReceivedOn, Actor: deref(d.ReceivedBy), BoxLabel: label})
		}
	}

	byDay := make(map[string][]HistoryEntry)
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			continue
		}
		day := e.Timestamp.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], e)
	}

	days := make([]HistoryDay, 0, len(byDay))
	for date, es := range byDay {
		sort.SliceStable(es, func(i, j int) bool {
			return es[i].Timestamp.After(es[j].Timestamp)
		})
		days = append(days, HistoryDay{Date: date, Entries: es})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date > days[j].Date
	})
	return days
}

func deref(a *Actor) Actor {
	if a == nil {
		return Actor{}
	}
	return *a
}
