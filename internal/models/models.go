// package models defines the data model for the media review client
package models

import (
	"fmt"
	"sort"
	"strings"
)

// AssetState represents the review state of an asset on the backend.
type AssetState string

const (
	DecisionPending AssetState = "DECISION_PENDING"
	DecidedKeep     AssetState = "DECIDED_KEEP"
	DecidedReject   AssetState = "DECIDED_REJECT"
)

// Valid reports whether the state is one of the known review states.
func (s AssetState) Valid() bool {
	switch s {
	case DecisionPending, DecidedKeep, DecidedReject:
		return true
	}
	return false
}

// DecisionAction is an operator action applied to an asset.
type DecisionAction string

const (
	ActionKeep   DecisionAction = "KEEP"
	ActionReject DecisionAction = "REJECT"
	ActionClear  DecisionAction = "CLEAR"
)

// ParseAction converts user input into a [DecisionAction].
func ParseAction(s string) (DecisionAction, error) {
	switch DecisionAction(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionKeep:
		return ActionKeep, nil
	case ActionReject:
		return ActionReject, nil
	case ActionClear:
		return ActionClear, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// NextState computes the target state for an action against the current
// state. CLEAR only resets decided assets; every other combination that
// would not change anything returns the current state unchanged, which
// callers treat as a no-op.
func NextState(action DecisionAction, current AssetState) AssetState {
	switch action {
	case ActionKeep:
		return DecidedKeep
	case ActionReject:
		return DecidedReject
	case ActionClear:
		if current == DecidedKeep || current == DecidedReject {
			return DecisionPending
		}
	}
	return current
}

// AssetSummary is the list-view representation of an asset.
type AssetSummary struct {
	ID        string     `json:"uuid"`
	State     AssetState `json:"state"`
	MediaType string     `json:"media_type"`
	Title     string     `json:"title"`
	CreatedAt string     `json:"created_at"`
}

// Asset is the full detail representation, the only mutable fields from
// the client's perspective are State, Tags and Notes.
type Asset struct {
	Summary    AssetSummary   `json:"summary"`
	Tags       []string       `json:"tags"`
	Notes      string         `json:"notes"`
	Derived    map[string]any `json:"derived,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
}

// AssetPage is one page of a cursor-paginated asset listing.
type AssetPage struct {
	Items      []AssetSummary `json:"items"`
	NextCursor string         `json:"next_cursor"`
}

// MetadataPatch carries the mutable metadata fields of an asset. Nil
// fields are left untouched server-side.
type MetadataPatch struct {
	Tags  []string `json:"tags,omitempty"`
	Notes *string  `json:"notes,omitempty"`
}

// NormalizeTags trims whitespace, drops empties, and deduplicates while
// preserving first-seen order. The result round-trips exactly through a
// patch-then-read cycle.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// NormalizeNotes trims surrounding whitespace from free-form notes.
func NormalizeNotes(notes string) string {
	return strings.TrimSpace(notes)
}

// ReportStatus is the lifecycle status of a batch move report.
type ReportStatus string

const (
	ReportPending ReportStatus = "PENDING"
	ReportRunning ReportStatus = "RUNNING"
	ReportDone    ReportStatus = "DONE"
	ReportPartial ReportStatus = "PARTIAL"
	ReportFailed  ReportStatus = "FAILED"
)

// Terminal reports whether the status indicates the batch finished.
func (s ReportStatus) Terminal() bool {
	switch s {
	case ReportDone, ReportPartial, ReportFailed:
		return true
	}
	return false
}

// ReportError describes a single asset that failed within a batch move.
type ReportError struct {
	AssetID string `json:"asset_id"`
	Reason  string `json:"reason"`
}

// BatchReport is the terminal (or in-progress) report for a batch move.
type BatchReport struct {
	BatchID     string        `json:"batch_id"`
	Status      ReportStatus  `json:"status"`
	MovedCount  int           `json:"moved_count"`
	FailedCount int           `json:"failed_count"`
	Errors      []ReportError `json:"errors"`
}

// SortErrors orders the report's errors by asset ID ascending so that
// repeated renders of the same report are deterministic.
func (r *BatchReport) SortErrors() {
	sort.Slice(r.Errors, func(i, j int) bool {
		return r.Errors[i].AssetID < r.Errors[j].AssetID
	})
}
