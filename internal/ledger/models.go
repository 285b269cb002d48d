package ledger

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a ledger item.
type Status string

const (
	StatusDiscovered  Status = "discovered"
	StatusDownloading Status = "downloading"
	StatusMatching    Status = "matching"

	// Terminal states.
	StatusArchived        Status = "archived"         // confirmed new, artifact promoted
	StatusDuplicate       Status = "duplicate"        // confirmed duplicate, registry updated
	StatusAlreadyArchived Status = "already_archived" // final artifact or index entry existed
	StatusKnownDuplicate  Status = "known_duplicate"  // alias known from a previous run
	StatusFailed          Status = "failed"           // download failed, eligible for retry next run
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusDownloading,
	StatusMatching,
	StatusArchived,
	StatusDuplicate,
	StatusAlreadyArchived,
	StatusKnownDuplicate,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusArchived:        {},
	StatusDuplicate:       {},
	StatusAlreadyArchived: {},
	StatusKnownDuplicate:  {},
	StatusFailed:          {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends an episode's pipeline pass.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Item represents one processed episode persisted in SQLite.
type Item struct {
	ID              int64
	Title           string
	Source          string
	Parts           int
	DurationSeconds int
	Status          Status
	CanonicalTitle  string // set for duplicate dispositions
	ArtifactPath    string // final path for archived episodes
	ErrorMessage    string
	RunID           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetFailed marks the item failed with the given message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// DuplicateEntry is one alias to canonical-title mapping in the registry.
type DuplicateEntry struct {
	AliasTitle     string
	CanonicalTitle string
	UpdatedAt      time.Time
}

// Summary aggregates ledger counts per disposition for run reporting.
type Summary struct {
	Total           int
	Archived        int
	Duplicate       int
	AlreadyArchived int
	KnownDuplicate  int
	Failed          int
	InFlight        int
}
