package models

// Status is a reading-status classification. Automatic is a placeholder
// meaning "derive the display status from the chapter position", not a
// stored terminal state.
type Status string

const (
	StatusAutomatic Status = "Automatic"
	StatusPlanned   Status = "Planned"
	StatusReading   Status = "Reading"
	StatusCompleted Status = "Completed"
	StatusDropped   Status = "Dropped"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusAutomatic, StatusPlanned, StatusReading, StatusCompleted, StatusDropped}

// ParseStatus normalizes a raw string to a valid Status.
// Unknown or empty values become Automatic.
func ParseStatus(s string) Status {
	for _, st := range Statuses {
		if string(st) == s {
			return st
		}
	}
	return StatusAutomatic
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// DisplayStatus resolves the status shown for a bookmark. Explicit statuses
// are returned unchanged; Automatic derives from the chapter position.
// Dropped is never derived, only set explicitly.
func (b Bookmark) DisplayStatus() Status {
	if b.Status != StatusAutomatic && b.Status != "" {
		return b.Status
	}
	switch {
	case b.Chapter == b.Chapters:
		return StatusCompleted
	case b.Chapter == 1:
		return StatusPlanned
	default:
		return StatusReading
	}
}
