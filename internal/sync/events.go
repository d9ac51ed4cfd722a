package sync

import (
	"time"

	"betterfiction/pkg/models"
)

const (
	EventBookmarkUpdate = "bookmark.update"
	EventBookmarkDelete = "bookmark.delete"
	EventHubWelcome     = "hub.welcome"
)

// BookmarkEvent is broadcast to connected readers after every write, so
// other open pages can refresh their snapshots if they care to.
type BookmarkEvent struct {
	Type     string        `json:"type"`
	ID       string        `json:"id"`
	Chapter  int           `json:"chapter,omitempty"`
	Chapters int           `json:"chapters,omitempty"`
	Status   models.Status `json:"status,omitempty"`
	At       time.Time     `json:"at"`
}

// UpdateEvent builds the event for a bookmark upsert.
func UpdateEvent(b models.Bookmark) BookmarkEvent {
	return BookmarkEvent{
		Type:     EventBookmarkUpdate,
		ID:       b.ID,
		Chapter:  b.Chapter,
		Chapters: b.Chapters,
		Status:   b.Status,
		At:       time.Now().UTC(),
	}
}

// DeleteEvent builds the event for a bookmark removal.
func DeleteEvent(id string) BookmarkEvent {
	return BookmarkEvent{
		Type: EventBookmarkDelete,
		ID:   id,
		At:   time.Now().UTC(),
	}
}

// HubEvent is the non-bookmark envelope on the same stream, currently only
// the welcome handshake.
type HubEvent struct {
	Type    string    `json:"type"`
	Clients int       `json:"clients"`
	At      time.Time `json:"at"`
}

// WelcomeEvent greets a new subscriber with the current subscriber count.
func WelcomeEvent(clients int) HubEvent {
	return HubEvent{
		Type:    EventHubWelcome,
		Clients: clients,
		At:      time.Now().UTC(),
	}
}
