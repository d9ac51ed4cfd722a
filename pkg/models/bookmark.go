package models

import (
	"fmt"
	"time"
)

// Bookmark is the persisted reading-position record for one story.
// A record exists iff the user has bookmarked at least one chapter;
// deleting the bookmark removes the record entirely.
type Bookmark struct {
	ID        string    `json:"id"`
	Chapter   int       `json:"chapter"`
	Chapters  int       `json:"chapters"`
	Fandom    string    `json:"fandom,omitempty"`
	Author    string    `json:"author,omitempty"`
	StoryName string    `json:"storyName,omitempty"`
	AddTime   time.Time `json:"addTime"`
	Status    Status    `json:"status"`
}

// Validate checks the invariants that must hold at write time.
// Chapters is best-effort metadata but the position must stay inside it.
func (b Bookmark) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bookmark: id required")
	}
	if b.Chapter < 1 {
		return fmt.Errorf("bookmark %s: chapter must be >= 1", b.ID)
	}
	if b.Chapters < 1 {
		return fmt.Errorf("bookmark %s: chapters must be >= 1", b.ID)
	}
	if b.Chapter > b.Chapters {
		return fmt.Errorf("bookmark %s: chapter %d out of range [1, %d]", b.ID, b.Chapter, b.Chapters)
	}
	return nil
}

// FormatAddTime renders an add time in one of the supported date layouts.
// Unknown layout names fall back to MM/DD/YY.
func FormatAddTime(t time.Time, layoutName string) string {
	if t.IsZero() {
		return "-"
	}
	switch layoutName {
	case "DD.MM.YYYY":
		return t.Format("02.01.2006")
	case "DD Mon YYYY":
		return t.Format("2 Jan 2006")
	default: // "MM/DD/YY" and anything unrecognized
		return t.Format("01/02/2006")
	}
}
