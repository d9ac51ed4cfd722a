package reader

import (
	"context"
	"fmt"
	"time"

	"betterfiction/internal/work"
	"betterfiction/pkg/models"
)

// Messenger is the persistence boundary the page talks to. Writes are
// fire-and-forget for UI purposes: local state is applied first and the
// returned error is diagnostic, never a rollback.
type Messenger interface {
	SetBookmark(ctx context.Context, b models.Bookmark) error
	DelBookmark(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status models.Status) error
}

// Page drives the per-chapter bookmark controls for one story page. It
// operates on a load-time snapshot of the directory; staleness across
// concurrently open pages is accepted (last write wins).
type Page struct {
	Info      models.Settings
	StoryID   string
	Chapters  int
	Fandom    string
	Author    string
	StoryName string

	msg    Messenger
	dir    map[string]models.Bookmark
	marked int // currently marked chapter, 0 when none
}

func NewPage(info models.Settings, dir map[string]models.Bookmark, msg Messenger, storyID string, chapters int) *Page {
	if dir == nil {
		dir = make(map[string]models.Bookmark)
	}
	p := &Page{
		Info:     info,
		StoryID:  storyID,
		Chapters: chapters,
		msg:      msg,
		dir:      dir,
	}
	if b, ok := dir[storyID]; ok {
		p.marked = b.Chapter
	}
	return p
}

// Record returns the story's bookmark from the page snapshot, or nil.
func (p *Page) Record() *models.Bookmark {
	if b, ok := p.dir[p.StoryID]; ok {
		return &b
	}
	return nil
}

// Marked returns the chapter currently flagged as the reading position,
// 0 when the story is unbookmarked.
func (p *Page) Marked() int {
	return p.marked
}

// RefreshChapters pushes the observed total back to the store when it
// differs from the saved record. Stories grow new chapters after being
// bookmarked; the total is refreshed opportunistically on every page view.
func (p *Page) RefreshChapters(ctx context.Context) error {
	b, ok := p.dir[p.StoryID]
	if !ok || b.Chapters == p.Chapters || b.Chapter < 1 {
		return nil
	}
	b.Chapters = p.Chapters
	if b.Chapter > b.Chapters {
		b.Chapter = b.Chapters
	}
	p.dir[p.StoryID] = b
	if p.marked > b.Chapters {
		p.marked = b.Chapter
	}
	return p.msg.SetBookmark(ctx, b)
}

// ToggleResult describes the control state after a toggle transition.
type ToggleResult struct {
	Marked int // chapter now marked, 0 when unbookmarked

	// Cleared is the chapter whose mark was removed to keep at most one
	// chapter marked per story, 0 when none was.
	Cleared int

	// ShortcutVisible and ShortcutTarget drive the "go to bookmark" control.
	ShortcutVisible bool
	ShortcutTarget  int
}

// Toggle flips the bookmark control of one chapter. Activating a chapter
// that is not the saved position first clears any previously marked chapter
// inside the same transition, so at most one chapter per story is ever
// marked. Deactivating the marked chapter deletes the record entirely.
func (p *Page) Toggle(ctx context.Context, chapter int) (ToggleResult, error) {
	if chapter < 1 || chapter > p.Chapters {
		return ToggleResult{}, fmt.Errorf("reader: chapter %d out of range [1, %d]", chapter, p.Chapters)
	}

	if p.marked == chapter {
		delete(p.dir, p.StoryID)
		p.marked = 0
		res := ToggleResult{}
		if err := p.msg.DelBookmark(ctx, p.StoryID); err != nil {
			return res, fmt.Errorf("del bookmark: %w", err)
		}
		return res, nil
	}

	prev := p.marked
	existing, had := p.dir[p.StoryID]

	b := models.Bookmark{
		ID:        p.StoryID,
		Chapter:   chapter,
		Chapters:  p.Chapters,
		Fandom:    p.Fandom,
		Author:    p.Author,
		StoryName: p.StoryName,
		AddTime:   time.Now().UTC(),
		Status:    models.StatusAutomatic,
	}
	if had {
		if !existing.AddTime.IsZero() {
			b.AddTime = existing.AddTime
		}
		if existing.Status.Valid() {
			b.Status = existing.Status
		}
	}

	p.dir[p.StoryID] = b
	p.marked = chapter

	res := ToggleResult{
		Marked:          chapter,
		Cleared:         prev,
		ShortcutVisible: true,
		ShortcutTarget:  chapter,
	}
	if err := p.msg.SetBookmark(ctx, b); err != nil {
		return res, fmt.Errorf("set bookmark: %w", err)
	}
	return res, nil
}

// SetStatus records an explicit reading-status classification.
func (p *Page) SetStatus(ctx context.Context, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("reader: unknown status %q", status)
	}
	b, ok := p.dir[p.StoryID]
	if !ok {
		b = models.Bookmark{ID: p.StoryID, AddTime: time.Now().UTC()}
	}
	b.Status = status
	p.dir[p.StoryID] = b
	if err := p.msg.SetStatus(ctx, p.StoryID, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// AutoSave advances the bookmark to the visited chapter when the autoSave
// flag is on and the visit moved past the saved position. The advance goes
// through the same Toggle transition as a manual click.
func (p *Page) AutoSave(ctx context.Context, visited int) (bool, error) {
	if !p.Info.Bool("bookmarks") || !p.Info.Bool("autoSave") {
		return false, nil
	}
	if visited < 1 || visited > p.Chapters || p.marked >= visited {
		return false, nil
	}
	_, err := p.Toggle(ctx, visited)
	return true, err
}

// GoTarget returns the "go to bookmark" shortcut target and visibility.
func (p *Page) GoTarget() (int, bool) {
	return p.marked, p.marked > 0
}

// Control is the rendered state of one chapter's bookmark affordance.
type Control struct {
	Chapter int
	Marked  bool
	Color   string
}

// Reconcile re-derives the per-chapter control states across an assembled
// document. This is the final pass the assembler runs on completion.
func (p *Page) Reconcile(doc *work.Document) []Control {
	chapters := doc.Chapters()
	out := make([]Control, 0, len(chapters))
	record := p.Record()
	for _, ch := range chapters {
		out = append(out, Control{
			Chapter: ch,
			Marked:  ch == p.marked,
			Color:   MarkerColor(p.Info, record, p.Chapters, ch),
		})
	}
	return out
}
