package work

import (
	"fmt"
	"sort"
	"strings"
)

// Document is the assembled entire-work rendering. Fragments are slotted by
// chapter number, so document order is always ascending no matter in which
// order fetches complete. Inserting the same chapter twice replaces the
// earlier fragment, which makes insertion idempotent.
type Document struct {
	fragments map[int]*Fragment
}

func NewDocument() *Document {
	return &Document{fragments: make(map[int]*Fragment)}
}

// Insert places a fragment at its numeric slot.
func (d *Document) Insert(f *Fragment) {
	if f == nil || f.Chapter < 1 {
		return
	}
	d.fragments[f.Chapter] = f
}

// Has reports whether a chapter is already present.
func (d *Document) Has(chapter int) bool {
	_, ok := d.fragments[chapter]
	return ok
}

// Len returns the number of inserted chapters.
func (d *Document) Len() int {
	return len(d.fragments)
}

// Fragments returns the inserted fragments in ascending chapter order.
func (d *Document) Fragments() []*Fragment {
	out := make([]*Fragment, 0, len(d.fragments))
	for _, f := range d.fragments {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chapter < out[j].Chapter })
	return out
}

// Chapters returns the inserted chapter numbers in ascending order.
func (d *Document) Chapters() []int {
	out := make([]int, 0, len(d.fragments))
	for ch := range d.fragments {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// HTML renders the continuous scroll: each chapter under a separator
// heading, closed by the terminal marker.
func (d *Document) HTML() string {
	var b strings.Builder
	for _, f := range d.Fragments() {
		title := f.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", f.Chapter)
		}
		fmt.Fprintf(&b, "<h4 id=\"separator%d\">%s</h4>\n<hr>\n", f.Chapter, title)
		fmt.Fprintf(&b, "<div id=\"storytext%d\">%s</div>\n", f.Chapter, f.HTML)
	}
	b.WriteString("<hr id=\"workend\">\n")
	return b.String()
}
