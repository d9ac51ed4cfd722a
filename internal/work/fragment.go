package work

import "strings"

// Fragment is the fetched content of one chapter, keyed by chapter number.
// It exists only in memory during entire-work assembly.
type Fragment struct {
	Chapter int
	Title   string
	HTML    string
	Text    string
}

// WordCount counts the words of the chapter's plain text.
func (f *Fragment) WordCount() int {
	return len(strings.Fields(f.Text))
}
