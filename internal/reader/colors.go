package reader

import "betterfiction/pkg/models"

// Bookmark marker colors.
const (
	ColorDefault   = "#096dd9"
	ColorCompleted = "#237804"
	ColorPlanned   = "#d48806"
	ColorDropped   = "#a8071a"
)

// MarkerColor picks the marker color for a chapter position. Status-based
// coloring only applies when the organizer feature is on.
func MarkerColor(info models.Settings, b *models.Bookmark, chapters, chapter int) string {
	if !info.Bool("organizer") || b == nil {
		return ColorDefault
	}
	switch {
	case b.Status == models.StatusCompleted,
		b.Status == models.StatusAutomatic && chapter == chapters:
		return ColorCompleted
	case b.Status == models.StatusPlanned,
		b.Status == models.StatusAutomatic && chapter == 1:
		return ColorPlanned
	case b.Status == models.StatusDropped:
		return ColorDropped
	default:
		return ColorDefault
	}
}
