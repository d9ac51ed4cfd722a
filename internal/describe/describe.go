// Package describe parses a story listing's metadata line into typed,
// ordered spans. The visual layer that renders them stays external; this
// package only classifies, orders and colors.
package describe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Meta describes how one metadata kind is ordered and styled.
type Meta struct {
	Order  int
	Weight string
	// Color is the base color; ValueColors overrides it per value
	// (languages get per-language colors).
	Color       string
	ValueColors map[string]string
}

// Metatypes is the display table for every known metadata kind.
var Metatypes = map[string]Meta{
	"fandom": {Order: 0, Weight: "600"},
	"rated":  {Order: 1, Color: "rgb(8, 131, 131)"},
	"language": {Order: 2, Color: "rgb(0, 0, 255)", ValueColors: map[string]string{
		"English": "rgb(151, 0, 0)",
		"Spanish": "rgb(171, 143, 0)",
	}},
	"genre":      {Order: 3, Color: "rgb(144, 48, 0)"},
	"chapters":   {Order: 4, Color: "rgb(0, 0, 0)"},
	"words":      {Order: 5, Color: "rgb(0, 0, 0)"},
	"staff":      {Order: 3, Color: "rgb(0, 0, 0)"},
	"archive":    {Order: 4, Color: "rgb(0, 0, 0)"},
	"followers":  {Order: 5, Color: "rgb(0, 0, 0)"},
	"topics":     {Order: 4, Color: "rgb(0, 0, 0)"},
	"posts":      {Order: 5, Color: "rgb(0, 0, 0)"},
	"reviews":    {Order: 6, Color: "rgb(0, 0, 0)"},
	"favs":       {Order: 7, Color: "rgb(0, 0, 0)"},
	"follows":    {Order: 8, Color: "rgb(0, 0, 0)"},
	"updated":    {Order: 9},
	"published":  {Order: 10},
	"since":      {Order: 9},
	"founder":    {Order: 10},
	"admin":      {Order: 10},
	"characters": {Order: 12},
	"status":     {Order: 13, Weight: "600", Color: "rgb(0, 99, 31)"},
	"id":         {Order: 14},
}

// allGenres is the site's closed genre list; it disambiguates the
// positional genre slot from the character list.
var allGenres = map[string]bool{
	"Adventure": true, "Angst": true, "Crime": true, "Drama": true,
	"Family": true, "Fantasy": true, "Friendship": true, "General": true,
	"Horror": true, "Humor": true, "Hurt/Comfort": true, "Mystery": true,
	"Parody": true, "Poetry": true, "Romance": true, "Sci-Fi": true,
	"Spiritual": true, "Supernatural": true, "Suspense": true,
	"Tragedy": true, "Western": true,
}

// Span is one classified piece of the metadata line.
type Span struct {
	Kind  string // key into Metatypes, "" when unclassified
	Label string // e.g. "Words"; empty for label-less spans
	Value string
}

// fandom names may themselves contain the field separator
const placeholder = "{[@p]}"

// Parse splits a " - "-separated metadata line into classified spans.
func Parse(line string) []Span {
	// Everything before " - Rated: " is the fandom, which may contain
	// internal separators; protect them before the general split.
	if idx := strings.Index(line, " - Rated: "); idx >= 0 {
		fandom := strings.TrimPrefix(line[:idx], "Crossover - ")
		fandom = "Fandom: " + strings.ReplaceAll(fandom, " - ", placeholder)
		line = fandom + line[idx:]
	}

	parts := strings.Split(line, " - ")
	spans := make([]Span, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, placeholder, " - ")
		spans = append(spans, classify(part))
	}

	// The remaining unclassified spans are positional: language, genre,
	// characters. A non-genre value in the genre slot shifts the rest.
	positional := []string{"language", "genre", "characters"}
	for i := range spans {
		if spans[i].Kind != "" {
			continue
		}
		if len(positional) == 0 {
			spans[i].Kind = "characters"
			continue
		}
		if positional[0] == "genre" && !isGenreList(spans[i].Value) {
			positional = positional[1:]
		}
		if len(positional) == 0 {
			spans[i].Kind = "characters"
			continue
		}
		spans[i].Kind = positional[0]
		positional = positional[1:]
	}
	return spans
}

func classify(part string) Span {
	if part == "Complete" {
		return Span{Kind: "status", Value: "Complete"}
	}
	lower := strings.ToLower(part)
	for kind := range Metatypes {
		prefix := kind + ": "
		if strings.HasPrefix(lower, prefix) {
			return Span{
				Kind:  kind,
				Label: part[:len(kind)],
				Value: strings.TrimSpace(part[len(prefix):]),
			}
		}
	}
	return Span{Value: part}
}

// isGenreList reports whether a "/"-separated value consists only of known
// genres. Hurt/Comfort contains the separator itself and is special-cased.
func isGenreList(value string) bool {
	safe := strings.ReplaceAll(value, "Hurt/Comfort", "Hurt_Comfort")
	for _, g := range strings.Split(safe, "/") {
		if g == "Hurt_Comfort" {
			g = "Hurt/Comfort"
		}
		if !allGenres[g] {
			return false
		}
	}
	return true
}

// lineGroups defines which kinds share a display line; the first present
// kind of each group ends its line.
var lineGroups = [][]string{
	{"fandom"},
	{"genre", "language"},
	{"words", "posts", "followers"},
	{"follows", "favs", "reviews"},
	{"published"},
	{"status", "characters"},
}

// Group orders spans by their display order and splits them into lines.
func Group(spans []Span) [][]Span {
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	// stable insertion sort; metadata lines are short
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && order(ordered[j]) < order(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	breakAfter := make(map[string]bool)
	present := make(map[string]bool)
	for _, s := range ordered {
		present[s.Kind] = true
	}
	for _, group := range lineGroups {
		for _, kind := range group {
			if present[kind] {
				breakAfter[kind] = true
				break
			}
		}
	}

	var lines [][]Span
	var current []Span
	for _, s := range ordered {
		if s.Kind == "id" {
			continue // internal, never displayed
		}
		current = append(current, s)
		if breakAfter[s.Kind] {
			lines = append(lines, current)
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

func order(s Span) int {
	if m, ok := Metatypes[s.Kind]; ok {
		return m.Order
	}
	return 11
}

// Color resolves the display color of a span, empty when unstyled.
func Color(s Span) string {
	m, ok := Metatypes[s.Kind]
	if !ok {
		return ""
	}
	if c, ok := m.ValueColors[s.Value]; ok {
		return c
	}
	return m.Color
}

var rgbRe = regexp.MustCompile(`rgb\((\d+), ?(\d+), ?(\d+)\)`)

// Contrast inverts an rgb() color for dark-background rendering. Non-rgb
// values pass through unchanged.
func Contrast(color string) string {
	match := rgbRe.FindStringSubmatch(color)
	if match == nil {
		return color
	}
	r, _ := strconv.Atoi(match[1])
	g, _ := strconv.Atoi(match[2])
	b, _ := strconv.Atoi(match[3])
	return fmt.Sprintf("rgb(%d, %d, %d)", 255-r, 255-g, 255-b)
}
