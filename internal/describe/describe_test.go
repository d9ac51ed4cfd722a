package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLine = "Harry Potter - Rated: K - English - Adventure - Chapters: 12 - Words: 34,854 - Reviews: 14 - Favs: 22 - Follows: 35 - Updated: 4/2/2021 - Published: 12/29/2020 - id: 13777425"

func kinds(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Kind
	}
	return out
}

func find(spans []Span, kind string) (Span, bool) {
	for _, s := range spans {
		if s.Kind == kind {
			return s, true
		}
	}
	return Span{}, false
}

func TestParse_FullLine(t *testing.T) {
	spans := Parse(sampleLine)

	assert.Equal(t, []string{
		"fandom", "rated", "language", "genre", "chapters", "words",
		"reviews", "favs", "follows", "updated", "published", "id",
	}, kinds(spans))

	fandom, _ := find(spans, "fandom")
	assert.Equal(t, "Harry Potter", fandom.Value)
	words, _ := find(spans, "words")
	assert.Equal(t, "34,854", words.Value)
	assert.Equal(t, "Words", words.Label)
}

func TestParse_FandomMayContainSeparator(t *testing.T) {
	spans := Parse("Avatar: Last Airbender - Legend of Korra - Rated: T - English - Chapters: 3 - Words: 5,000 - id: 1")

	fandom, ok := find(spans, "fandom")
	require.True(t, ok)
	assert.Equal(t, "Avatar: Last Airbender - Legend of Korra", fandom.Value,
		"separators inside the fandom name survive")
}

func TestParse_CrossoverPrefixStripped(t *testing.T) {
	spans := Parse("Crossover - Naruto & Bleach - Rated: M - English - Chapters: 2 - id: 9")

	fandom, ok := find(spans, "fandom")
	require.True(t, ok)
	assert.Equal(t, "Naruto & Bleach", fandom.Value)
}

func TestParse_CharactersShiftWhenNoGenre(t *testing.T) {
	// "Harry P., Hermione G." is not a genre list, so the genre slot is
	// skipped and the span classifies as characters.
	spans := Parse("Some Fandom - Rated: K - English - Harry P., Hermione G. - Chapters: 1 - id: 2")

	_, hasGenre := find(spans, "genre")
	assert.False(t, hasGenre)
	chars, ok := find(spans, "characters")
	require.True(t, ok)
	assert.Equal(t, "Harry P., Hermione G.", chars.Value)
}

func TestParse_CompleteBecomesStatus(t *testing.T) {
	spans := Parse("Some Fandom - Rated: K - English - Romance - Chapters: 1 - Complete - id: 2")

	status, ok := find(spans, "status")
	require.True(t, ok)
	assert.Equal(t, "Complete", status.Value)
}

func TestIsGenreList(t *testing.T) {
	assert.True(t, isGenreList("Adventure"))
	assert.True(t, isGenreList("Romance/Drama"))
	assert.True(t, isGenreList("Hurt/Comfort"))
	assert.True(t, isGenreList("Hurt/Comfort/Angst"))
	assert.False(t, isGenreList("Harry P., Hermione G."))
	assert.False(t, isGenreList("Romance/NotAGenre"))
}

func TestGroup_OrdersAndBreaksLines(t *testing.T) {
	spans := Parse(sampleLine)
	lines := Group(spans)

	require.NotEmpty(t, lines)
	// fandom always leads its own line, the id span is never rendered
	assert.Equal(t, "fandom", lines[0][0].Kind)
	for _, line := range lines {
		for _, s := range line {
			assert.NotEqual(t, "id", s.Kind)
		}
	}

	// genre ends the line it appears on
	for _, line := range lines {
		for i, s := range line {
			if s.Kind == "genre" {
				assert.Equal(t, len(line)-1, i, "genre should close its line")
			}
		}
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "rgb(8, 131, 131)", Color(Span{Kind: "rated"}))
	assert.Equal(t, "rgb(151, 0, 0)", Color(Span{Kind: "language", Value: "English"}),
		"per-value color overrides the kind color")
	assert.Equal(t, "rgb(0, 0, 255)", Color(Span{Kind: "language", Value: "Klingon"}))
	assert.Equal(t, "", Color(Span{Kind: "nope"}))
}

func TestContrast(t *testing.T) {
	assert.Equal(t, "rgb(255, 255, 255)", Contrast("rgb(0, 0, 0)"))
	assert.Equal(t, "rgb(104, 124, 124)", Contrast("rgb(151, 131, 131)"))
	assert.Equal(t, "#096dd9", Contrast("#096dd9"), "non-rgb values pass through")
}
