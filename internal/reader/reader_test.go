package reader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterfiction/internal/work"
	"betterfiction/pkg/models"
)

// fakeMessenger records persistence calls without a real store behind it.
type fakeMessenger struct {
	sets     []models.Bookmark
	dels     []string
	statuses []models.Status
	fail     error
}

func (m *fakeMessenger) SetBookmark(ctx context.Context, b models.Bookmark) error {
	m.sets = append(m.sets, b)
	return m.fail
}

func (m *fakeMessenger) DelBookmark(ctx context.Context, id string) error {
	m.dels = append(m.dels, id)
	return m.fail
}

func (m *fakeMessenger) SetStatus(ctx context.Context, id string, status models.Status) error {
	m.statuses = append(m.statuses, status)
	return m.fail
}

func pageSettings() models.Settings {
	return models.Settings{"bookmarks": true, "organizer": true}
}

func TestNewPage_DerivesMarkFromSnapshot(t *testing.T) {
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 4, Chapters: 10},
	}
	p := NewPage(pageSettings(), dir, &fakeMessenger{}, "12345", 10)

	assert.Equal(t, 4, p.Marked())
	target, visible := p.GoTarget()
	assert.True(t, visible)
	assert.Equal(t, 4, target)
}

func TestToggle_ActivateNewChapter(t *testing.T) {
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), nil, msg, "12345", 10)
	p.StoryName = "Some Story"

	res, err := p.Toggle(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Marked)
	assert.Equal(t, 0, res.Cleared)
	assert.True(t, res.ShortcutVisible)
	assert.Equal(t, 3, res.ShortcutTarget)

	require.Len(t, msg.sets, 1)
	assert.Equal(t, "Some Story", msg.sets[0].StoryName)
	assert.Equal(t, models.StatusAutomatic, msg.sets[0].Status)
}

func TestToggle_SingleOwnerAcrossChapters(t *testing.T) {
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), nil, msg, "12345", 10)

	_, err := p.Toggle(context.Background(), 2)
	require.NoError(t, err)

	// marking another chapter clears the old mark inside the same transition
	res, err := p.Toggle(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Marked)
	assert.Equal(t, 2, res.Cleared)
	assert.Equal(t, 7, p.Marked())

	// one record per story: both writes were upserts of the same id
	require.Len(t, msg.sets, 2)
	assert.Equal(t, msg.sets[0].ID, msg.sets[1].ID)
	assert.Empty(t, msg.dels)
}

func TestToggle_DeactivateDeletesRecord(t *testing.T) {
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), nil, msg, "12345", 10)

	_, err := p.Toggle(context.Background(), 5)
	require.NoError(t, err)

	res, err := p.Toggle(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Marked)
	assert.False(t, res.ShortcutVisible)
	assert.Equal(t, 0, p.Marked())
	assert.Nil(t, p.Record())
	assert.Equal(t, []string{"12345"}, msg.dels)

	_, visible := p.GoTarget()
	assert.False(t, visible)
}

func TestToggle_PreservesAddTimeAndStatus(t *testing.T) {
	added := time.Date(2023, 11, 2, 8, 0, 0, 0, time.UTC)
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 2, Chapters: 10, AddTime: added, Status: models.StatusDropped},
	}
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), dir, msg, "12345", 10)

	_, err := p.Toggle(context.Background(), 6)
	require.NoError(t, err)

	require.Len(t, msg.sets, 1)
	assert.True(t, added.Equal(msg.sets[0].AddTime), "moving the mark keeps the original add time")
	assert.Equal(t, models.StatusDropped, msg.sets[0].Status)
}

func TestToggle_RejectsOutOfRange(t *testing.T) {
	p := NewPage(pageSettings(), nil, &fakeMessenger{}, "12345", 10)

	_, err := p.Toggle(context.Background(), 0)
	assert.Error(t, err)
	_, err = p.Toggle(context.Background(), 11)
	assert.Error(t, err)
}

func TestToggle_LocalStateAppliedBeforeMessengerError(t *testing.T) {
	msg := &fakeMessenger{fail: errors.New("store down")}
	p := NewPage(pageSettings(), nil, msg, "12345", 10)

	res, err := p.Toggle(context.Background(), 3)
	require.Error(t, err)

	// the control flips optimistically even when persistence fails
	assert.Equal(t, 3, res.Marked)
	assert.Equal(t, 3, p.Marked())
}

func TestAutoSave_GatedOnFlags(t *testing.T) {
	ctx := context.Background()

	msg := &fakeMessenger{}
	p := NewPage(models.Settings{"bookmarks": true}, nil, msg, "12345", 10)
	moved, err := p.AutoSave(ctx, 4)
	require.NoError(t, err)
	assert.False(t, moved, "autoSave flag off")

	p = NewPage(models.Settings{"bookmarks": true, "autoSave": true}, nil, msg, "12345", 10)
	moved, err = p.AutoSave(ctx, 4)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 4, p.Marked())
}

func TestAutoSave_OnlyMovesForward(t *testing.T) {
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 6, Chapters: 10},
	}
	p := NewPage(models.Settings{"bookmarks": true, "autoSave": true}, dir, &fakeMessenger{}, "12345", 10)

	moved, err := p.AutoSave(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, moved, "visiting an earlier chapter keeps the mark")
	assert.Equal(t, 6, p.Marked())
}

func TestRefreshChapters_PushesGrownTotal(t *testing.T) {
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 9, Chapters: 9},
	}
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), dir, msg, "12345", 12)

	require.NoError(t, p.RefreshChapters(context.Background()))
	require.Len(t, msg.sets, 1)
	assert.Equal(t, 12, msg.sets[0].Chapters)
	assert.Equal(t, 9, msg.sets[0].Chapter)
}

func TestRefreshChapters_ClampsShrunkTotal(t *testing.T) {
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 9, Chapters: 9},
	}
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), dir, msg, "12345", 7)

	require.NoError(t, p.RefreshChapters(context.Background()))
	require.Len(t, msg.sets, 1)
	assert.Equal(t, 7, msg.sets[0].Chapters)
	assert.Equal(t, 7, msg.sets[0].Chapter)
}

func TestRefreshChapters_NoopWhenUnchanged(t *testing.T) {
	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 2, Chapters: 10},
	}
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), dir, msg, "12345", 10)

	require.NoError(t, p.RefreshChapters(context.Background()))
	assert.Empty(t, msg.sets)
}

func TestSetStatus_CreatesLocalRecord(t *testing.T) {
	msg := &fakeMessenger{}
	p := NewPage(pageSettings(), nil, msg, "12345", 10)

	require.NoError(t, p.SetStatus(context.Background(), models.StatusPlanned))
	record := p.Record()
	require.NotNil(t, record)
	assert.Equal(t, models.StatusPlanned, record.Status)
	assert.Equal(t, []models.Status{models.StatusPlanned}, msg.statuses)

	assert.Error(t, p.SetStatus(context.Background(), models.Status("Paused")))
}

func TestMarkerColor(t *testing.T) {
	organizer := models.Settings{"organizer": true}
	off := models.Settings{}

	completed := &models.Bookmark{Status: models.StatusCompleted}
	auto := &models.Bookmark{Status: models.StatusAutomatic}
	dropped := &models.Bookmark{Status: models.StatusDropped}

	assert.Equal(t, ColorDefault, MarkerColor(off, completed, 10, 10), "organizer off means default color")
	assert.Equal(t, ColorDefault, MarkerColor(organizer, nil, 10, 5))

	assert.Equal(t, ColorCompleted, MarkerColor(organizer, completed, 10, 5))
	assert.Equal(t, ColorCompleted, MarkerColor(organizer, auto, 10, 10), "last chapter derives completed")
	assert.Equal(t, ColorPlanned, MarkerColor(organizer, auto, 10, 1), "first chapter derives planned")
	assert.Equal(t, ColorDefault, MarkerColor(organizer, auto, 10, 5))
	assert.Equal(t, ColorDropped, MarkerColor(organizer, dropped, 10, 5))
}

func TestReconcile_MatchesDocumentChapters(t *testing.T) {
	doc := work.NewDocument()
	for ch := 1; ch <= 3; ch++ {
		doc.Insert(&work.Fragment{Chapter: ch})
	}

	dir := map[string]models.Bookmark{
		"12345": {ID: "12345", Chapter: 2, Chapters: 3, Status: models.StatusAutomatic},
	}
	p := NewPage(pageSettings(), dir, &fakeMessenger{}, "12345", 3)

	controls := p.Reconcile(doc)
	require.Len(t, controls, 3)
	assert.False(t, controls[0].Marked)
	assert.True(t, controls[1].Marked)
	assert.Equal(t, ColorPlanned, controls[0].Color)
	assert.Equal(t, ColorDefault, controls[1].Color)
	assert.Equal(t, ColorCompleted, controls[2].Color)
}
