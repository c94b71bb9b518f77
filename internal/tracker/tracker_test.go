package tracker

import (
	"testing"
	"time"

	"qitt-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestUnviewedIDs(t *testing.T) {
	records := []models.TrackedRecord{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}
	log := NewViewLog(
		models.ViewEntry{MemberID: "m1", RecordID: "a2", ViewedAt: now},
		models.ViewEntry{MemberID: "m2", RecordID: "a1", ViewedAt: now},
		models.ViewEntry{MemberID: "m1", RecordID: "gone", ViewedAt: now},
	)

	ids := UnviewedIDs("m1", records, log)
	assert.Equal(t, map[string]struct{}{"a1": {}, "a3": {}}, ids)
	assert.Equal(t, len(ids), UnreadCount("m1", records, log))

	for id := range ids {
		found := false
		for _, r := range records {
			if r.ID == id {
				found = true
			}
		}
		assert.True(t, found, "unviewed id %s is not one of the records", id)
	}
}

func TestUnviewedWithoutLog(t *testing.T) {
	records := []models.TrackedRecord{{ID: "a1"}, {ID: "a2"}}

	assert.Equal(t, 2, UnreadCount("m1", records, nil))

	var empty *ViewLog
	assert.Equal(t, 2, UnreadCount("m1", records, empty))
	assert.Equal(t, 0, UnreadCount("m1", nil, empty))
}

func TestUnviewedKeepsOrder(t *testing.T) {
	records := []models.TrackedRecord{{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "a"}}
	log := NewViewLog(models.ViewEntry{MemberID: "m1", RecordID: "b"})

	got := Unviewed("m1", records, log)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestMarkViewedIsIdempotent(t *testing.T) {
	records := []models.TrackedRecord{{ID: "a1"}, {ID: "a2"}}
	log := NewViewLog()

	log.MarkViewed("m1", "a1", now)
	log.MarkViewed("m1", "a1", now.Add(time.Minute))
	_, stillUnviewed := UnviewedIDs("m1", records, log)["a1"]
	assert.False(t, stillUnviewed)
	assert.Equal(t, 1, UnreadCount("m1", records, log))

	log.MarkViewed("m1", "a1", now.Add(2*time.Minute))
	assert.Equal(t, 1, UnreadCount("m1", records, log))
	assert.Equal(t, 1, log.Len())

	viewedAt, ok := log.ViewedAt("m1", "a1")
	require.True(t, ok)
	assert.Equal(t, now.Add(2*time.Minute), viewedAt)
}

func TestMarkViewedOnZeroValue(t *testing.T) {
	var log ViewLog
	log.MarkViewed("m1", "a1", now)
	assert.True(t, log.Viewed("m1", "a1"))
	assert.False(t, log.Viewed("m2", "a1"))
}

func TestComputeStats(t *testing.T) {
	records := []models.TrackedRecord{
		{ID: "1", DueAt: at(-24 * time.Hour)},
		{ID: "2", DueAt: at(24 * time.Hour)},
		{ID: "3", IsSubmitted: true},
	}

	assert.Equal(t, Stats{Total: 3, Submitted: 1, Pending: 1, Overdue: 1}, ComputeStats(records, now))
}

func TestComputeStatsEdges(t *testing.T) {
	records := []models.TrackedRecord{
		{ID: "due-now", DueAt: at(0)},
		{ID: "no-due"},
		{ID: "late-but-submitted", DueAt: at(-time.Hour), IsSubmitted: true},
	}

	assert.Equal(t, Stats{Total: 3, Submitted: 1, Pending: 2}, ComputeStats(records, now))
	assert.Equal(t, Stats{}, ComputeStats(nil, now))
}

func TestUpcomingCount(t *testing.T) {
	records := []models.TrackedRecord{
		{ID: "1", DueAt: at(-time.Hour)},
		{ID: "2", DueAt: at(0)},
		{ID: "3", DueAt: at(time.Hour), IsSubmitted: true},
		{ID: "4"},
	}

	assert.Equal(t, 2, UpcomingCount(records, now))
}

func TestNextDue(t *testing.T) {
	t.Run("earliest future", func(t *testing.T) {
		records := []models.TrackedRecord{
			{ID: "late", DueAt: at(-time.Hour)},
			{ID: "far", DueAt: at(48 * time.Hour)},
			{ID: "soon", DueAt: at(2 * time.Hour)},
			{ID: "none"},
		}

		got := NextDue(records, now)
		require.NotNil(t, got)
		assert.Equal(t, "soon", got.ID)
	})

	t.Run("tie broken by id", func(t *testing.T) {
		records := []models.TrackedRecord{
			{ID: "b", DueAt: at(time.Hour)},
			{ID: "a", DueAt: at(time.Hour)},
		}

		got := NextDue(records, now)
		require.NotNil(t, got)
		assert.Equal(t, "a", got.ID)
	})

	t.Run("nothing due", func(t *testing.T) {
		records := []models.TrackedRecord{{ID: "x", DueAt: at(-time.Minute)}, {ID: "y"}}
		assert.Nil(t, NextDue(records, now))
	})
}
