package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"qitt-service/api"
	"qitt-service/internal/models"
	"qitt-service/internal/schedule"
	"qitt-service/internal/timeofday"
	"qitt-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type viewKey struct{ member, record string }

type fakeStore struct {
	records []models.TrackedRecord
	views   map[viewKey]time.Time
	entries map[string]models.WeeklyEntry
	order   []string
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{views: map[viewKey]time.Time{}, entries: map[string]models.WeeklyEntry{}}
}

func (f *fakeStore) ListAssignments(_ context.Context, _, groupID string, _ *string) ([]models.TrackedRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []models.TrackedRecord
	for _, r := range f.records {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAssignmentViews(_ context.Context, memberID string, ids []string) ([]models.ViewEntry, error) {
	var out []models.ViewEntry
	for _, id := range ids {
		if at, ok := f.views[viewKey{memberID, id}]; ok {
			out = append(out, models.ViewEntry{MemberID: memberID, RecordID: id, ViewedAt: at})
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertAssignmentView(_ context.Context, memberID, assignmentID string, viewedAt time.Time) error {
	for _, r := range f.records {
		if r.ID == assignmentID {
			f.views[viewKey{memberID, assignmentID}] = viewedAt
			return nil
		}
	}
	return response.ErrNotFound
}

func (f *fakeStore) ListTimetable(_ context.Context, groupID string) ([]models.WeeklyEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []models.WeeklyEntry
	for _, id := range f.order {
		if e, ok := f.entries[id]; ok && e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTimetableEntry(_ context.Context, id string) (*models.WeeklyEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return &e, nil
}

func (f *fakeStore) CreateTimetableEntry(_ context.Context, e *models.WeeklyEntry) (string, error) {
	f.entries[e.ID] = *e
	f.order = append(f.order, e.ID)
	return e.ID, nil
}

func (f *fakeStore) UpdateTimetableEntry(_ context.Context, e *models.WeeklyEntry) error {
	if _, ok := f.entries[e.ID]; !ok {
		return response.ErrNotFound
	}
	f.entries[e.ID] = *e
	return nil
}

func (f *fakeStore) DeleteTimetableEntry(_ context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

// Monday 2026-03-09 09:30 UTC.
var fixedNow = time.Date(2026, time.March, 9, 9, 30, 0, 0, time.UTC)

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, schedule.NewResolver(), time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func ptrTime(d time.Duration) *time.Time {
	t := fixedNow.Add(d)
	return &t
}

func seedTimetable(t *testing.T, store *fakeStore, groupID string, entries ...[4]string) {
	t.Helper()

	for _, e := range entries {
		day, ok := models.ParseWeekday(e[1])
		require.True(t, ok)
		entry := models.WeeklyEntry{
			ID:          e[0],
			GroupID:     groupID,
			Day:         day,
			Start:       timeofday.MustParse(e[2]),
			End:         timeofday.MustParse(e[3]),
			SubjectCode: "C-" + e[0],
		}
		_, err := store.CreateTimetableEntry(context.Background(), &entry)
		require.NoError(t, err)
	}
}

func TestAssignmentOverview(t *testing.T) {
	store := newFakeStore()
	store.records = []models.TrackedRecord{
		{ID: "a1", GroupID: "g1", DueAt: ptrTime(-24 * time.Hour)},
		{ID: "a2", GroupID: "g1", DueAt: ptrTime(24 * time.Hour), Title: "Lab report"},
		{ID: "a3", GroupID: "g1", IsSubmitted: true},
		{ID: "x1", GroupID: "g2", DueAt: ptrTime(time.Hour)},
	}
	store.views[viewKey{"m1", "a3"}] = fixedNow

	svc := newTestService(store)

	got, err := svc.AssignmentOverview(context.Background(), "m1", "g1", nil)
	require.NoError(t, err)

	assert.Equal(t, api.AssignmentStats{Total: 3, Submitted: 1, Pending: 1, Overdue: 1}, got.Stats)
	require.NotNil(t, got.NextAssignment)
	assert.Equal(t, "a2", got.NextAssignment.ID)
	assert.Equal(t, "Lab report", got.NextAssignment.Title)
	assert.Equal(t, 1, got.UpcomingCount)
	assert.Equal(t, 2, got.UnreadCount)
}

func TestMarkAssignmentViewed(t *testing.T) {
	store := newFakeStore()
	store.records = []models.TrackedRecord{{ID: "a1", GroupID: "g1"}, {ID: "a2", GroupID: "g1"}}
	svc := newTestService(store)
	ctx := context.Background()

	unread, err := svc.UnreadAssignments(ctx, "m1", "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, unread.UnreadCount)

	for i := 0; i < 2; i++ {
		view, err := svc.MarkAssignmentViewed(ctx, "m1", "a1")
		require.NoError(t, err)
		assert.Equal(t, fixedNow, view.ViewedAt)
	}

	unread, err = svc.UnreadAssignments(ctx, "m1", "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, unread.UnreadCount)
	require.Len(t, unread.Assignments, 1)
	assert.Equal(t, "a2", unread.Assignments[0].ID)

	_, err = svc.MarkAssignmentViewed(ctx, "m1", "a1")
	require.NoError(t, err)
	unread, err = svc.UnreadAssignments(ctx, "m1", "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, unread.UnreadCount)

	_, err = svc.MarkAssignmentViewed(ctx, "m1", "missing")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestTodaySchedule(t *testing.T) {
	store := newFakeStore()
	seedTimetable(t, store, "g1",
		[4]string{"b", "monday", "10:00", "11:00"},
		[4]string{"a", "monday", "08:00", "09:00"},
		[4]string{"c", "tuesday", "08:00", "09:00"},
	)
	store.entries["bad"] = models.WeeklyEntry{
		ID: "bad", GroupID: "g1", Day: time.Monday,
		Start: timeofday.MustParse("12:00"), End: timeofday.MustParse("12:00"),
	}
	store.order = append(store.order, "bad")

	svc := newTestService(store)

	got, err := svc.TodaySchedule(context.Background(), "g1")
	require.NoError(t, err)

	assert.Equal(t, "Monday", got.Day)
	assert.False(t, got.IsRestDay)
	require.Len(t, got.Classes, 2)
	assert.Equal(t, "a", got.Classes[0].ID)
	assert.Equal(t, "completed", got.Classes[0].Status)
	assert.Equal(t, "8am", got.Classes[0].StartDisplay)
	assert.Equal(t, "08:00:00", got.Classes[0].StartTime)
	assert.Equal(t, "upcoming", got.Classes[1].Status)
	require.NotNil(t, got.NextClass)
	assert.Equal(t, "b", got.NextClass.ID)
	assert.Nil(t, got.CurrentClass)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "bad")
}

func TestFreeTime(t *testing.T) {
	store := newFakeStore()
	seedTimetable(t, store, "g1",
		[4]string{"a", "monday", "08:00", "09:00"},
		[4]string{"b", "monday", "10:00", "11:00"},
	)
	svc := newTestService(store)

	got, err := svc.FreeTime(context.Background(), "g1")
	require.NoError(t, err)

	require.Len(t, got.Slots, 2)
	require.NotNil(t, got.Slots[0].StartTime)
	assert.Equal(t, "9am", *got.Slots[0].StartTime)
	require.NotNil(t, got.Slots[0].EndTime)
	assert.Equal(t, "10am", *got.Slots[0].EndTime)
	assert.Equal(t, "6pm", *got.Slots[1].EndTime)
}

func TestFreeTimeFullyBookedHasNoTimes(t *testing.T) {
	store := newFakeStore()
	seedTimetable(t, store, "g1",
		[4]string{"a", "monday", "08:00", "13:00"},
		[4]string{"b", "monday", "13:15", "18:00"},
	)
	svc := newTestService(store)

	got, err := svc.FreeTime(context.Background(), "g1")
	require.NoError(t, err)

	require.Len(t, got.Slots, 1)
	assert.Equal(t, schedule.LabelFullyBooked, got.Slots[0].Label)
	assert.Nil(t, got.Slots[0].StartTime)
	assert.Nil(t, got.Slots[0].EndTime)
}

func TestRestDayUsesServiceLocation(t *testing.T) {
	store := newFakeStore()
	seedTimetable(t, store, "g1", [4]string{"a", "sunday", "08:00", "09:00"})

	// Sunday 23:30 UTC is already Monday in Lagos.
	lagos := time.FixedZone("WAT", 3600)
	svc := NewService(store, nil, lagos)
	svc.now = func() time.Time { return time.Date(2026, time.March, 15, 23, 30, 0, 0, time.UTC) }

	got, err := svc.TodaySchedule(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Monday", got.Day)
	assert.False(t, got.IsRestDay)
	assert.Empty(t, got.Classes)

	svc.loc = time.UTC
	got, err = svc.TodaySchedule(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, got.IsRestDay)
	assert.Empty(t, got.Classes)
}

func TestWeeklyTimetable(t *testing.T) {
	store := newFakeStore()
	seedTimetable(t, store, "g1",
		[4]string{"s", "sunday", "08:00", "09:00"},
		[4]string{"w", "wednesday", "08:00", "09:00"},
		[4]string{"m", "monday", "13:00", "14:00"},
	)
	svc := newTestService(store)

	got, err := svc.WeeklyTimetable(context.Background(), "g1")
	require.NoError(t, err)

	require.Len(t, got.Days, 3)
	assert.Equal(t, "Monday", got.Days[0].Day)
	assert.Equal(t, "Wednesday", got.Days[1].Day)
	assert.Equal(t, "Sunday", got.Days[2].Day)
	assert.Empty(t, got.Warnings)
}

func TestDashboard(t *testing.T) {
	store := newFakeStore()
	store.records = []models.TrackedRecord{{ID: "a1", GroupID: "g1", DueAt: ptrTime(time.Hour)}}
	seedTimetable(t, store, "g1", [4]string{"a", "monday", "09:00", "10:00"})
	svc := newTestService(store)

	got, err := svc.Dashboard(context.Background(), "m1", "g1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Assignments.UnreadCount)
	require.NotNil(t, got.Schedule.CurrentClass)
	assert.Equal(t, "a", got.Schedule.CurrentClass.ID)
	assert.Equal(t, "ongoing", got.Schedule.CurrentClass.Status)
	assert.NotEmpty(t, got.FreeTime.Slots)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection reset")
	svc := newTestService(store)

	_, err := svc.AssignmentOverview(context.Background(), "m1", "g1", nil)
	assert.ErrorContains(t, err, "service.AssignmentOverview: connection reset")

	_, err = svc.TodaySchedule(context.Background(), "g1")
	assert.ErrorContains(t, err, "service.TodaySchedule")
}

func TestTimetableEntryLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.CreateTimetableEntry(ctx, "g1", &api.TimetableEntryRequest{
		Day:        "Tue",
		StartTime:  "9am",
		EndTime:    "10:30",
		CourseCode: "CSC201",
		Location:   "LT2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tuesday", created.Day)
	assert.Equal(t, "09:00:00", created.StartTime)
	assert.Equal(t, "10:30am", created.EndDisplay)
	assert.Equal(t, "g1", store.entries[created.ID].GroupID)

	updated, err := svc.UpdateTimetableEntry(ctx, created.ID, &api.TimetableEntryRequest{
		Day:        "wednesday",
		StartTime:  "2pm",
		EndTime:    "3pm",
		CourseCode: "CSC201",
	})
	require.NoError(t, err)
	assert.Equal(t, "Wednesday", updated.Day)
	assert.Equal(t, "14:00:00", updated.StartTime)
	assert.Equal(t, "g1", store.entries[created.ID].GroupID)

	require.NoError(t, svc.DeleteTimetableEntry(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteTimetableEntry(ctx, created.ID), response.ErrNotFound)

	_, err = svc.GetTimetableEntry(ctx, created.ID)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestTimetableEntryValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name string
		req  api.TimetableEntryRequest
		want error
	}{
		{name: "bad day", req: api.TimetableEntryRequest{Day: "someday", StartTime: "9am", EndTime: "10am"}, want: models.ErrInvalidWeekday},
		{name: "bad start", req: api.TimetableEntryRequest{Day: "mon", StartTime: "nine", EndTime: "10am"}, want: timeofday.ErrFormat},
		{name: "bad end", req: api.TimetableEntryRequest{Day: "mon", StartTime: "9am", EndTime: "25:00"}, want: timeofday.ErrFormat},
		{name: "empty interval", req: api.TimetableEntryRequest{Day: "mon", StartTime: "9am", EndTime: "09:00"}, want: response.ErrInvalidInterval},
		{name: "inverted interval", req: api.TimetableEntryRequest{Day: "mon", StartTime: "3pm", EndTime: "1pm"}, want: response.ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTimetableEntry(ctx, "g1", &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := svc.UpdateTimetableEntry(ctx, "missing", &api.TimetableEntryRequest{Day: "mon", StartTime: "9am", EndTime: "10am"})
	assert.ErrorIs(t, err, response.ErrNotFound)
}
