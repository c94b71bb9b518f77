// Package activity shapes tracker and schedule results into the summaries
// the app screens consume. It never loads data itself.
package activity

import (
	"time"

	"qitt-service/internal/models"
	"qitt-service/internal/schedule"
	"qitt-service/internal/tracker"
)

type AssignmentSummary struct {
	Stats          tracker.Stats
	NextAssignment *models.TrackedRecord
	UpcomingCount  int
	UnreadCount    int
}

type ScheduleSummary struct {
	Schedule     schedule.DaySchedule
	NextClass    *models.WeeklyEntry
	CurrentClass *models.WeeklyEntry
}

type FreeTime struct {
	IsRestDay bool
	Slots     []schedule.FreeSlot
}

type Dashboard struct {
	Assignments AssignmentSummary
	Schedule    ScheduleSummary
	FreeTime    FreeTime
}

func SummarizeAssignments(memberID string, records []models.TrackedRecord, log tracker.Viewed, now time.Time) AssignmentSummary {
	return AssignmentSummary{
		Stats:          tracker.ComputeStats(records, now),
		NextAssignment: tracker.NextDue(records, now),
		UpcomingCount:  tracker.UpcomingCount(records, now),
		UnreadCount:    tracker.UnreadCount(memberID, records, log),
	}
}

func SummarizeSchedule(r *schedule.Resolver, entries []models.WeeklyEntry, now time.Time) ScheduleSummary {
	ds := r.Today(entries, now)

	return ScheduleSummary{
		Schedule:     ds,
		NextClass:    schedule.NextUpcoming(ds),
		CurrentClass: schedule.Current(ds),
	}
}

// FreeTimeToday has no slots on a rest day.
func FreeTimeToday(r *schedule.Resolver, entries []models.WeeklyEntry, now time.Time) FreeTime {
	ds := r.Today(entries, now)
	if ds.IsRestDay {
		return FreeTime{IsRestDay: true, Slots: []schedule.FreeSlot{}}
	}

	return FreeTime{Slots: r.FreeSlots(ds)}
}

func BuildDashboard(
	r *schedule.Resolver,
	memberID string,
	records []models.TrackedRecord,
	log tracker.Viewed,
	entries []models.WeeklyEntry,
	now time.Time,
) Dashboard {
	sched := SummarizeSchedule(r, entries, now)

	free := FreeTime{IsRestDay: true, Slots: []schedule.FreeSlot{}}
	if !sched.Schedule.IsRestDay {
		free = FreeTime{Slots: r.FreeSlots(sched.Schedule)}
	}

	return Dashboard{
		Assignments: SummarizeAssignments(memberID, records, log, now),
		Schedule:    sched,
		FreeTime:    free,
	}
}
