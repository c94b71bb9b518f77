package service

import (
	"qitt-service/api"
	"qitt-service/internal/activity"
	"qitt-service/internal/models"
	"qitt-service/internal/schedule"
	"qitt-service/internal/timeofday"
)

func toAssignment(r models.TrackedRecord) api.Assignment {
	return api.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		CourseCode:  r.CourseCode,
		CreatedAt:   r.CreatedAt,
		DueAt:       r.DueAt,
		IsSubmitted: r.IsSubmitted,
	}
}

func toOverview(s activity.AssignmentSummary) api.AssignmentOverview {
	overview := api.AssignmentOverview{
		Stats: api.AssignmentStats{
			Total:     s.Stats.Total,
			Submitted: s.Stats.Submitted,
			Pending:   s.Stats.Pending,
			Overdue:   s.Stats.Overdue,
		},
		UpcomingCount: s.UpcomingCount,
		UnreadCount:   s.UnreadCount,
	}

	if s.NextAssignment != nil {
		next := toAssignment(*s.NextAssignment)
		overview.NextAssignment = &next
	}

	return overview
}

func toClass(e models.WeeklyEntry, status schedule.Status) api.Class {
	return api.Class{
		ID:           e.ID,
		Day:          e.Day.String(),
		StartTime:    e.Start.ToStorage(),
		EndTime:      e.End.ToStorage(),
		StartDisplay: e.Start.ToDisplay(),
		EndDisplay:   e.End.ToDisplay(),
		CourseCode:   e.SubjectCode,
		CourseTitle:  e.SubjectTitle,
		Location:     e.Location,
		Status:       string(status),
	}
}

func toClassPtr(e *models.WeeklyEntry, status schedule.Status) *api.Class {
	if e == nil {
		return nil
	}

	c := toClass(*e, status)
	return &c
}

func toWarnings(ws []schedule.IntervalWarning) []string {
	if len(ws) == 0 {
		return nil
	}

	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}

	return out
}

func toTodaySchedule(s activity.ScheduleSummary) api.TodaySchedule {
	today := api.TodaySchedule{
		Day:          s.Schedule.Day.String(),
		IsRestDay:    s.Schedule.IsRestDay,
		Classes:      make([]api.Class, 0, len(s.Schedule.Items)),
		NextClass:    toClassPtr(s.NextClass, schedule.StatusUpcoming),
		CurrentClass: toClassPtr(s.CurrentClass, schedule.StatusOngoing),
		Warnings:     toWarnings(s.Schedule.Warnings),
	}

	for _, item := range s.Schedule.Items {
		today.Classes = append(today.Classes, toClass(item.WeeklyEntry, item.Status))
	}

	return today
}

func toFreeTime(f activity.FreeTime) api.FreeTime {
	free := api.FreeTime{
		IsRestDay: f.IsRestDay,
		Slots:     make([]api.FreeSlot, 0, len(f.Slots)),
	}

	for _, slot := range f.Slots {
		dto := api.FreeSlot{
			Label:        slot.Label,
			StartMinutes: slot.StartMinutes,
			EndMinutes:   slot.EndMinutes,
			Description:  slot.Description,
		}

		// The "fully booked" slot has no time range to show.
		if slot.EndMinutes != nil {
			start := timeofday.FromMinutes(slot.StartMinutes).ToDisplay()
			end := timeofday.FromMinutes(*slot.EndMinutes).ToDisplay()
			dto.StartTime, dto.EndTime = &start, &end
		}

		free.Slots = append(free.Slots, dto)
	}

	return free
}
