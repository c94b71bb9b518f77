// Package schedule projects a group's weekly timetable onto a given day:
// today's ordered classes with their status, the next class and the free
// gaps between classes.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"qitt-service/internal/models"
	"qitt-service/internal/timeofday"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

const (
	LabelFreeDay       = "Free day"
	LabelMorning       = "Morning"
	LabelBetween       = "Between classes"
	LabelAfter         = "After classes"
	LabelFullyBooked   = "Fully booked"
	DefaultMinGap      = 30 * time.Minute
	defaultDayStartMin = 8 * 60
	defaultDayEndMin   = 18 * 60
)

// IntervalWarning reports an entry whose start is not before its end.
type IntervalWarning struct {
	EntryID string              `json:"entry_id"`
	Start   timeofday.TimeOfDay `json:"start"`
	End     timeofday.TimeOfDay `json:"end"`
}

func (w IntervalWarning) String() string {
	return fmt.Sprintf("entry %s: start %s is not before end %s", w.EntryID, w.Start.ToDisplay(), w.End.ToDisplay())
}

type ScheduledEntry struct {
	models.WeeklyEntry
	Status Status
}

// DaySchedule is one day's classes in start order.
type DaySchedule struct {
	Day       time.Weekday
	IsRestDay bool
	Items     []ScheduledEntry
	Warnings  []IntervalWarning
}

// FreeSlot is a gap in a DaySchedule. EndMinutes is nil for the sentinel
// "fully booked" slot.
type FreeSlot struct {
	Label        string `json:"label"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   *int   `json:"end_minutes"`
	Description  string `json:"description"`
}

type Resolver struct {
	RestDays map[time.Weekday]struct{}
	DayStart timeofday.TimeOfDay
	DayEnd   timeofday.TimeOfDay
	MinGap   time.Duration
}

type Option func(*Resolver)

func WithRestDays(days ...time.Weekday) Option {
	return func(r *Resolver) {
		r.RestDays = make(map[time.Weekday]struct{}, len(days))
		for _, d := range days {
			r.RestDays[d] = struct{}{}
		}
	}
}

func WithDayWindow(start, end timeofday.TimeOfDay) Option {
	return func(r *Resolver) {
		r.DayStart = start
		r.DayEnd = end
	}
}

func WithMinGap(d time.Duration) Option {
	return func(r *Resolver) {
		r.MinGap = d
	}
}

// NewResolver defaults to weekends off, an 8am-6pm day and 30 minute gaps.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		DayStart: timeofday.FromMinutes(defaultDayStartMin),
		DayEnd:   timeofday.FromMinutes(defaultDayEndMin),
		MinGap:   DefaultMinGap,
	}
	WithRestDays(time.Saturday, time.Sunday)(r)

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Resolver) IsRestDay(day time.Weekday) bool {
	_, ok := r.RestDays[day]
	return ok
}

// EntriesForDay returns the entries held on day, ordered by start time then
// id. Entries with start >= end are left out and reported as warnings.
func EntriesForDay(entries []models.WeeklyEntry, day time.Weekday) ([]models.WeeklyEntry, []IntervalWarning) {
	var (
		out      []models.WeeklyEntry
		warnings []IntervalWarning
	)

	for _, e := range entries {
		if e.Day != day {
			continue
		}

		if !e.Start.Before(e.End) {
			warnings = append(warnings, IntervalWarning{EntryID: e.ID, Start: e.Start, End: e.End})
			continue
		}

		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := timeofday.Compare(out[i].Start, out[j].Start); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})

	return out, warnings
}

func Classify(e models.WeeklyEntry, nowMinutes int) Status {
	switch {
	case nowMinutes >= e.End.Minutes():
		return StatusCompleted
	case nowMinutes >= e.Start.Minutes():
		return StatusOngoing
	default:
		return StatusUpcoming
	}
}

// Today resolves the schedule for now's weekday in now's location.
func (r *Resolver) Today(entries []models.WeeklyEntry, now time.Time) DaySchedule {
	day := now.Weekday()
	if r.IsRestDay(day) {
		return DaySchedule{Day: day, IsRestDay: true, Items: []ScheduledEntry{}}
	}

	ordered, warnings := EntriesForDay(entries, day)
	nowMinutes := now.Hour()*60 + now.Minute()

	items := make([]ScheduledEntry, 0, len(ordered))
	for _, e := range ordered {
		items = append(items, ScheduledEntry{WeeklyEntry: e, Status: Classify(e, nowMinutes)})
	}

	return DaySchedule{Day: day, Items: items, Warnings: warnings}
}

func NextUpcoming(ds DaySchedule) *models.WeeklyEntry {
	return firstWithStatus(ds, StatusUpcoming)
}

func Current(ds DaySchedule) *models.WeeklyEntry {
	return firstWithStatus(ds, StatusOngoing)
}

func firstWithStatus(ds DaySchedule, status Status) *models.WeeklyEntry {
	for _, item := range ds.Items {
		if item.Status == status {
			e := item.WeeklyEntry
			return &e
		}
	}

	return nil
}

// FreeSlots lists gaps of at least MinGap inside the day window. Entry times
// are clamped to the window and a gap only opens once every earlier class
// has ended. A schedule with nothing inside the window yields the whole
// window; a schedule with no qualifying gap yields a single "fully booked"
// slot.
func (r *Resolver) FreeSlots(ds DaySchedule) []FreeSlot {
	dayStart := r.DayStart.Minutes()
	dayEnd := r.DayEnd.Minutes()
	minGap := int(r.MinGap / time.Minute)

	if len(ds.Items) == 0 {
		return []FreeSlot{newSlot(LabelFreeDay, dayStart, dayEnd, "No classes scheduled")}
	}

	clamp := func(m int) int {
		return max(dayStart, min(m, dayEnd))
	}

	var (
		slots  []FreeSlot
		cursor = dayStart
		prev   *ScheduledEntry
	)

	for i := range ds.Items {
		item := &ds.Items[i]
		start, end := clamp(item.Start.Minutes()), clamp(item.End.Minutes())
		if start >= end {
			continue
		}

		if gap := start - cursor; gap > 0 && gap >= minGap {
			if prev == nil {
				slots = append(slots, newSlot(LabelMorning, cursor, start,
					fmt.Sprintf("Free until %s", item.SubjectCode)))
			} else {
				slots = append(slots, newSlot(LabelBetween, cursor, start,
					fmt.Sprintf("Between %s and %s", prev.SubjectCode, item.SubjectCode)))
			}
		}

		if end > cursor || prev == nil {
			cursor = max(cursor, end)
			prev = item
		}
	}

	if prev == nil {
		return []FreeSlot{newSlot(LabelFreeDay, dayStart, dayEnd,
			fmt.Sprintf("No classes between %s and %s", r.DayStart.ToDisplay(), r.DayEnd.ToDisplay()))}
	}

	if gap := dayEnd - cursor; gap > 0 && gap >= minGap {
		slots = append(slots, newSlot(LabelAfter, cursor, dayEnd,
			fmt.Sprintf("Free after %s", prev.SubjectCode)))
	}

	if len(slots) == 0 {
		return []FreeSlot{{Label: LabelFullyBooked, StartMinutes: 0, Description: "No free time today"}}
	}

	return slots
}

func newSlot(label string, start, end int, description string) FreeSlot {
	return FreeSlot{Label: label, StartMinutes: start, EndMinutes: &end, Description: description}
}

// Week groups valid entries by weekday, each day in start order.
func Week(entries []models.WeeklyEntry) (map[time.Weekday][]models.WeeklyEntry, []IntervalWarning) {
	week := make(map[time.Weekday][]models.WeeklyEntry)
	var warnings []IntervalWarning

	for day := time.Sunday; day <= time.Saturday; day++ {
		ordered, w := EntriesForDay(entries, day)
		warnings = append(warnings, w...)
		if len(ordered) > 0 {
			week[day] = ordered
		}
	}

	return week, warnings
}
