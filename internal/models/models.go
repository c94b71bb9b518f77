package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"qitt-service/internal/timeofday"
)

var ErrInvalidWeekday = errors.New("invalid day of week")

// TrackedRecord is an assignment as seen by the tracker.
type TrackedRecord struct {
	ID          string     `db:"id"`
	GroupID     string     `db:"class_group_id"`
	Title       string     `db:"title"`
	CourseCode  string     `db:"course_code"`
	CreatedAt   time.Time  `db:"created_at"`
	DueAt       *time.Time `db:"due_date"`
	IsSubmitted bool       `db:"is_submitted"`
}

// ViewEntry is one row of the assignment view log.
type ViewEntry struct {
	MemberID string    `db:"user_id"`
	RecordID string    `db:"assignment_id"`
	ViewedAt time.Time `db:"viewed_at"`
}

// WeeklyEntry is one recurring class session of a group's timetable.
type WeeklyEntry struct {
	ID           string              `db:"id"`
	GroupID      string              `db:"class_group_id"`
	Day          time.Weekday        `db:"day_of_week"`
	Start        timeofday.TimeOfDay `db:"start_time"`
	End          timeofday.TimeOfDay `db:"end_time"`
	SubjectCode  string              `db:"course_code"`
	SubjectTitle string              `db:"course_title"`
	Location     string              `db:"location"`
}

type NotificationKind string

const (
	NotificationAssignment NotificationKind = "assignment"
	NotificationTimetable  NotificationKind = "timetable"
	NotificationAnnounce   NotificationKind = "announcement"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationAssignment, NotificationTimetable, NotificationAnnounce:
		return true
	default:
		return false
	}
}

type Notification struct {
	ID        string           `db:"id"`
	MemberID  string           `db:"user_id"`
	GroupID   string           `db:"class_group_id"`
	Kind      NotificationKind `db:"type"`
	Title     string           `db:"title"`
	Body      string           `db:"message"`
	RefID     *string          `db:"reference_id"`
	IsRead    bool             `db:"is_read"`
	CreatedAt time.Time        `db:"created_at"`
}

// ParseWeekday accepts the forms found in timetable rows: "mon", "Monday",
// "1", "0" and so on (0 = Sunday, 7 = Sunday).
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		switch {
		case n >= 0 && n <= 6:
			return time.Weekday(n), true
		case n == 7:
			return time.Sunday, true
		default:
			return 0, false
		}
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thurs", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
