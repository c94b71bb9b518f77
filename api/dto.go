package api

import "time"

// Assignments

type Assignment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CourseCode  string     `json:"course_code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       *time.Time `json:"due_date"`
	IsSubmitted bool       `json:"is_submitted"`
}

type AssignmentStats struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

type AssignmentOverview struct {
	Stats          AssignmentStats `json:"stats"`
	NextAssignment *Assignment     `json:"next_assignment"`
	UpcomingCount  int             `json:"upcoming_count"`
	UnreadCount    int             `json:"unread_count"`
}

type UnreadAssignments struct {
	Assignments []Assignment `json:"assignments"`
	UnreadCount int          `json:"unread_count"`
}

type AssignmentViewRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
}

type AssignmentView struct {
	AssignmentID string    `json:"assignment_id"`
	MemberID     string    `json:"member_id"`
	ViewedAt     time.Time `json:"viewed_at"`
}

// Timetable

type Class struct {
	ID           string `json:"id"`
	Day          string `json:"day"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	StartDisplay string `json:"start_display"`
	EndDisplay   string `json:"end_display"`
	CourseCode   string `json:"course_code"`
	CourseTitle  string `json:"course_title"`
	Location     string `json:"location"`
	Status       string `json:"status,omitempty"`
}

type TodaySchedule struct {
	Day          string   `json:"day"`
	IsRestDay    bool     `json:"is_rest_day"`
	Classes      []Class  `json:"classes"`
	NextClass    *Class   `json:"next_class"`
	CurrentClass *Class   `json:"current_class"`
	Warnings     []string `json:"warnings,omitempty"`
}

type FreeSlot struct {
	Label        string  `json:"label"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	StartMinutes int     `json:"start_minutes"`
	EndMinutes   *int    `json:"end_minutes"`
	Description  string  `json:"description"`
}

type FreeTime struct {
	IsRestDay bool       `json:"is_rest_day"`
	Slots     []FreeSlot `json:"slots"`
}

type TimetableDay struct {
	Day     string  `json:"day"`
	Classes []Class `json:"classes"`
}

type WeeklyTimetable struct {
	Days     []TimetableDay `json:"days"`
	Warnings []string       `json:"warnings,omitempty"`
}

// TimetableEntryRequest accepts times as "09:00", "09:00:00" or "9am".
type TimetableEntryRequest struct {
	Day         string `json:"day" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	CourseCode  string `json:"course_code" validate:"required,max=20"`
	CourseTitle string `json:"course_title" validate:"max=200"`
	Location    string `json:"location" validate:"max=100"`
}

// Dashboard

type Dashboard struct {
	Assignments AssignmentOverview `json:"assignments"`
	Schedule    TodaySchedule      `json:"schedule"`
	FreeTime    FreeTime           `json:"free_time"`
}

// Notifications

type NotifyGroupRequest struct {
	Kind        string  `json:"type" validate:"required,oneof=assignment timetable announcement"`
	Title       string  `json:"title" validate:"required,max=200"`
	Body        string  `json:"message" validate:"required,max=2000"`
	ReferenceID *string `json:"reference_id,omitempty" validate:"omitempty,uuid"`
}

type NotifyGroupResult struct {
	Recipients int  `json:"recipients"`
	Pushed     bool `json:"pushed"`
}

type Notification struct {
	ID          string    `json:"id"`
	Kind        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"message"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type NotificationReadRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
}
