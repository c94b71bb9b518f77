package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qitt-service/api"
	"qitt-service/internal/activity"
	"qitt-service/internal/models"
	"qitt-service/internal/schedule"
	"qitt-service/internal/timeofday"
	"qitt-service/internal/tracker"
	"qitt-service/pkg/response"

	"github.com/google/uuid"
)

type Service struct {
	store    Store
	resolver *schedule.Resolver
	loc      *time.Location
	now      func() time.Time
}

// NewService resolves "today" in loc. A nil loc means UTC.
func NewService(store Store, resolver *schedule.Resolver, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if resolver == nil {
		resolver = schedule.NewResolver()
	}

	return &Service{store: store, resolver: resolver, loc: loc, now: time.Now}
}

type Store interface {
	// Assignments
	ListAssignments(ctx context.Context, memberID, groupID string, termID *string) ([]models.TrackedRecord, error)
	ListAssignmentViews(ctx context.Context, memberID string, assignmentIDs []string) ([]models.ViewEntry, error)
	UpsertAssignmentView(ctx context.Context, memberID, assignmentID string, viewedAt time.Time) error

	// Timetable
	ListTimetable(ctx context.Context, groupID string) ([]models.WeeklyEntry, error)
	GetTimetableEntry(ctx context.Context, id string) (*models.WeeklyEntry, error)
	CreateTimetableEntry(ctx context.Context, e *models.WeeklyEntry) (string, error)
	UpdateTimetableEntry(ctx context.Context, e *models.WeeklyEntry) error
	DeleteTimetableEntry(ctx context.Context, id string) error
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Assignments

func (s *Service) loadAssignments(ctx context.Context, memberID, groupID string, termID *string) ([]models.TrackedRecord, *tracker.ViewLog, error) {
	records, err := s.store.ListAssignments(ctx, memberID, groupID, termID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	views, err := s.store.ListAssignmentViews(ctx, memberID, ids)
	if err != nil {
		return nil, nil, err
	}

	return records, tracker.NewViewLog(views...), nil
}

func (s *Service) AssignmentOverview(ctx context.Context, memberID, groupID string, termID *string) (*api.AssignmentOverview, error) {
	const op = "service.AssignmentOverview"

	records, log, err := s.loadAssignments(ctx, memberID, groupID, termID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := activity.SummarizeAssignments(memberID, records, log, s.clock())
	overview := toOverview(summary)

	return &overview, nil
}

func (s *Service) UnreadAssignments(ctx context.Context, memberID, groupID string, termID *string) (*api.UnreadAssignments, error) {
	const op = "service.UnreadAssignments"

	records, log, err := s.loadAssignments(ctx, memberID, groupID, termID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unviewed := tracker.Unviewed(memberID, records, log)

	result := &api.UnreadAssignments{
		Assignments: make([]api.Assignment, 0, len(unviewed)),
		UnreadCount: tracker.UnreadCount(memberID, records, log),
	}
	for _, r := range unviewed {
		result.Assignments = append(result.Assignments, toAssignment(r))
	}

	return result, nil
}

func (s *Service) MarkAssignmentViewed(ctx context.Context, memberID, assignmentID string) (*api.AssignmentView, error) {
	const op = "service.MarkAssignmentViewed"

	viewedAt := s.clock()

	if err := s.store.UpsertAssignmentView(ctx, memberID, assignmentID, viewedAt); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AssignmentView{
		AssignmentID: assignmentID,
		MemberID:     memberID,
		ViewedAt:     viewedAt,
	}, nil
}

// Timetable

func (s *Service) TodaySchedule(ctx context.Context, groupID string) (*api.TodaySchedule, error) {
	const op = "service.TodaySchedule"

	entries, err := s.store.ListTimetable(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := toTodaySchedule(activity.SummarizeSchedule(s.resolver, entries, s.clock()))

	return &today, nil
}

func (s *Service) FreeTime(ctx context.Context, groupID string) (*api.FreeTime, error) {
	const op = "service.FreeTime"

	entries, err := s.store.ListTimetable(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	free := toFreeTime(activity.FreeTimeToday(s.resolver, entries, s.clock()))

	return &free, nil
}

func (s *Service) WeeklyTimetable(ctx context.Context, groupID string) (*api.WeeklyTimetable, error) {
	const op = "service.WeeklyTimetable"

	entries, err := s.store.ListTimetable(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	week, warnings := schedule.Week(entries)

	result := &api.WeeklyTimetable{
		Days:     make([]api.TimetableDay, 0, len(week)),
		Warnings: toWarnings(warnings),
	}

	// Monday first, Sunday last.
	for i := 1; i <= 7; i++ {
		day := time.Weekday(i % 7)
		classes, ok := week[day]
		if !ok {
			continue
		}

		td := api.TimetableDay{Day: day.String(), Classes: make([]api.Class, 0, len(classes))}
		for _, e := range classes {
			td.Classes = append(td.Classes, toClass(e, ""))
		}
		result.Days = append(result.Days, td)
	}

	return result, nil
}

func (s *Service) Dashboard(ctx context.Context, memberID, groupID string, termID *string) (*api.Dashboard, error) {
	const op = "service.Dashboard"

	records, log, err := s.loadAssignments(ctx, memberID, groupID, termID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.ListTimetable(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := activity.BuildDashboard(s.resolver, memberID, records, log, entries, s.clock())

	return &api.Dashboard{
		Assignments: toOverview(d.Assignments),
		Schedule:    toTodaySchedule(d.Schedule),
		FreeTime:    toFreeTime(d.FreeTime),
	}, nil
}

func parseEntryRequest(req *api.TimetableEntryRequest) (models.WeeklyEntry, error) {
	var e models.WeeklyEntry

	day, ok := models.ParseWeekday(req.Day)
	if !ok {
		return e, fmt.Errorf("day %q: %w", req.Day, models.ErrInvalidWeekday)
	}

	start, err := timeofday.Parse(req.StartTime)
	if err != nil {
		return e, fmt.Errorf("start_time: %w", err)
	}

	end, err := timeofday.Parse(req.EndTime)
	if err != nil {
		return e, fmt.Errorf("end_time: %w", err)
	}

	if !start.Before(end) {
		return e, response.ErrInvalidInterval
	}

	return models.WeeklyEntry{
		Day:          day,
		Start:        start,
		End:          end,
		SubjectCode:  req.CourseCode,
		SubjectTitle: req.CourseTitle,
		Location:     req.Location,
	}, nil
}

func (s *Service) CreateTimetableEntry(ctx context.Context, groupID string, req *api.TimetableEntryRequest) (*api.Class, error) {
	const op = "service.CreateTimetableEntry"

	entry, err := parseEntryRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry.ID = uuid.NewString()
	entry.GroupID = groupID

	id, err := s.store.CreateTimetableEntry(ctx, &entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetTimetableEntry(ctx, id)
}

func (s *Service) GetTimetableEntry(ctx context.Context, id string) (*api.Class, error) {
	const op = "service.GetTimetableEntry"

	entry, err := s.store.GetTimetableEntry(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	class := toClass(*entry, "")

	return &class, nil
}

func (s *Service) UpdateTimetableEntry(ctx context.Context, id string, req *api.TimetableEntryRequest) (*api.Class, error) {
	const op = "service.UpdateTimetableEntry"

	existing, err := s.store.GetTimetableEntry(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry, err := parseEntryRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry.ID = existing.ID
	entry.GroupID = existing.GroupID

	if err := s.store.UpdateTimetableEntry(ctx, &entry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetTimetableEntry(ctx, id)
}

func (s *Service) DeleteTimetableEntry(ctx context.Context, id string) error {
	const op = "service.DeleteTimetableEntry"

	if err := s.store.DeleteTimetableEntry(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
