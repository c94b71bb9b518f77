package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qitt-service/internal/models"
	"qitt-service/internal/timeofday"
	"qitt-service/migrations"
	"qitt-service/pkg/response"

	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqInvalidTextRepr     = "22P02"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Migrate applies any embedded schema migrations not yet recorded.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if err := migrations.Up(ctx, s.db); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// mapPQError turns constraint violations into response sentinels.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqForeignKeyViolation, pqInvalidTextRepr:
		return response.ErrNotFound
	case pqUniqueViolation:
		return response.ErrConflict
	default:
		return err
	}
}

// #### assignments ####

func (s *Storage) ListAssignments(ctx context.Context, memberID, groupID string, termID *string) ([]models.TrackedRecord, error) {
	const op = "storage.postgres.ListAssignments"

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.class_group_id, a.title, COALESCE(c.course_code, ''),
			a.created_at, a.due_date,
			EXISTS (
				SELECT 1 FROM assignment_submissions sub
				WHERE sub.assignment_id = a.id AND sub.user_id = $1
			)
		FROM assignments a
		LEFT JOIN courses c ON c.id = a.course_id
		WHERE a.class_group_id = $2
		AND ($3::uuid IS NULL OR a.semester_id = $3::uuid)
		ORDER BY a.created_at DESC, a.id`,
		memberID, groupID, termID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	defer rows.Close()

	records := make([]models.TrackedRecord, 0)
	for rows.Next() {
		var (
			rec models.TrackedRecord
			due sql.NullTime
		)

		if err := rows.Scan(&rec.ID, &rec.GroupID, &rec.Title, &rec.CourseCode, &rec.CreatedAt, &due, &rec.IsSubmitted); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if due.Valid {
			rec.DueAt = &due.Time
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) ListAssignmentViews(ctx context.Context, memberID string, assignmentIDs []string) ([]models.ViewEntry, error) {
	const op = "storage.postgres.ListAssignmentViews"

	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, assignment_id, viewed_at
		FROM assignment_views
		WHERE user_id = $1 AND assignment_id = ANY($2::uuid[])`,
		memberID, pq.Array(assignmentIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	defer rows.Close()

	var views []models.ViewEntry
	for rows.Next() {
		var v models.ViewEntry
		if err := rows.Scan(&v.MemberID, &v.RecordID, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return views, nil
}

// UpsertAssignmentView keeps one row per (user, assignment).
func (s *Storage) UpsertAssignmentView(ctx context.Context, memberID, assignmentID string, viewedAt time.Time) error {
	const op = "storage.postgres.UpsertAssignmentView"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignment_views (user_id, assignment_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, assignment_id)
		DO UPDATE SET viewed_at = EXCLUDED.viewed_at`,
		memberID, assignmentID, viewedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return nil
}

// #### timetable ####

const timetableColumns = `id, class_group_id, day_of_week,
	to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
	course_code, course_title, location`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWeeklyEntry(row rowScanner) (models.WeeklyEntry, error) {
	var (
		e          models.WeeklyEntry
		day        string
		start, end string
	)

	if err := row.Scan(&e.ID, &e.GroupID, &day, &start, &end, &e.SubjectCode, &e.SubjectTitle, &e.Location); err != nil {
		return e, err
	}

	wd, ok := models.ParseWeekday(day)
	if !ok {
		return e, fmt.Errorf("entry %s: %q: %w", e.ID, day, models.ErrInvalidWeekday)
	}
	e.Day = wd

	var err error
	if e.Start, err = timeofday.ParseStorage(start); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if e.End, err = timeofday.ParseStorage(end); err != nil {
		return e, fmt.Errorf("entry %s: %w", e.ID, err)
	}

	return e, nil
}

func (s *Storage) ListTimetable(ctx context.Context, groupID string) ([]models.WeeklyEntry, error) {
	const op = "storage.postgres.ListTimetable"

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+timetableColumns+` FROM timetable_entries WHERE class_group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	defer rows.Close()

	entries := make([]models.WeeklyEntry, 0)
	for rows.Next() {
		e, err := scanWeeklyEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

func (s *Storage) GetTimetableEntry(ctx context.Context, id string) (*models.WeeklyEntry, error) {
	const op = "storage.postgres.GetTimetableEntry"

	e, err := scanWeeklyEntry(s.db.QueryRowContext(ctx,
		`SELECT `+timetableColumns+` FROM timetable_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return &e, nil
}

func (s *Storage) CreateTimetableEntry(ctx context.Context, e *models.WeeklyEntry) (string, error) {
	const op = "storage.postgres.CreateTimetableEntry"

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO timetable_entries
		(id, class_group_id, day_of_week, start_time, end_time, course_code, course_title, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.ID, e.GroupID, e.Day.String(), e.Start.ToStorage(), e.End.ToStorage(),
		e.SubjectCode, e.SubjectTitle, e.Location,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return id, nil
}

func (s *Storage) UpdateTimetableEntry(ctx context.Context, e *models.WeeklyEntry) error {
	const op = "storage.postgres.UpdateTimetableEntry"

	res, err := s.db.ExecContext(ctx, `
		UPDATE timetable_entries
		SET day_of_week = $1, start_time = $2, end_time = $3,
			course_code = $4, course_title = $5, location = $6, updated_at = now()
		WHERE id = $7`,
		e.Day.String(), e.Start.ToStorage(), e.End.ToStorage(),
		e.SubjectCode, e.SubjectTitle, e.Location, e.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return expectAffected(op, res)
}

func (s *Storage) DeleteTimetableEntry(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteTimetableEntry"

	res, err := s.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return expectAffected(op, res)
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### notifications ####

func (s *Storage) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	const op = "storage.postgres.GroupMemberIDs"

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE class_group_id = $1 ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// notificationPlaceholders builds "($1, $2, ...), ($8, ...)" for n rows of
// width columns.
func notificationPlaceholders(n, width int) string {
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		cols := make([]string, 0, width)
		for j := 1; j <= width; j++ {
			cols = append(cols, fmt.Sprintf("$%d", i*width+j))
		}
		rows = append(rows, "("+strings.Join(cols, ", ")+")")
	}

	return strings.Join(rows, ", ")
}

func (s *Storage) InsertNotificationsTx(ctx context.Context, tx *sql.Tx, notifications []models.Notification) error {
	const op = "storage.postgres.InsertNotificationsTx"
	const width = 8

	if len(notifications) == 0 {
		return nil
	}

	args := make([]any, 0, len(notifications)*width)
	for _, n := range notifications {
		args = append(args, n.ID, n.MemberID, n.GroupID, string(n.Kind), n.Title, n.Body, n.RefID, n.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications
		(id, user_id, class_group_id, type, title, message, reference_id, created_at)
		VALUES %s
		ON CONFLICT (id) DO NOTHING`,
		notificationPlaceholders(len(notifications), width),
	)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s exec: %w", op, mapPQError(err))
	}

	return nil
}

// notificationBatch keeps a single INSERT under the 65535 bind parameter limit.
const notificationBatch = 500

// InsertNotifications writes all rows in one transaction.
func (s *Storage) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	const op = "storage.postgres.InsertNotifications"

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(notifications); start += notificationBatch {
		end := min(start+notificationBatch, len(notifications))
		if err := s.InsertNotificationsTx(ctx, tx, notifications[start:end]); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) ListNotifications(ctx context.Context, memberID string, unreadOnly bool) ([]models.Notification, error) {
	const op = "storage.postgres.ListNotifications"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, class_group_id, type, title, message, reference_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT 100`,
		memberID, unreadOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var (
			n    models.Notification
			kind string
			ref  sql.NullString
		)

		if err := rows.Scan(&n.ID, &n.MemberID, &n.GroupID, &kind, &n.Title, &n.Body, &ref, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		n.Kind = models.NotificationKind(kind)
		if ref.Valid {
			n.RefID = &ref.String
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return notifications, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, memberID, id string) error {
	const op = "storage.postgres.MarkNotificationRead"

	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, memberID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPQError(err))
	}

	return expectAffected(op, res)
}
