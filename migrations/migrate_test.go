package migrations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initFile = "0001_init.sql"

var (
	ensureTableQuery = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")
	checkQuery       = regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)")
	bodyQuery        = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS class_groups")
	recordQuery      = regexp.QuoteMeta("INSERT INTO schema_migrations (filename) VALUES ($1)")
)

func expectPending(mock sqlmock.Sqlmock) {
	mock.ExpectExec(ensureTableQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(checkQuery).
		WithArgs(initFile).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
}

func TestFilesAreOrderedAndEmbedded(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, initFile, names[0])

	body, err := files.ReadFile(names[0])
	require.NoError(t, err)
	for _, table := range []string{"assignment_views", "timetable_entries", "notifications"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestUpAppliesAndRecordsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectPending(mock)
	mock.ExpectExec(bodyQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recordQuery).WithArgs(initFile).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, Up(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpSkipsAppliedFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(ensureTableQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(checkQuery).
		WithArgs(initFile).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, Up(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpRecordsDuplicateObjectOutsideAbortedTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectPending(mock)
	mock.ExpectExec(bodyQuery).WillReturnError(&pq.Error{Code: "42P07", Message: `relation "class_groups" already exists`})
	mock.ExpectRollback()
	mock.ExpectExec(recordQuery).WithArgs(initFile).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Up(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpFailsOnOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectPending(mock)
	mock.ExpectExec(bodyQuery).WillReturnError(&pq.Error{Code: "42601", Message: "syntax error"})
	mock.ExpectRollback()

	err = Up(context.Background(), db)
	assert.ErrorContains(t, err, "apply "+initFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateObject(t *testing.T) {
	assert.True(t, isDuplicateObject(fmt.Errorf("wrapped: %w", &pq.Error{Code: "42P07"})))
	assert.False(t, isDuplicateObject(&pq.Error{Code: "42601"}))
	assert.False(t, isDuplicateObject(errors.New("plain")))
}

func TestUpRequiresDB(t *testing.T) {
	assert.ErrorContains(t, Up(context.Background(), nil), "db is required")
}
