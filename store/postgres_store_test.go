package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/creditreports/report"
)

var recordColumns = []string{
	"id", "name", "mobile_phone", "pan", "credit_score",
	"total_accounts", "active_accounts", "closed_accounts",
	"current_balance_amount", "secured_accounts_amount", "unsecured_accounts_amount",
	"last_seven_days_credit_enquiries", "credit_accounts", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresReportStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresReportStore(db), mock
}

func TestPostgresReportStore_Create(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_reports")).
		WithArgs(
			sqlmock.AnyArg(), "Asha", "9876543210", "ABCDE1", int64(750),
			int64(1), int64(1), int64(0),
			1500.5, 0.0, 0.0,
			int64(0), []byte(`[{"type":"10","bank":"Bank A","accountNumber":"","address":"","amountOverdue":0,"currentBalance":1500.5}]`),
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	rec, err := s.Create(context.Background(), sampleReport("Asha"))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, "Asha", rec.BasicDetails.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_CreateNilAccounts(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_reports")).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), []byte(`[]`),
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	rec, err := s.Create(context.Background(), &report.Report{})
	require.NoError(t, err)
	assert.NotNil(t, rec.CreditAccounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_CreateError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credit_reports")).
		WillReturnError(errors.New("connection reset"))

	_, err := s.Create(context.Background(), sampleReport("Asha"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert report")
}

func TestPostgresReportStore_List(t *testing.T) {
	s, mock := newMockStore(t)
	newer := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(recordColumns).
		AddRow("8f14e45f-ceea-4f7a-9b7e-1c6a2f1d0a01", "Ravi", "", "N/A", int64(0),
			int64(0), int64(0), int64(0), 0.0, 0.0, 0.0, int64(0), []byte(`[]`), newer, newer).
		AddRow("1c9b7c8e-2f3a-4b8e-9d2c-5e6f7a8b9c0d", "Asha", "9876543210", "ABCDE1", int64(750),
			int64(1), int64(1), int64(0), 1500.5, 0.0, 0.0, int64(0),
			[]byte(`[{"type":"10","bank":"Bank A","currentBalance":1500.5}]`), older, older)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).WillReturnRows(rows)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Ravi", list[0].BasicDetails.Name)
	assert.Empty(t, list[0].CreditAccounts)
	assert.Equal(t, "Asha", list[1].BasicDetails.Name)
	assert.Equal(t, []report.CreditAccount{{Type: "10", Bank: "Bank A", CurrentBalance: 1500.5}}, list[1].CreditAccounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_Get(t *testing.T) {
	s, mock := newMockStore(t)
	id := "1c9b7c8e-2f3a-4b8e-9d2c-5e6f7a8b9c0d"
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			id, "Asha", "9876543210", "ABCDE1", int64(750),
			int64(3), int64(2), int64(1), 159000.75, 125000.0, 34000.75, int64(0),
			[]byte(`[]`), created, created))

	rec, err := s.Get(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, int64(3), rec.ReportSummary.TotalAccounts)
	assert.Equal(t, 34000.75, rec.ReportSummary.UnsecuredAccountsAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_GetNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := "1c9b7c8e-2f3a-4b8e-9d2c-5e6f7a8b9c0d"

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := s.Get(context.Background(), id)
	assert.ErrorIs(t, err, report.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_GetInvalidID(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, report.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportStore_GetCorruptAccounts(t *testing.T) {
	s, mock := newMockStore(t)
	id := "1c9b7c8e-2f3a-4b8e-9d2c-5e6f7a8b9c0d"
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			id, "", "", "", int64(0), int64(0), int64(0), int64(0),
			0.0, 0.0, 0.0, int64(0), []byte(`{broken`), now, now))

	_, err := s.Get(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, report.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to decode credit accounts")
}
