package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/liamcoop/creditreports/report"
)

const selectColumns = `
	id, name, mobile_phone, pan, credit_score,
	total_accounts, active_accounts, closed_accounts,
	current_balance_amount, secured_accounts_amount, unsecured_accounts_amount,
	last_seven_days_credit_enquiries, credit_accounts, created_at, updated_at`

// PostgresReportStore implements ReportStore backed by PostgreSQL
type PostgresReportStore struct {
	db *sql.DB
}

// NewPostgresReportStore creates a new PostgreSQL-backed ReportStore
func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

// Create inserts a report and returns the stored record
func (s *PostgresReportStore) Create(ctx context.Context, rep *report.Report) (*report.Record, error) {
	if rep == nil {
		return nil, fmt.Errorf("cannot store nil report")
	}

	accounts := rep.CreditAccounts
	if accounts == nil {
		accounts = []report.CreditAccount{}
	}
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credit accounts: %w", err)
	}

	rec := &report.Record{
		ID:     uuid.NewString(),
		Report: *rep,
	}
	rec.CreditAccounts = accounts

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO credit_reports (
			id, name, mobile_phone, pan, credit_score,
			total_accounts, active_accounts, closed_accounts,
			current_balance_amount, secured_accounts_amount, unsecured_accounts_amount,
			last_seven_days_credit_enquiries, credit_accounts, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`,
		rec.ID,
		rep.BasicDetails.Name,
		rep.BasicDetails.MobilePhone,
		rep.BasicDetails.PAN,
		rep.BasicDetails.CreditScore,
		rep.ReportSummary.TotalAccounts,
		rep.ReportSummary.ActiveAccounts,
		rep.ReportSummary.ClosedAccounts,
		rep.ReportSummary.CurrentBalanceAmount,
		rep.ReportSummary.SecuredAccountsAmount,
		rep.ReportSummary.UnsecuredAccountsAmount,
		rep.ReportSummary.LastSevenDaysCreditEnquiries,
		accountsJSON,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	return rec, nil
}

// List returns all reports, newest first
func (s *PostgresReportStore) List(ctx context.Context) ([]*report.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM credit_reports
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := []*report.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return records, nil
}

// Get retrieves a report by ID. IDs that are not UUIDs cannot exist.
func (s *PostgresReportStore) Get(ctx context.Context, id string) (*report.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("report %s: %w", id, report.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM credit_reports
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, report.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Ping checks the database connection
func (s *PostgresReportStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*report.Record, error) {
	var (
		rec          report.Record
		accountsJSON []byte
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&rec.ID,
		&rec.BasicDetails.Name,
		&rec.BasicDetails.MobilePhone,
		&rec.BasicDetails.PAN,
		&rec.BasicDetails.CreditScore,
		&rec.ReportSummary.TotalAccounts,
		&rec.ReportSummary.ActiveAccounts,
		&rec.ReportSummary.ClosedAccounts,
		&rec.ReportSummary.CurrentBalanceAmount,
		&rec.ReportSummary.SecuredAccountsAmount,
		&rec.ReportSummary.UnsecuredAccountsAmount,
		&rec.ReportSummary.LastSevenDaysCreditEnquiries,
		&accountsJSON,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	rec.CreditAccounts = []report.CreditAccount{}
	if len(accountsJSON) > 0 {
		if err := json.Unmarshal(accountsJSON, &rec.CreditAccounts); err != nil {
			return nil, fmt.Errorf("failed to decode credit accounts for report %s: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()

	return &rec, nil
}
