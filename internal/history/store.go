package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/campaign-console/internal/mailapi"
)

// ErrNotFound is returned when a send id does not exist.
var ErrNotFound = errors.New("send not found")

// DefaultPageSize is the detail-row page size.
const DefaultPageSize = 100

// Store persists send history in PostgreSQL. The backend remains the
// primary record; this store keeps a local copy so history queries and
// the dashboard survive backend outages.
type Store struct{ db *sql.DB }

// NewStore creates a Postgres-backed send history store.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordSend inserts a completed (or failed) send and fills in the
// database-assigned id.
func (s *Store) RecordSend(ctx context.Context, rec *mailapi.SendRecord) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sends (timestamp, subject, list_id, list_name,
		                   sender_id, username, total, sent, bounced,
		                   opened, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, rec.Timestamp, rec.Subject, rec.ListID, rec.ListName,
		rec.SenderID, rec.Username, rec.Total, rec.Sent, rec.Bounced,
		rec.Opened, rec.Status,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}

// RecordRows bulk-inserts the per-recipient outcome rows for a send.
func (s *Store) RecordRows(ctx context.Context, sendID int64, rows []mailapi.SendDetailRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO send_rows (send_id, email, status, error)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, sendID, row.Email, row.Status, row.Error); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateStatus moves a send to its terminal status.
func (s *Store) UpdateStatus(ctx context.Context, sendID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sends SET status = $1 WHERE id = $2`, status, sendID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentSends returns the newest sends first.
func (s *Store) RecentSends(ctx context.Context, limit int) ([]mailapi.SendRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, subject, list_id, COALESCE(list_name,''),
		       sender_id, COALESCE(username,''), total, sent, bounced,
		       opened, status
		FROM sends
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sends: %w", err)
	}
	defer rows.Close()

	var out []mailapi.SendRecord
	for rows.Next() {
		var rec mailapi.SendRecord
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.Subject, &rec.ListID, &rec.ListName,
			&rec.SenderID, &rec.Username, &rec.Total, &rec.Sent, &rec.Bounced,
			&rec.Opened, &rec.Status,
		); err != nil {
			return nil, fmt.Errorf("scan send: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetSend returns one send record by id.
func (s *Store) GetSend(ctx context.Context, id int64) (*mailapi.SendRecord, error) {
	rec := &mailapi.SendRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, subject, list_id, COALESCE(list_name,''),
		       sender_id, COALESCE(username,''), total, sent, bounced,
		       opened, status
		FROM sends
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Timestamp, &rec.Subject, &rec.ListID, &rec.ListName,
		&rec.SenderID, &rec.Username, &rec.Total, &rec.Sent, &rec.Bounced,
		&rec.Opened, &rec.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get send: %w", err)
	}
	return rec, nil
}

// SendDetails returns one page of per-recipient rows for a send.
func (s *Store) SendDetails(ctx context.Context, sendID int64, page, pageSize int) (*mailapi.SendDetails, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	rec, err := s.GetSend(ctx, sendID)
	if err != nil {
		return nil, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM send_rows WHERE send_id = $1`, sendID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT email, status, COALESCE(error,'')
		FROM send_rows
		WHERE send_id = $1
		ORDER BY email
		LIMIT $2 OFFSET $3
	`, sendID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("send rows: %w", err)
	}
	defer rows.Close()

	details := &mailapi.SendDetails{
		Send:      *rec,
		Page:      page,
		PageSize:  pageSize,
		TotalRows: total,
	}
	for rows.Next() {
		var row mailapi.SendDetailRow
		if err := rows.Scan(&row.Email, &row.Status, &row.Error); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		details.Rows = append(details.Rows, row)
	}
	return details, rows.Err()
}

// Stats aggregates totals across all recorded sends.
func (s *Store) Stats(ctx context.Context) (*mailapi.BackendStats, error) {
	st := &mailapi.BackendStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(sent), 0),
		       COALESCE(SUM(bounced), 0),
		       COALESCE(SUM(opened), 0)
		FROM sends
	`).Scan(&st.TotalSends, &st.TotalSent, &st.TotalBounced, &st.TotalOpened)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
