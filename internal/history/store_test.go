package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-console/internal/mailapi"
)

func TestRecordSendAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO sends").
		WithArgs(sqlmock.AnyArg(), "Promo septiembre", int64(7), "clientes",
			int64(3), "ventas", 850, 850, 0, 0, mailapi.SendStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	store := NewStore(db)
	rec := &mailapi.SendRecord{
		Timestamp: time.Now(),
		Subject:   "Promo septiembre",
		ListID:    7,
		ListName:  "clientes",
		SenderID:  3,
		Username:  "ventas",
		Total:     850,
		Sent:      850,
		Status:    mailapi.SendStatusCompleted,
	}
	require.NoError(t, store.RecordSend(context.Background(), rec))
	assert.Equal(t, int64(42), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRowsCommitsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO send_rows")
	prep.ExpectExec().WithArgs(int64(42), "a@x.co", "sent", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(42), "b@x.co", "bounced", "mailbox full").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	store := NewStore(db)
	rows := []mailapi.SendDetailRow{
		{Email: "a@x.co", Status: "sent"},
		{Email: "b@x.co", Status: "bounced", Error: "mailbox full"},
	}
	require.NoError(t, store.RecordRows(context.Background(), 42, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentSendsOrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "timestamp", "subject", "list_id", "list_name",
		"sender_id", "username", "total", "sent", "bounced", "opened", "status"}
	mock.ExpectQuery("SELECT (.+) FROM sends ORDER BY timestamp DESC").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), now, "segundo", int64(1), "l", int64(1), "u", 10, 10, 0, 3, mailapi.SendStatusCompleted).
			AddRow(int64(1), now.Add(-time.Hour), "primero", int64(1), "l", int64(1), "u", 5, 4, 1, 0, mailapi.SendStatusError))

	store := NewStore(db)
	sends, err := store.RecentSends(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sends, 2)
	assert.Equal(t, int64(2), sends[0].ID)
	assert.Equal(t, mailapi.SendStatusError, sends[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSendNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "timestamp", "subject", "list_id", "list_name",
		"sender_id", "username", "total", "sent", "bounced", "opened", "status"}
	mock.ExpectQuery("SELECT (.+) FROM sends").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(cols))

	store := NewStore(db)
	_, err = store.GetSend(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendDetailsPaginates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sendCols := []string{"id", "timestamp", "subject", "list_id", "list_name",
		"sender_id", "username", "total", "sent", "bounced", "opened", "status"}
	mock.ExpectQuery("SELECT (.+) FROM sends").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(sendCols).
			AddRow(int64(42), time.Now(), "s", int64(1), "l", int64(1), "u", 250, 250, 0, 0, mailapi.SendStatusCompleted))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))
	mock.ExpectQuery("SELECT email, status").
		WithArgs(int64(42), DefaultPageSize, 100).
		WillReturnRows(sqlmock.NewRows([]string{"email", "status", "error"}).
			AddRow("a@x.co", "sent", ""))

	store := NewStore(db)
	details, err := store.SendDetails(context.Background(), 42, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, details.Page)
	assert.Equal(t, DefaultPageSize, details.PageSize)
	assert.Equal(t, 250, details.TotalRows)
	require.Len(t, details.Rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sent", "bounced", "opened"}).
			AddRow(12, 4200, 37, 900))

	store := NewStore(db)
	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, st.TotalSends)
	assert.Equal(t, 4200, st.TotalSent)
	assert.Equal(t, 37, st.TotalBounced)
	assert.Equal(t, 900, st.TotalOpened)
}
