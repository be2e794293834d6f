package database

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPgDate(t *testing.T) {
	assert.False(t, toPgDate(time.Time{}).Valid)

	ist := time.FixedZone("IST", 5*3600+1800)
	d := toPgDate(time.Date(2024, 3, 10, 23, 30, 0, 0, ist))
	require.True(t, d.Valid)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), d.Time)

	assert.True(t, fromPgDate(pgtype.Date{}).IsZero())
	assert.Equal(t, d.Time, fromPgDate(d))
}

func TestNumericConversion(t *testing.T) {
	for _, v := range []float64{0.01, -99.99, 125000.5, 15.99} {
		n := toNumeric(models.Float(v))
		require.True(t, n.Valid, "%v", v)
		got := fromNumeric(n)
		require.NotNil(t, got)
		assert.Equal(t, v, *got)
	}

	assert.False(t, toNumeric(nil).Valid)
	assert.False(t, toNumeric(models.Float(math.NaN())).Valid)
	assert.False(t, toNumeric(models.Float(math.Inf(1))).Valid)
	assert.Nil(t, fromNumeric(pgtype.Numeric{}))
}

func TestFromTimestamptz(t *testing.T) {
	assert.Nil(t, fromTimestamptz(pgtype.Timestamptz{}))

	at := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	got := fromTimestamptz(pgtype.Timestamptz{Time: at, Valid: true})
	require.NotNil(t, got)
	assert.True(t, at.Equal(*got))
}

// integrationStore connects to TEST_DATABASE_URL, or skips the test.
func integrationStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("set TEST_DATABASE_URL to run database integration tests")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, url, 5, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))

	return NewStore(pool)
}

func TestStore_ReconciliationLifecycle(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()

	userID := "user_" + uuid.NewString()[:8]
	accountID := "acct-" + uuid.NewString()[:8]
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	src := ImportSource{UserID: userID, AccountID: accountID, FileKey: "statements/" + userID + "/jan.csv"}
	n, err := store.InsertStatementTransactions(ctx, src, []models.ParsedTransaction{
		{TxnDate: start.AddDate(0, 0, 4), Description: "AWS", Amount: -120.5},
		{TxnDate: start.AddDate(0, 0, 9), Description: "Client payment", Amount: 500},
		{TxnDate: end.AddDate(0, 0, 1), Description: "Outside period", Amount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = store.InsertLedgerEntries(ctx, src, []models.ParsedTransaction{
		{TxnDate: start.AddDate(0, 0, 4), Description: "AWS", Reference: "INV-1", Amount: -120.5},
	})
	require.NoError(t, err)

	statement, err := store.ListStatementTransactions(ctx, userID, accountID, start, end)
	require.NoError(t, err)
	require.Len(t, statement, 2)
	assert.Equal(t, "AWS", statement[0].Description)
	assert.Equal(t, -120.5, *statement[0].Amount)

	ledger, err := store.ListLedgerEntries(ctx, userID, accountID, start, end)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "INV-1", ledger[0].Reference)

	page, total, err := store.PageStatementTransactions(ctx, userID, accountID, start, end, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Client payment", page[0].Description)

	ledgerPage, total, err := store.PageLedgerEntries(ctx, userID, accountID, start, end, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, ledgerPage)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := &models.Reconciliation{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   accountID,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      models.ReconciliationStatusDraft,
		Settings:    models.DefaultSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.CreateReconciliation(ctx, rec))

	results := services.Reconcile(statement, ledger, rec.Settings)
	snapshot := services.BuildSnapshot(statement, ledger, results)
	require.NoError(t, store.SaveSnapshot(ctx, rec.ID, rec.Settings, snapshot, now))

	got, err := store.GetReconciliation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got.Snapshot)
	assert.Equal(t, rec.Settings, got.Settings)
	require.NotNil(t, got.LastRunAt)
	assert.False(t, got.IsLocked())

	require.NoError(t, store.FinalizeReconciliation(ctx, rec.ID, now))
	assert.ErrorIs(t, store.FinalizeReconciliation(ctx, rec.ID, now), services.ErrReconciliationFinalized)
	assert.ErrorIs(t, store.SaveSnapshot(ctx, rec.ID, rec.Settings, snapshot, now), services.ErrReconciliationFinalized)

	_, err = store.GetReconciliation(ctx, uuid.New())
	assert.ErrorIs(t, err, services.ErrReconciliationNotFound)
}
