package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/ariefcatur/go-store-engine/internal/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live Postgres at POSTGRES_TEST_DSN.
func TestRepoRecordIsIdempotent(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := &Repo{DB: db}
	require.NoError(t, repo.EnsureSchema(ctx))

	o := testOrder(uuid.NewString())
	inserted, err := repo.Record(ctx, "ev-1", "buy", o)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Record(ctx, "ev-2", "buy", o)
	require.NoError(t, err)
	assert.False(t, inserted)

	var items int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM order_ledger_items WHERE order_id=$1`, o.ID).Scan(&items))
	assert.Equal(t, len(o.Items), items)
}
