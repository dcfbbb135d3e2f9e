package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInsertEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("races", "1", "2")
	store.AddForeignKey("members", "race_id", "races")

	id, err := store.Insert(ctx, "members", map[string]any{"race_id": "1", "full_name": "Aminah"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = store.Insert(ctx, "members", map[string]any{"race_id": "99"})
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23503", pgErr.Code)
	assert.Equal(t, "members_race_id_fkey", pgErr.ConstraintName)
	assert.Contains(t, pgErr.Message, "members_race_id_fkey")
	assert.Equal(t, 1, store.Count("members"))
}

func TestMemoryStoreNullForeignKeyIsAllowed(t *testing.T) {
	store := NewMemoryStore()
	store.AddForeignKey("members", "race_id", "races")

	_, err := store.Insert(context.Background(), "members", map[string]any{"race_id": nil, "full_name": "Ravi"})
	require.NoError(t, err)
}

func TestMemoryStoreLookupDeleteUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Insert(ctx, "members", map[string]any{"identity_no": "900101145678"})
	require.NoError(t, err)

	exists, err := store.LookupExists(ctx, "members", "identity_no", "900101145678")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.LookupExists(ctx, "members", "identity_no", "000000000000")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Update(ctx, "members", id, map[string]any{"email": "a@b.co"}))
	row, ok := store.Get("members", id)
	require.True(t, ok)
	assert.Equal(t, "a@b.co", row["email"])

	err = store.Update(ctx, "members", "missing", map[string]any{"email": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "members", id))
	assert.Equal(t, 0, store.Count("members"))
}

func TestMemoryStoreInsertKeepsProvidedID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Insert(ctx, "upload_batches", map[string]any{"id": "batch-1", "status": "processing"})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", id)

	_, err = store.Insert(ctx, "upload_batches", map[string]any{"id": "batch-1"})
	assert.Error(t, err)
}

func TestMemoryStoreListValues(t *testing.T) {
	store := NewMemoryStore()
	store.Seed("states", "10", "2")

	values, err := store.ListValues(context.Background(), "states", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "2"}, values)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().LookupExists(ctx, "members", "email", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
