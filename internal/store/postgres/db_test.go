package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a disposable database named by TABWARDEN_TEST_DSN.
func testStore(t *testing.T) *Store {
	dsn := os.Getenv("TABWARDEN_TEST_DSN")
	if dsn == "" {
		t.Skip("TABWARDEN_TEST_DSN not set")
	}
	s, err := Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		s.Close()
	})
	require.NoError(t, s.Clear(context.Background()))
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ready(ctx))

	in := map[string]int64{"example.com": 30, "go.dev": 5}
	require.NoError(t, s.Set(ctx, "tracking_2026-03-01", in))
	require.NoError(t, s.Set(ctx, "tracking_2026-03-01", in))

	var out map[string]int64
	found, err := s.Get(ctx, "tracking_2026-03-01", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	found, err = s.Get(ctx, "tracking_1999-01-01", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_KeysAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tracking_2026-03-02", map[string]int64{}))
	require.NoError(t, s.Set(ctx, "tracking_2026-03-01", map[string]int64{}))
	require.NoError(t, s.Set(ctx, "settings", map[string]bool{}))

	keys, err := s.Keys(ctx, "tracking_")
	require.NoError(t, err)
	assert.Equal(t, []string{"tracking_2026-03-01", "tracking_2026-03-02"}, keys)

	require.NoError(t, s.Delete(ctx, "settings"))
	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
