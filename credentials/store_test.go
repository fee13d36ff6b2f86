package credentials_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tastemate/tastemate-go/credentials"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemory()

	value, err := store.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, store.Set(ctx, credentials.IdentityToken, "id-token"))
	require.NoError(t, store.Set(ctx, credentials.RefreshToken, "refresh-token"))

	value, err = store.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Equal(t, "id-token", value)

	require.NoError(t, store.Delete(ctx, credentials.IdentityToken))
	value, err = store.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Empty(t, value)

	value, err = store.Get(ctx, credentials.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "refresh-token", value)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := credentials.NewFile(path)
	require.NoError(t, err)

	value, err := store.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, store.Set(ctx, credentials.IdentityToken, "id-token"))
	require.NoError(t, store.Set(ctx, credentials.MostRecentCommunityID, "community-1"))

	// A second store over the same file sees the persisted values.
	reopened, err := credentials.NewFile(path)
	require.NoError(t, err)

	value, err = reopened.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Equal(t, "id-token", value)

	require.NoError(t, reopened.Delete(ctx, credentials.IdentityToken))
	value, err = store.Get(ctx, credentials.IdentityToken)
	require.NoError(t, err)
	require.Empty(t, value)

	value, err = store.Get(ctx, credentials.MostRecentCommunityID)
	require.NoError(t, err)
	require.Equal(t, "community-1", value)
}

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := credentials.NewFile("")
	require.Error(t, err)
}
