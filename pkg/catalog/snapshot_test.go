package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

func TestSnapshotStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)

	err = store.Save([]manifest.ServiceDescriptor{fakeDescriptor("strategy")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "strategy", got[0].Blueprint.ServiceType)
}

func TestSnapshotStoreLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotStoreSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save([]manifest.ServiceDescriptor{fakeDescriptor("strategy")}))

	updated := fakeDescriptor("strategy")
	updated.Version = "0.2.0"
	require.NoError(t, store.Save([]manifest.ServiceDescriptor{updated}))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0.2.0", got[0].Version)
}
