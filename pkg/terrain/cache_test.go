package terrain

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftgo/pkg/db"
	"swiftgo/pkg/store"
)

func TestElevationCache_MemoryOnly(t *testing.T) {
	c, err := NewElevationCache(10, DefaultResolution, nil)
	require.NoError(t, err)

	_, ok := c.Elevation(50.0379, 8.5622)
	assert.False(t, ok)

	c.StoreElevation(50.0379, 8.5622, 364)
	ft, ok := c.Elevation(50.0379, 8.5622)
	require.True(t, ok)
	assert.Equal(t, 364.0, ft)

	// a few meters away is the same cell
	ft, ok = c.Elevation(50.03791, 8.56221)
	require.True(t, ok)
	assert.Equal(t, 364.0, ft)

	_, ok = c.Elevation(51.0, 9.0)
	assert.False(t, ok)

	assert.Equal(t, Stats{Size: 1, Hits: 2, Misses: 2}, c.Stats())
}

func TestElevationCache_Evicts(t *testing.T) {
	c, err := NewElevationCache(2, DefaultResolution, nil)
	require.NoError(t, err)

	c.StoreElevation(50, 8, 1)
	c.StoreElevation(51, 8, 2)
	c.StoreElevation(52, 8, 3)

	_, ok := c.Elevation(50, 8)
	assert.False(t, ok, "oldest evicted")
	assert.Equal(t, 2, c.Stats().Size)
}

func TestElevationCache_InvalidResolution(t *testing.T) {
	_, err := NewElevationCache(10, 16, nil)
	assert.Error(t, err)
}

func TestElevationCache_Store(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "terrain.db"))
	require.NoError(t, err)
	defer d.Close()
	st := store.NewSQLiteStore(d)

	c, err := NewElevationCache(10, DefaultResolution, st)
	require.NoError(t, err)
	c.StoreElevation(47.2603, 11.3439, 1906)

	key, err := c.Cell(47.2603, 11.3439)
	require.NoError(t, err)
	ft, ok := st.GetElevation(context.Background(), key)
	require.True(t, ok)
	assert.Equal(t, 1906.0, ft)

	// a fresh cache finds it through the store
	fresh, err := NewElevationCache(10, DefaultResolution, st)
	require.NoError(t, err)
	ft, ok = fresh.Elevation(47.2603, 11.3439)
	require.True(t, ok)
	assert.Equal(t, 1906.0, ft)

	warm, err := NewElevationCache(10, DefaultResolution, st)
	require.NoError(t, err)
	n, err := warm.Warm(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, warm.Stats().Size)
}
