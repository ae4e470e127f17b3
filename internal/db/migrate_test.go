package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMigrations(t *testing.T) {
	t.Run("sorted with checksums", func(t *testing.T) {
		fsys := fstest.MapFS{
			"002_reports.sql": {Data: []byte("SELECT 2;")},
			"001_init.sql":    {Data: []byte("SELECT 1;")},
			"README.md":       {Data: []byte("ignored")},
		}
		got, err := DiscoverMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "001", got[0].Version)
		assert.Equal(t, "001_init.sql", got[0].Filename)
		assert.Equal(t, "002", got[1].Version)
		assert.Len(t, got[0].Checksum, 64)
		assert.NotEqual(t, got[0].Checksum, got[1].Checksum)
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"001_init.sql":  {Data: []byte("SELECT 1;")},
			"001_again.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := DiscoverMigrations(fsys)
		assert.ErrorContains(t, err, "duplicate migration version 001")
	})

	t.Run("bad filename", func(t *testing.T) {
		fsys := fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}}
		_, err := DiscoverMigrations(fsys)
		assert.ErrorContains(t, err, "invalid migration filename")
	})
}
