package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/patrol-report/config"
	"github.com/mbolis/patrol-report/database"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "kv.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	level, err := OpenLevelDB(filepath.Join(t.TempDir(), "kv.leveldb"))
	require.NoError(t, err)
	t.Cleanup(func() { level.Close() })

	levelMem, err := OpenLevelDBMemory()
	require.NoError(t, err)
	t.Cleanup(func() { levelMem.Close() })

	return map[string]Store{
		"memory":           NewMemory(),
		"sqlite":           NewSQLite(db),
		"leveldb":          level,
		"leveldb (memory)": levelMem,
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(ctx, ReportsKey)
			require.NoError(t, err)
			assert.Nil(t, v, "absent key")

			require.NoError(t, s.Set(ctx, ReportsKey, []byte(`[]`)))
			require.NoError(t, s.Set(ctx, ReportsKey, []byte(`[{"id":"RPT-1"}]`)))
			v, err = s.Get(ctx, ReportsKey)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"RPT-1"}]`, string(v))

			require.NoError(t, s.Set(ctx, RadioCallKeyPrefix+"1", []byte(`{}`)))
			require.NoError(t, s.Delete(ctx, ReportsKey))
			v, err = s.Get(ctx, ReportsKey)
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = s.Get(ctx, RadioCallKeyPrefix+"1")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(v))

			assert.NoError(t, s.Delete(ctx, "never-set"))
		})
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
	out[0] = 'y'

	out, _ = s.Get(ctx, "k")
	assert.Equal(t, "abc", string(out))
}

func TestLevelDB_Persists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "kv.leveldb")

	s, err := OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, ReportsKey, []byte(`[1]`)))
	require.NoError(t, s.Close())

	s, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, ReportsKey)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(v))
}
