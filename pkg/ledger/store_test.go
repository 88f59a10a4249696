package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/canvas/pkg/types"
)

func sampleState() State {
	return State{
		Edits: []types.Edit{edit("a"), edit("b")},
		Pins: []types.Pin{{
			ID: "pin_1", X: 120, Y: 340, Prompt: "make this bigger",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}},
		Reference: &types.ReferenceImage{DataURL: "data:image/png;base64,AAAA", Opacity: 0.4},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "canvas:shop:ledger", Key("shop"))
	assert.Equal(t, "canvas:default:ledger", Key("  "))
}

func TestDecode(t *testing.T) {
	t.Run("current version", func(t *testing.T) {
		data, err := Encode(sampleState())
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, SchemaVersion, got.Version)
		assert.Equal(t, []string{"a", "b"}, ids(got.Edits))
		require.Len(t, got.Pins, 1)
		assert.Equal(t, 340.0, got.Pins[0].Y)
		require.NotNil(t, got.Reference)
		assert.Equal(t, 0.4, got.Reference.Opacity)
	})

	t.Run("legacy array", func(t *testing.T) {
		got, err := Decode([]byte(`[{"id":"old","type":"move","selector":"div","from":{},"to":{"deltaX":4}}]`))
		require.NoError(t, err)
		assert.Equal(t, 0, got.Version)
		require.Len(t, got.Edits, 1)
		assert.Equal(t, 4.0, got.Edits[0].To.Float("deltaX"))
		assert.Empty(t, got.Pins)
	})

	t.Run("newer version", func(t *testing.T) {
		_, err := Decode([]byte(`{"version":99,"edits":[]}`))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte(`{not json`))
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := Decode(nil)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, Key("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, Key("shop"), sampleState()))
	got, err := s.Load(ctx, Key("shop"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got.Edits))
	require.Len(t, got.Pins, 1)
	assert.Equal(t, "make this bigger", got.Pins[0].Prompt)

	next := sampleState()
	next.Edits = next.Edits[:1]
	next.Reference = nil
	require.NoError(t, s.Save(ctx, Key("shop"), next))
	got, err = s.Load(ctx, Key("shop"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got.Edits))
	assert.Nil(t, got.Reference)

	require.NoError(t, s.Close())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "state"))
	require.NoError(t, err)
	exerciseStore(t, s)

	entries, err := os.ReadDir(filepath.Join(dir, "state"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ":")
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path(Key("x")), []byte("{oops"), 0o600))

	_, err = s.Load(context.Background(), Key("x"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)

	exerciseStore(t, s)
	assert.True(t, mr.Exists(Key("shop")))
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLiteStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), Key("p"), sampleState()))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Load(context.Background(), Key("p"))
	require.NoError(t, err)
	assert.Len(t, got.Edits, 2)
}
