package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/hypervec/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "anchors")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "anchors", []byte{0, 1, 2}))
	require.NoError(t, s.Set(ctx, "anchors", []byte{3}))
	require.NoError(t, s.Set(ctx, "profile/16", nil))
	require.NoError(t, s.Set(ctx, "profile_x", []byte("x")))

	got, err := s.Get(ctx, "anchors")
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)

	keys, err := s.List(ctx, "profile/")
	require.NoError(t, err)
	assert.Equal(t, []string{"profile/16"}, keys)

	require.NoError(t, s.Close())

	// Values survive a reopen.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err = s.Get(ctx, "anchors")
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)

	require.NoError(t, s.Delete(ctx, "anchors"))
	_, err = s.Get(ctx, "anchors")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\`, escapeLike(`a_b%c\`))
}
