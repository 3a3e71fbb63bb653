package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complytrack/compliance-tracker/internal/common"
)

func TestLocalStoreFetch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "permit.pdf"), []byte("pdf bytes"), 0o600))

	s := NewLocalStore(root)

	got, err := s.Fetch(context.Background(), "docs/permit.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), got)
}

func TestLocalStoreFetchMissing(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	_, err := s.Fetch(context.Background(), "docs/gone.pdf")

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), "gone.pdf")
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	for _, p := range []string{"../outside.txt", "docs/../../etc/passwd", "/etc/passwd"} {
		_, err := s.Fetch(context.Background(), p)
		require.Error(t, err, p)
		assert.ErrorIs(t, err, common.ErrInvalidInput, p)
		assert.NotErrorIs(t, err, ErrFileNotFound, p)
	}
}
