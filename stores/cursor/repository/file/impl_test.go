package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bCtx "github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

func Test_GetBeforeFirstPut(t *testing.T) {
	req := require.New(t)
	repo := New(filepath.Join(t.TempDir(), "cursor.json"))

	_, err := repo.Get(bCtx.Background())
	req.ErrorIs(err, domain.ErrNotFound)
}

func Test_PutThenGet(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "cursor.json")
	repo := New(path)
	c := bCtx.Background()

	want := &launch.Cursor{
		LastSeenBlock: 12345678,
		UpdatedAt:     time.Unix(1700000000, 0).UTC(),
	}
	req.NoError(repo.Put(c, want))

	got, err := repo.Get(c)
	req.NoError(err)
	req.Equal(want.LastSeenBlock, got.LastSeenBlock)
	req.True(want.UpdatedAt.Equal(got.UpdatedAt))

	// overwrite advances in place
	want.LastSeenBlock = 12345999
	req.NoError(repo.Put(c, want))
	got, err = repo.Get(c)
	req.NoError(err)
	req.EqualValues(12345999, got.LastSeenBlock)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	req.NoError(err)
	req.Len(entries, 1)
}

func Test_GetCorruptFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "cursor.json")
	req.NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Get(bCtx.Background())
	req.Error(err)
	req.NotErrorIs(err, domain.ErrNotFound)
}
