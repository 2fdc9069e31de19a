package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
	"github.com/tuannm99/novabuf/pkg/lrukx"
)

var _ bufferpool.PageStore = (*storage.FileStore)(nil)

func newTestStore(t *testing.T, pageSize int) (*storage.FileStore, storage.LocalFileSet) {
	t.Helper()
	fs := storage.LocalFileSet{Dir: t.TempDir(), Base: "frames"}
	s, err := storage.NewFileStore(fs, pageSize)
	require.NoError(t, err)
	return s, fs
}

func TestNewFileStore_BadPageSize(t *testing.T) {
	_, err := storage.NewFileStore(storage.LocalFileSet{Dir: t.TempDir(), Base: "x"}, 0)
	require.ErrorIs(t, err, storage.ErrPageSize)

	_, err = storage.NewFileStore(storage.LocalFileSet{Dir: t.TempDir(), Base: "x"}, 3000)
	require.ErrorIs(t, err, storage.ErrPageSize)
}

func TestFileStore_ReadUnwrittenPageIsZero(t *testing.T) {
	s, _ := newTestStore(t, 512)

	data, err := s.ReadPage(7)
	require.NoError(t, err)
	require.Len(t, data, 512)
	require.Equal(t, make([]byte, 512), data)
}

func TestFileStore_WriteThenRead(t *testing.T) {
	s, fs := newTestStore(t, 512)

	page := make([]byte, 512)
	page[0], page[511] = 1, 2
	require.NoError(t, s.WritePage(3, page))

	got, err := s.ReadPage(3)
	require.NoError(t, err)
	require.Equal(t, page, got)

	info, err := os.Stat(filepath.Join(fs.Dir, fs.Base))
	require.NoError(t, err)
	require.Equal(t, int64(4*512), info.Size())

	require.ErrorIs(t, s.WritePage(3, page[:10]), storage.ErrPageSize)
}

func TestFileStore_BackingBufferPool(t *testing.T) {
	s, _ := newTestStore(t, 256)

	pool, err := bufferpool.NewPool(s, bufferpool.Options{Capacity: 1, Policy: bufferpool.PolicyLRUK, K: 2})
	require.NoError(t, err)

	f, err := pool.FetchPage(0, lrukx.AccessLookup)
	require.NoError(t, err)
	f.Data[5] = 55
	require.NoError(t, pool.UnpinPage(0, true))

	// Fetching another page evicts page 0 and writes it to disk.
	_, err = pool.FetchPage(1, lrukx.AccessLookup)
	require.NoError(t, err)

	data, err := s.ReadPage(0)
	require.NoError(t, err)
	require.Equal(t, byte(55), data[5])
}
