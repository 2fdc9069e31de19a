package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// SegmentSize caps a single segment file, similar to PostgreSQL.
	SegmentSize  = 1 << 30
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var ErrPageSize = errors.New("storage: buffer does not match page size")

// LocalFileSet represents a local directory + base file name.
// Segments are stored as: Base, Base.1, Base.2, ...
type LocalFileSet struct {
	Dir  string
	Base string
}

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	name := lfs.Base
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", lfs.Base, segNo)
	}
	if err := os.MkdirAll(lfs.Dir, FileMode0755); err != nil {
		return nil, err
	}
	// RDWR | CREATE (no truncate)
	return os.OpenFile(filepath.Join(lfs.Dir, name), os.O_RDWR|os.O_CREATE, FileMode0644)
}

// FileStore keeps fixed-size pages in segment files and serves as the
// backing store of a buffer pool.
type FileStore struct {
	fs       LocalFileSet
	pageSize int
}

func NewFileStore(fs LocalFileSet, pageSize int) (*FileStore, error) {
	if pageSize <= 0 || SegmentSize%pageSize != 0 {
		return nil, fmt.Errorf("%w: %d", ErrPageSize, pageSize)
	}
	return &FileStore{fs: fs, pageSize: pageSize}, nil
}

func (s *FileStore) locate(pageID uint32) (segNo int32, offset int64) {
	pps := uint32(SegmentSize / s.pageSize)
	return int32(pageID / pps), int64(pageID%pps) * int64(s.pageSize)
}

// ReadPage reads one page. Bytes past the end of the segment read as zero,
// so pages that were never written come back blank.
func (s *FileStore) ReadPage(pageID uint32) (data []byte, err error) {
	segNo, off := s.locate(pageID)
	f, err := s.fs.OpenSegment(segNo)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	buf := make([]byte, s.pageSize)
	if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func (s *FileStore) WritePage(pageID uint32, data []byte) (err error) {
	if len(data) != s.pageSize {
		return fmt.Errorf("%w: got %d, want %d", ErrPageSize, len(data), s.pageSize)
	}
	segNo, off := s.locate(pageID)
	f, err := s.fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	n, err := f.WriteAt(data, off)
	if err != nil {
		return err
	}
	if n != s.pageSize {
		return io.ErrShortWrite
	}
	return nil
}
