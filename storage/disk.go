package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

type DiskStorage struct {
	Bucket Bucket
	// BasePath is a directory that is writable by the current process
	BasePath  string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(bucket *Bucket) *DiskStorage {
	return &DiskStorage{
		Bucket:   *bucket,
		BasePath: bucket.Path,
		dirs:     make(map[string]bool, 10),
	}
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStorage) getFullPath(path string) string {
	return filepath.Join(s.BasePath, filepath.FromSlash(strings.TrimLeft(path, "/")))
}

func (s *DiskStorage) Save(path string, reader io.Reader) (int64, error) {
	fileName := s.getFullPath(path)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return result, err
}

func (s *DiskStorage) Delete(path string) error {
	err := os.Remove(s.getFullPath(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// URL is relative to the site root; images are served statically
func (s *DiskStorage) URL(path string) string {
	return ImagesDir + "/" + strings.TrimLeft(path, "/")
}

func (s *DiskStorage) GetFreeSpace() uint64 {
	var stat unix.Statfs_t
	dir := s.BasePath
	// the base directory may not exist before the first upload
	for {
		if err := unix.Statfs(dir, &stat); err == nil {
			return stat.Bavail * uint64(stat.Bsize)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return 0
		}
		dir = parent
	}
}

func (s *DiskStorage) GetBucket() *Bucket {
	return &s.Bucket
}
