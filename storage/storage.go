// Package storage keeps uploaded tour and user images, on disk or in S3.
package storage

import (
	"fmt"
	"io"
	"sync"

	"natours/config"

	"go.uber.org/zap"
)

const (
	// ImagesDir is where images live under the public directory and the URL
	// prefix they are served from.
	ImagesDir = "/img"

	LocationTours = "tours"
	LocationUsers = "users"
)

type StorageAPI interface {
	Save(path string, reader io.Reader) (int64, error)
	Delete(path string) error
	URL(path string) string
	GetFreeSpace() uint64
	GetBucket() *Bucket
}

var (
	current StorageAPI
	lock    sync.RWMutex
)

// Init selects the backend described by cfg and makes it the default one
func Init(cfg *config.Config) error {
	bucket := BucketFromConfig(cfg)
	var (
		s   StorageAPI
		err error
	)
	switch bucket.StorageType {
	case StorageTypeFile:
		s = NewDiskStorage(bucket)
	case StorageTypeS3:
		s, err = NewS3Storage(bucket)
	default:
		err = fmt.Errorf("storage type %d unavailable", bucket.StorageType)
	}
	if err != nil {
		return err
	}
	zap.L().Info("storage ready",
		zap.String("bucket", bucket.Name),
		zap.String("path", bucket.Path),
		zap.Uint64("free_space", s.GetFreeSpace()),
	)
	SetDefault(s)
	return nil
}

func SetDefault(s StorageAPI) {
	lock.Lock()
	current = s
	lock.Unlock()
}

// Default returns the storage set by Init; it panics before that
func Default() StorageAPI {
	lock.RLock()
	defer lock.RUnlock()
	if current == nil {
		panic("no storage available")
	}
	return current
}

// TourImagePath and UserImagePath build storage paths from stored file names
func TourImagePath(fileName string) string {
	return LocationTours + "/" + fileName
}

func UserImagePath(fileName string) string {
	return LocationUsers + "/" + fileName
}
