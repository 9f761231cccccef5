package processing

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"natours/storage"

	"golang.org/x/sync/errgroup"
)

const MaxTourImages = 3

// TourImages holds the stored file names of an upload; empty fields were not
// uploaded.
type TourImages struct {
	Cover  string
	Images []string
}

func saveJPEG(store storage.StorageAPI, path string, data []byte) error {
	_, err := store.Save(path, bytes.NewReader(data))
	return err
}

// SaveTourImages resizes the cover and the gallery images concurrently
func SaveTourImages(ctx context.Context, store storage.StorageAPI, tourID uint64, cover *multipart.FileHeader, images []*multipart.FileHeader) (*TourImages, error) {
	if len(images) > MaxTourImages {
		images = images[:MaxTourImages]
	}
	stamp := time.Now().UnixMilli()
	result := &TourImages{}
	if len(images) > 0 {
		result.Images = make([]string, len(images))
	}

	g, ctx := errgroup.WithContext(ctx)
	if cover != nil {
		g.Go(func() error {
			name := fmt.Sprintf("tour-%d-%d-cover.jpeg", tourID, stamp)
			data, err := resizeUpload(cover, TourImageWidth, TourImageHeight, "tour_cover")
			if err != nil {
				return err
			}
			if err = ctx.Err(); err != nil {
				return err
			}
			result.Cover = name
			return saveJPEG(store, storage.TourImagePath(name), data)
		})
	}
	for i, header := range images {
		i, header := i, header
		g.Go(func() error {
			name := fmt.Sprintf("tour-%d-%d-%d.jpeg", tourID, stamp, i+1)
			data, err := resizeUpload(header, TourImageWidth, TourImageHeight, "tour_image")
			if err != nil {
				return err
			}
			if err = ctx.Err(); err != nil {
				return err
			}
			result.Images[i] = name
			return saveJPEG(store, storage.TourImagePath(name), data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveUserPhoto stores a square photo and returns its file name
func SaveUserPhoto(store storage.StorageAPI, userID uint64, header *multipart.FileHeader) (string, error) {
	data, err := resizeUpload(header, UserPhotoSize, UserPhotoSize, "user_photo")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("user-%d-%d.jpeg", userID, time.Now().UnixMilli())
	if err = saveJPEG(store, storage.UserImagePath(name), data); err != nil {
		return "", err
	}
	return name, nil
}
