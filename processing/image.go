package processing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // decoders for uploads
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"mime/multipart"
	"strings"

	"natours/errs"
	"natours/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
)

const (
	JPEGQuality = 90

	TourImageWidth  = 2000
	TourImageHeight = 1333
	UserPhotoSize   = 500

	notAnImage = "Not an image! Please upload only images."
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// DetectImage checks the uploaded file really is an image
func DetectImage(header *multipart.FileHeader) error {
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()
	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return errs.BadRequest(notAnImage)
	}
	return nil
}

// ResizeCover scales the image to cover width x height, crops the center and
// encodes it as JPEG.
func ResizeCover(r io.Reader, width, height int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, errs.BadRequest(notAnImage)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errs.BadRequest(notAnImage)
	}
	scale := math.Max(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	scaledWidth := int(math.Ceil(float64(bounds.Dx()) * scale))
	scaledHeight := int(math.Ceil(float64(bounds.Dy()) * scale))
	scaled := resize.Resize(uint(scaledWidth), uint(scaledHeight), src, resize.Lanczos3)

	x := (scaledWidth - width) / 2
	y := (scaledHeight - height) / 2
	cropped := scaled
	if sub, ok := scaled.(subImager); ok {
		origin := scaled.Bounds().Min
		cropped = sub.SubImage(image.Rect(origin.X+x, origin.Y+y, origin.X+x+width, origin.Y+y+height))
	}

	buf := bytes.Buffer{}
	if err = jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeUpload checks, resizes and counts one uploaded file
func resizeUpload(header *multipart.FileHeader, width, height int, kind string) ([]byte, error) {
	if err := DetectImage(header); err != nil {
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := ResizeCover(file, width, height)
	if err != nil {
		return nil, err
	}
	metrics.ImagesResized.WithLabelValues(kind).Inc()
	return data, nil
}
