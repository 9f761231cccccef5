package storage

import (
	"io"
	"math"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	Bucket   Bucket
	s3Client *s3.S3
	uploader *s3manager.Uploader
}

func NewS3Storage(bucket *Bucket) (*S3Storage, error) {
	client, err := bucket.CreateSVC()
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		Bucket:   *bucket,
		s3Client: client,
		uploader: s3manager.NewUploaderWithClient(client),
	}, nil
}

// Save uploads reader to the bucket. The size is not known to the uploader,
// so the returned count is counted while streaming.
func (s *S3Storage) Save(path string, reader io.Reader) (int64, error) {
	counter := &countingReader{r: reader}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket.Name),
		Key:         aws.String(s.Bucket.GetRemotePath(path)),
		ContentType: aws.String(mimeType),
		Body:        counter,
	})
	return counter.n, err
}

func (s *S3Storage) Delete(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket.Name),
		Key:    aws.String(s.Bucket.GetRemotePath(path)),
	})
	return err
}

func (s *S3Storage) URL(path string) string {
	key := s.Bucket.GetRemotePath(path)
	if s.Bucket.Endpoint != "" {
		return strings.TrimRight(s.Bucket.Endpoint, "/") + "/" + s.Bucket.Name + "/" + key
	}
	return "https://" + s.Bucket.Name + ".s3." + s.Bucket.Region + ".amazonaws.com/" + key
}

// GetFreeSpace is unbounded for S3
func (s *S3Storage) GetFreeSpace() uint64 {
	return math.MaxUint64
}

func (s *S3Storage) GetBucket() *Bucket {
	return &s.Bucket
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
