package storage

import (
	"strings"

	"natours/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

// Bucket describes where uploaded images end up
type Bucket struct {
	Name        string
	StorageType StorageType
	Path        string // Path on a drive or a prefix in a S3 bucket
	Region      string
	Endpoint    string
	Key         string
	Secret      string
}

func BucketFromConfig(cfg *config.Config) *Bucket {
	if cfg.Storage == config.StorageS3 {
		return &Bucket{
			Name:        cfg.S3Bucket,
			StorageType: StorageTypeS3,
			Path:        strings.Trim(cfg.S3Prefix, "/"),
			Region:      cfg.S3Region,
			Endpoint:    cfg.S3Endpoint,
			Key:         cfg.S3Key,
			Secret:      cfg.S3Secret,
		}
	}
	return &Bucket{
		Name:        "public",
		StorageType: StorageTypeFile,
		Path:        strings.TrimRight(cfg.PublicDir, "/") + ImagesDir,
	}
}

// GetRemotePath returns the S3 object key for path
func (b *Bucket) GetRemotePath(path string) string {
	path = strings.TrimLeft(path, "/")
	if b.Path == "" {
		return path
	}
	return b.Path + "/" + path
}

// CreateSVC creates an S3 client. Static credentials are used when given,
// the default AWS chain otherwise.
func (b *Bucket) CreateSVC() (*s3.S3, error) {
	awsConfig := aws.NewConfig().WithRegion(b.Region)
	if b.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(b.Endpoint).WithS3ForcePathStyle(true)
	}
	if b.Key != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(b.Key, b.Secret, ""))
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}
