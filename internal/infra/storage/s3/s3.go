// Package s3 stores image blobs in an S3-compatible bucket (MinIO, AWS).
// Objects are keyed "<day>/<name>"; the bucket is expected to be exposed
// behind the same public prefix the refs carry.
package s3

import (
	"context"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/infra/storage/refpath"
)

type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	PathStyle    bool
	PublicPrefix string
}

type Storage struct {
	cl     *minio.Client
	bucket string
	prefix string
	logger *log.Logger
}

var _ domain.BlobStorage = (*Storage)(nil)

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{cl: cl, bucket: cfg.Bucket, prefix: cfg.PublicPrefix, logger: logger}, nil
}

// Put uploads the payload under the day's prefix. Object names always carry a
// short random suffix: S3 has no atomic create-if-absent, so uniqueness is
// guaranteed up front instead of checked after the fact.
func (s *Storage) Put(ctx context.Context, r io.Reader, day domain.DayKey, suggestedName, mime string) (domain.BlobRef, error) {
	name := refpath.WithSuffix(refpath.Sanitize(suggestedName), uuid.NewString()[:8])
	key := day.String() + "/" + name

	info, err := s.cl.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		return "", err
	}

	ref := refpath.Ref(s.prefix, day, name)
	s.logger.Printf("put %s (%d bytes, %s)", ref, info.Size, mime)
	return ref, nil
}

// Delete removes the object; a missing object is success.
func (s *Storage) Delete(ctx context.Context, ref domain.BlobRef) error {
	key, err := refpath.Key(s.prefix, ref)
	if err != nil {
		return err
	}
	err = s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return err
	}
	s.logger.Printf("delete %s", ref)
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.BucketExists(ctx, s.bucket)
	return err
}
