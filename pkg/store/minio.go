package store

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
)

// ArtifactUploader pushes generated artifact directories (code catalogs,
// reports, embeddings) to object storage.
type ArtifactUploader struct {
	client *minio.Client
	bucket string
}

func NewArtifactUploader(cfg *config.Config) (*ArtifactUploader, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &ArtifactUploader{client: client, bucket: cfg.MinioBucket}, nil
}

func (u *ArtifactUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	return u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{})
}

// UploadDir uploads every regular file under localDir, keyed as
// prefix/<relative path>.
func (u *ArtifactUploader) UploadDir(ctx context.Context, localDir, prefix string) error {
	return filepath.WalkDir(localDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		objectName := prefix + "/" + filepath.ToSlash(relative)

		_, err = u.client.FPutObject(ctx, u.bucket, objectName, path, minio.PutObjectOptions{
			ContentType: contentTypeFor(path),
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", objectName, err)
		}

		logger.Log.WithFields(map[string]interface{}{
			"bucket": u.bucket,
			"object": objectName,
		}).Debug("Uploaded artifact")
		return nil
	})
}

func contentTypeFor(path string) string {
	if contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
