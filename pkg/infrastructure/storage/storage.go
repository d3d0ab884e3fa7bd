// Package storage stores program artifacts in Cloud Storage.
package storage

import (
	"context"
	stderrors "errors"
	"io"
	"path"

	"cloud.google.com/go/storage"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
)

var contentTypes = map[string]string{
	".fit":  "application/vnd.ant.fit",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".json": "application/json",
}

// StorageAdapter implements shared.BlobStore on a GCS client.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if ct, ok := contentTypes[path.Ext(objectName)]; ok {
		wc.ContentType = ct
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return apperrors.ErrArtifactFailed.WithCause(err).WithMetadata("object", objectName)
	}
	if err := wc.Close(); err != nil {
		return apperrors.ErrArtifactFailed.WithCause(err).WithMetadata("object", objectName)
	}
	return nil
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) {
		return nil, apperrors.ErrNotFound.WithCause(err).WithMetadata("object", objectName)
	}
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithCause(err).WithMetadata("object", objectName)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
