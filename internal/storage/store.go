package storage

import (
	"context"
	"io"
)

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// ObjectInfo is the metadata returned by StatObject.
type ObjectInfo struct {
	ObjectName string
	Size       int64
}

// Store abstracts the object storage used as an off-site mirror.
type Store interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error
	StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, object string) error
}

// MirrorObjectName maps a stored file to its object name in the mirror bucket.
func MirrorObjectName(folder, filename string) string {
	return "files/" + folder + "/" + filename
}
