// Package minio archives snapshots in MinIO or any S3-compatible object
// store (Ceph, Garage, SeaweedFS) through the native MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
//		Secure: false,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	archive := miniostore.NewArchive(client, "snapshots", "chain-1/")
package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"

	"github.com/minio/minio-go/v7"
	"github.com/vecdex/vecdex/snapstore"
)

// Archive is a MinIO-backed snapstore.Archive.
type Archive struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ snapstore.Archive = (*Archive)(nil)

// NewArchive creates an archive writing under bucket/prefix.
func NewArchive(client *minio.Client, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

func (a *Archive) key(height uint64) string {
	return path.Join(a.prefix, snapstore.ObjectName(height))
}

// Put implements snapstore.Archive. Size -1 streams the body with
// multipart uploads, so the snapshot never has to fit in memory here.
func (a *Archive) Put(ctx context.Context, height uint64, r io.Reader) error {
	_, err := a.client.PutObject(ctx, a.bucket, a.key(height), r, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("snapstore: minio upload height %d: %w", height, err)
	}
	return nil
}

// Open implements snapstore.Archive. GetObject defers the request until
// the first read, so existence is checked eagerly with a stat.
func (a *Archive) Open(ctx context.Context, height uint64) (io.ReadCloser, error) {
	key := a.key(height)

	if _, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, snapstore.ErrNotFound
		}
		return nil, fmt.Errorf("snapstore: minio stat height %d: %w", height, err)
	}

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("snapstore: minio open height %d: %w", height, err)
	}
	return obj, nil
}

// Latest implements snapstore.Archive.
func (a *Archive) Latest(ctx context.Context) (uint64, error) {
	heights, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(heights) == 0 {
		return 0, snapstore.ErrNotFound
	}
	return heights[len(heights)-1], nil
}

// List implements snapstore.Archive.
func (a *Archive) List(ctx context.Context) ([]uint64, error) {
	var heights []uint64
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    path.Join(a.prefix, "snap-"),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("snapstore: minio list: %w", obj.Err)
		}
		if height, ok := snapstore.ParseObjectName(path.Base(obj.Key)); ok {
			heights = append(heights, height)
		}
	}
	slices.Sort(heights)
	return heights, nil
}

// Delete implements snapstore.Archive.
func (a *Archive) Delete(ctx context.Context, height uint64) error {
	err := a.client.RemoveObject(ctx, a.bucket, a.key(height), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("snapstore: minio delete height %d: %w", height, err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
