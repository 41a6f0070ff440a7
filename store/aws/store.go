// Package aws stores recent edits in an S3 bucket, one key prefix per edit.
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store/entry"
)

// ObjectAPI is the subset of *s3.Client used by the store.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	client ObjectAPI
	bucket string
}

// NewStore creates an S3 store using the default AWS configuration chain.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 store: load SDK config: %w", err)
	}
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

// NewStoreWithClient creates a store on an existing client.
func NewStoreWithClient(client ObjectAPI, bucketName string) *s3Store {
	return &s3Store{client: client, bucket: bucketName}
}

func (s *s3Store) key(id, name string) string {
	return path.Join(id, name)
}

func (s *s3Store) Save(ctx context.Context, edit *retouch.RecentEdit) (string, error) {
	b, err := entry.Encode(edit)
	if err != nil {
		return "", err
	}
	meta, err := entry.MarshalMeta(b.Meta)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"edit_id": b.Meta.ID,
		"bucket":  s.bucket,
	})

	objects := []struct {
		name, contentType string
		data              []byte
	}{
		{entry.ThumbnailFile, "image/png", b.Thumbnail},
		{entry.OriginalFile, "image/png", b.Original},
		{entry.EditedFile, "image/png", b.Edited},
		{entry.MetaFile, "application/yaml", meta},
	}
	for _, o := range objects {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(b.Meta.ID, o.name)),
			Body:        bytes.NewReader(o.data),
			ContentType: aws.String(o.contentType),
		})
		if err != nil {
			log.WithError(err).WithField("object", o.name).Error("Failed to upload edit")
			return "", fmt.Errorf("s3 store: upload %s: %w", s.key(b.Meta.ID, o.name), err)
		}
	}
	log.Info("Recent edit saved")
	return b.Meta.ID, nil
}

func (s *s3Store) List(ctx context.Context) ([]*retouch.RecentEdit, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Delimiter: aws.String("/"),
	})

	var out []*retouch.RecentEdit
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 store: list: %w", err)
		}
		for _, prefix := range page.CommonPrefixes {
			id := strings.TrimSuffix(aws.ToString(prefix.Prefix), "/")
			if entry.CheckID(id) != nil {
				continue
			}
			b, err := s.read(ctx, id, entry.ThumbnailFile)
			if err != nil {
				logrus.WithField("edit_id", id).WithError(err).Warn("Skipping unreadable edit")
				continue
			}
			e, err := b.Decode()
			if err != nil {
				logrus.WithField("edit_id", id).WithError(err).Warn("Skipping undecodable edit")
				continue
			}
			out = append(out, e)
		}
	}
	entry.SortNewest(out)
	return out, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*retouch.RecentEdit, error) {
	b, err := s.read(ctx, id, entry.ThumbnailFile, entry.OriginalFile, entry.EditedFile)
	if err != nil {
		return nil, err
	}
	return b.Decode()
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	if err := entry.CheckID(id); err != nil {
		return err
	}
	if _, err := s.object(ctx, s.key(id, entry.MetaFile)); err != nil {
		return err
	}
	// Metadata first, so a partial delete is invisible to List.
	for _, name := range []string{entry.MetaFile, entry.ThumbnailFile, entry.OriginalFile, entry.EditedFile} {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(id, name)),
		})
		if err != nil {
			return fmt.Errorf("s3 store: delete %s: %w", s.key(id, name), err)
		}
	}
	logrus.WithField("edit_id", id).Info("Recent edit deleted")
	return nil
}

func (s *s3Store) read(ctx context.Context, id string, files ...string) (*entry.Blobs, error) {
	if err := entry.CheckID(id); err != nil {
		return nil, err
	}
	data, err := s.object(ctx, s.key(id, entry.MetaFile))
	if err != nil {
		return nil, err
	}
	meta, err := entry.UnmarshalMeta(data)
	if err != nil {
		return nil, err
	}
	b := &entry.Blobs{Meta: meta}
	for _, name := range files {
		data, err := s.object(ctx, s.key(id, name))
		if err != nil {
			return nil, err
		}
		switch name {
		case entry.ThumbnailFile:
			b.Thumbnail = data
		case entry.OriginalFile:
			b.Original = data
		case entry.EditedFile:
			b.Edited = data
		}
	}
	return b, nil
}

func (s *s3Store) object(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, entry.ErrNotFound
		}
		return nil, fmt.Errorf("s3 store: get %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 store: read %s: %w", key, err)
	}
	return data, nil
}
