package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/config"
	"github.com/filehub/api/src/naming"
)

const deleteBatchSize = 1000

// S3Store keeps all managed files under one fixed root prefix in a bucket.
// Download resolves to a presigned provider URL instead of streaming bytes
// through this service. Subfolders are ordinary key prefixes; an explicitly
// created folder gets a zero-byte marker object so empty folders survive.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	presigner  *s3.PresignClient
	bucket     string
	root       string
	codec      naming.Codec
	timeout    time.Duration
	presignTTL time.Duration
	logger     *logrus.Logger
}

// NewS3Store builds the s3 backend from injected configuration.
func NewS3Store(ctx context.Context, cfg config.S3Config, rootPrefix string, codec naming.Codec, logger *logrus.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		root:       strings.Trim(rootPrefix, "/"),
		codec:      codec,
		timeout:    cfg.RequestTimeout,
		presignTTL: cfg.PresignTTL,
		logger:     logger,
	}, nil
}

func (s *S3Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// key derives the storage identifier for a display name: root prefix,
// relative folder, encoded base name with the extension outside the
// encoded segment.
func (s *S3Store) key(folder, name string) string {
	return path.Join(s.root, folder, naming.EncodeFilename(s.codec, name))
}

// prefix returns the listing prefix for a folder, always "/"-terminated.
func (s *S3Store) prefix(folder string) string {
	return path.Join(s.root, folder) + "/"
}

func (s *S3Store) Put(ctx context.Context, folder, name string, r io.Reader, size int64) (string, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}
	name, err = cleanName(name)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key := s.key(folder, name)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		// Display name travels with the object; required to recover it
		// when the active codec is not reversible.
		Metadata: map[string]string{"filename": url.PathEscape(name)},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{
		"filename": name,
		"key":      key,
	}).Info("storage: object uploaded")

	return s.presignGet(ctx, key, name)
}

func (s *S3Store) List(ctx context.Context, folder string) (*Listing, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	prefix := s.prefix(folder)
	listing := &Listing{Folders: []string{}, Files: []string{}}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			// An unused folder has no explicit existence in the object
			// store; a 404-class answer means "empty", not failure.
			if isNotFound(err) {
				return listing, nil
			}
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}

		for _, cp := range page.CommonPrefixes {
			sub := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if sub != "" {
				listing.Folders = append(listing.Folders, sub)
			}
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue // folder marker
			}
			display, err := s.displayName(ctx, key)
			if err != nil {
				return nil, err
			}
			listing.Files = append(listing.Files, display)
		}
	}

	return listing, nil
}

func (s *S3Store) Fetch(ctx context.Context, folder, name string) (*Object, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}
	name, err = cleanName(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key := s.key(folder, name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("head %s: %w", key, err)
	}

	redirect, err := s.presignGet(ctx, key, name)
	if err != nil {
		return nil, err
	}

	return &Object{
		Name:        name,
		Size:        aws.ToInt64(head.ContentLength),
		ContentType: aws.ToString(head.ContentType),
		RedirectURL: redirect,
	}, nil
}

func (s *S3Store) Rename(ctx context.Context, folder, oldName, newName string) error {
	folder, err := cleanFolder(folder)
	if err != nil {
		return err
	}
	oldName, err = cleanName(oldName)
	if err != nil {
		return err
	}
	newName, err = cleanName(newName)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	oldKey := s.key(folder, oldName)
	newKey := s.key(folder, newName)
	if oldKey == newKey {
		return nil
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(oldKey),
	}); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("head %s: %w", oldKey, err)
	}

	// S3 has no native rename; server-side copy then delete the source.
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		CopySource:        aws.String(s.bucket + "/" + oldKey),
		Key:               aws.String(newKey),
		Metadata:          map[string]string{"filename": url.PathEscape(newName)},
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		return fmt.Errorf("copy %s -> %s: %w", oldKey, newKey, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(oldKey),
	})
	if err != nil {
		return fmt.Errorf("delete %s after copy: %w", oldKey, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, folder, name string) error {
	folder, err := cleanFolder(folder)
	if err != nil {
		return err
	}
	name, err = cleanName(name)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key := s.key(folder, name)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("head %s: %w", key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) CreateFolder(ctx context.Context, parent, name string) error {
	parent, err := cleanFolder(parent)
	if err != nil {
		return err
	}
	name, err = cleanName(name)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	prefix := s.prefix(path.Join(parent, name))
	existing, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("list %s: %w", prefix, err)
	}
	if existing != nil && aws.ToInt32(existing.KeyCount) > 0 {
		return ErrFolderExists
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("create folder marker %s: %w", prefix, err)
	}
	return nil
}

func (s *S3Store) DeleteFolder(ctx context.Context, folder string) error {
	folder, err := cleanFolder(folder)
	if err != nil {
		return err
	}
	if folder == "" {
		return fmt.Errorf("refusing to delete storage root")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	prefix := s.prefix(folder)
	var keys []types.ObjectIdentifier

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
	}

	if len(keys) == 0 {
		return ErrNotFound
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: keys[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("delete folder %s: %w", prefix, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"folder":  folder,
		"objects": len(keys),
	}).Info("storage: folder deleted")
	return nil
}

func (s *S3Store) Search(ctx context.Context, keyword string) ([]SearchHit, error) {
	keyword = strings.ToLower(keyword)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	root := s.root + "/"
	hits := []SearchHit{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(root),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return hits, nil
			}
			return nil, fmt.Errorf("search under %s: %w", root, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			display, err := s.displayName(ctx, key)
			if err != nil {
				return nil, err
			}
			if !strings.Contains(strings.ToLower(display), keyword) {
				continue
			}

			folder := path.Dir(strings.TrimPrefix(key, root))
			if folder == "." {
				folder = ""
			}
			hits = append(hits, SearchHit{File: display, Folder: folder})
		}
	}

	return hits, nil
}

// displayName recovers the client-visible name for a stored key. Reversible
// codecs decode it straight from the identifier; otherwise the name comes
// from the object's filename metadata, falling back to the identifier.
func (s *S3Store) displayName(ctx context.Context, key string) (string, error) {
	id := path.Base(key)
	if s.codec.Reversible() {
		return naming.DecodeFilename(s.codec, id), nil
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return id, nil
		}
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	if escaped, ok := head.Metadata["filename"]; ok {
		if name, err := url.PathUnescape(escaped); err == nil && name != "" {
			return name, nil
		}
	}
	return id, nil
}

func (s *S3Store) presignGet(ctx context.Context, key, name string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	}, func(o *s3.PresignOptions) {
		o.Expires = s.presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}

var _ Provider = (*S3Store)(nil)
