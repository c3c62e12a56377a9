package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/util/compression"
)

const (
	s3GistPrefix = "gists/"
	s3StarPrefix = "starred/"
)

type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type S3Options struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Owner           string
}

// S3 keeps each gist as a gzip-compressed JSON object under gists/<id>.json
// and each star as an empty marker object under starred/<id>. Lists are
// newest first by creation time.
type S3 struct {
	client     S3API
	bucket     string
	owner      string
	compressor compression.Compressor
}

func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3WithClient(client, opts.Bucket, opts.Owner), nil
}

func NewS3WithClient(client S3API, bucket, owner string) *S3 {
	return &S3{
		client:     client,
		bucket:     bucket,
		owner:      owner,
		compressor: compression.GzipCompressor{},
	}
}

func (r *S3) ListGists(ctx context.Context) ([]model.Gist, error) {
	keys, err := r.keys(ctx, s3GistPrefix)
	if err != nil {
		return nil, err
	}

	gists := make([]model.Gist, 0, len(keys))
	for _, key := range keys {
		gist, err := r.read(ctx, key)
		if err != nil {
			return nil, err
		}
		gists = append(gists, gist)
	}

	sortNewestFirst(gists)
	return gists, nil
}

func (r *S3) ListStarredGists(ctx context.Context) ([]model.Gist, error) {
	keys, err := r.keys(ctx, s3StarPrefix)
	if err != nil {
		return nil, err
	}

	gists := make([]model.Gist, 0, len(keys))
	for _, key := range keys {
		id := model.GistID(strings.TrimPrefix(key, s3StarPrefix))
		gist, err := r.read(ctx, gistKey(id))
		if errors.Is(err, ErrNotFound) {
			remoteLogger.Warn().Str("gist_id", string(id)).Msg("Star marker without gist, skipping")
			continue
		}
		if err != nil {
			return nil, err
		}
		gists = append(gists, gist)
	}

	sortNewestFirst(gists)
	return gists, nil
}

func (r *S3) CreateGist(ctx context.Context, description string, files map[string]model.File, public bool) (model.Gist, error) {
	if err := validateFiles(files); err != nil {
		return model.Gist{}, err
	}

	now := time.Now().UTC()
	gist := model.Gist{
		ID:          model.GistID(uuid.New().String()),
		Description: model.String(description),
		Files:       make(map[string]model.File, len(files)),
		Visibility:  model.VisibilityOf(public),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.owner != "" {
		gist.Owner = &model.Owner{Login: model.String(r.owner)}
	}
	for name, f := range files {
		gist.Files[name] = model.NewFile(name, f.ContentOrEmpty())
	}

	data, err := json.Marshal(gist)
	if err != nil {
		return model.Gist{}, fmt.Errorf("error encoding gist: %w", err)
	}
	compressed, err := r.compressor.Compress(data)
	if err != nil {
		return model.Gist{}, fmt.Errorf("error compressing gist: %w", err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(r.bucket),
		Key:             aws.String(gistKey(gist.ID)),
		Body:            bytes.NewReader(compressed),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String(compression.ContentEncoding(r.compressor)),
	})
	if err != nil {
		return model.Gist{}, fmt.Errorf("error uploading gist: %w", err)
	}

	return gist, nil
}

func (r *S3) StarGist(ctx context.Context, id model.GistID) error {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(gistKey(id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error checking gist: %w", err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(s3StarPrefix + string(id)),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("error starring gist: %w", err)
	}
	return nil
}

func (r *S3) keys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (r *S3) read(ctx context.Context, key string) (model.Gist, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return model.Gist{}, ErrNotFound
		}
		return model.Gist{}, fmt.Errorf("error reading %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Gist{}, fmt.Errorf("error reading %s: %w", key, err)
	}
	if aws.ToString(out.ContentEncoding) == compression.ContentEncoding(r.compressor) {
		if data, err = r.compressor.Decompress(data); err != nil {
			return model.Gist{}, fmt.Errorf("error decompressing %s: %w", key, err)
		}
	}

	var gist model.Gist
	if err := json.Unmarshal(data, &gist); err != nil {
		return model.Gist{}, fmt.Errorf("error decoding %s: %w", key, err)
	}
	return gist, nil
}

func gistKey(id model.GistID) string {
	return s3GistPrefix + string(id) + ".json"
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func sortNewestFirst(gists []model.Gist) {
	slices.SortStableFunc(gists, func(a, b model.Gist) int {
		return -a.CreatedAt.Compare(b.CreatedAt)
	})
}
