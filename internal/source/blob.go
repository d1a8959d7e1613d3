package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httpretry"
)

// maxBlobBytes caps a single metrics blob.
const maxBlobBytes = 256 << 20

// Presigner is the subset of *s3.PresignClient the blob store needs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// BlobConfig locates the metric blobs.
type BlobConfig struct {
	Bucket       string
	CompletedKey string
	LiveKey      string
	PresignTTL   time.Duration
}

// BlobStore downloads metric blobs through short-lived presigned URLs.
type BlobStore struct {
	presigner Presigner
	http      httpretry.HTTPDoer
	cfg       BlobConfig
}

// NewBlobStore builds a store. A nil doer gets a retrying client.
func NewBlobStore(presigner Presigner, doer httpretry.HTTPDoer, cfg BlobConfig) *BlobStore {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 3)
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &BlobStore{presigner: presigner, http: doer, cfg: cfg}
}

// NewS3BlobStore wires the store to a real S3 client.
func NewS3BlobStore(client *s3.Client, cfg BlobConfig) *BlobStore {
	return NewBlobStore(s3.NewPresignClient(client), nil, cfg)
}

// SignedURL presigns a GetObject for key.
func (b *BlobStore) SignedURL(ctx context.Context, key string) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(b.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", b.cfg.Bucket, key, err)
	}
	return req.URL, nil
}

// Get downloads the blob stored under key.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	url, err := b.SignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building blob request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("downloading %s: status %d: %s", key, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// FetchCompleted loads and decodes the completed-campaign blob.
func (b *BlobStore) FetchCompleted(ctx context.Context) ([]domain.CampaignRecord, error) {
	if b.cfg.CompletedKey == "" {
		return nil, fetchErr("completed", ErrNotConfigured)
	}
	data, err := b.Get(ctx, b.cfg.CompletedKey)
	if err != nil {
		return nil, fetchErr("completed", err)
	}
	recs, err := DecodeCompleted(data)
	return recs, fetchErr("completed", err)
}

// FetchLive loads and decodes the live-campaign blob.
func (b *BlobStore) FetchLive(ctx context.Context) ([]domain.CampaignRecord, error) {
	if b.cfg.LiveKey == "" {
		return nil, fetchErr("live", ErrNotConfigured)
	}
	data, err := b.Get(ctx, b.cfg.LiveKey)
	if err != nil {
		return nil, fetchErr("live", err)
	}
	recs, err := DecodeLive(data)
	return recs, fetchErr("live", err)
}
