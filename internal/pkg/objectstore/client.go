package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client publishes objects into a single public bucket.
type Client struct {
	api    S3API
	config *Config

	mu          sync.Mutex
	bucketReady bool
}

// NewClient creates the S3 client. No network call happens until first use.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[ObjectStore] client ready for bucket %s", cfg.BucketName)
	return NewWithAPI(s3Client, cfg), nil
}

// NewWithAPI wires an existing S3 implementation.
func NewWithAPI(api S3API, cfg *Config) *Client {
	return &Client{api: api, config: cfg}
}

func (c *Client) Bucket() string {
	return c.config.BucketName
}

// CheckBucket reports whether the bucket is reachable. It never provisions.
func (c *Client) CheckBucket(ctx context.Context) error {
	bucket := c.config.BucketName
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	switch {
	case err == nil:
		return nil
	case isMissingBucket(err):
		return apperror.StorageUnavailable(fmt.Sprintf("Storage bucket %q does not exist", bucket), err)
	case isAccessDenied(err):
		return apperror.StorageUnavailable(c.manualSteps("the configured credentials cannot access it"), err)
	}
	return apperror.StorageUnavailable(fmt.Sprintf("Storage bucket %q could not be checked: %v", bucket, err), err)
}

// EnsureBucket verifies the bucket once per process and provisions it when allowed.
func (c *Client) EnsureBucket(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bucketReady {
		return nil
	}

	bucket := c.config.BucketName
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		c.bucketReady = true
		return nil
	}
	if !isMissingBucket(err) {
		if isAccessDenied(err) {
			return apperror.StorageUnavailable(c.manualSteps("the configured credentials cannot access it"), err)
		}
		return apperror.StorageUnavailable(fmt.Sprintf("Storage bucket %q could not be checked: %v", bucket, err), err)
	}

	if !c.config.AllowProvision {
		return apperror.StorageUnavailable(c.manualSteps("it does not exist and these credentials may not create buckets"), err)
	}

	log.Warnf("[ObjectStore] bucket %s not found, creating it", bucket)
	if err := c.createBucket(ctx); err != nil {
		return err
	}
	c.bucketReady = true
	return nil
}

func (c *Client) createBucket(ctx context.Context) error {
	bucket := c.config.BucketName
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}

	// us-east-1 and S3-compatible services reject an explicit location constraint.
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.api.CreateBucket(ctx, input)
	if err != nil && !isAlreadyOwned(err) {
		return apperror.StorageUnavailable(c.manualSteps("creating it failed: "+err.Error()), err)
	}

	if _, err := c.api.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(c.config.publicReadPolicy()),
	}); err != nil {
		return apperror.StorageUnavailable(c.manualSteps("it was created but the public-read policy could not be attached: "+err.Error()), err)
	}

	log.Infof("[ObjectStore] created public bucket %s", bucket)
	return nil
}

// PutObject stores data under key and returns its public URL.
func (c *Client) PutObject(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=3600"),
	})
	if err != nil {
		return "", apperror.StorageUnavailable(fmt.Sprintf("upload of %s failed: %v", key, err), err)
	}

	log.Infof("[ObjectStore] uploaded s3://%s/%s (%d bytes)", c.config.BucketName, key, len(data))
	return c.config.PublicURL(key), nil
}

func (c *Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperror.StorageUnavailable(fmt.Sprintf("delete of %s failed: %v", key, err), err)
	}
	log.Infof("[ObjectStore] deleted s3://%s/%s", c.config.BucketName, key)
	return nil
}

func (c *Client) PublicURL(key string) string {
	return c.config.PublicURL(key)
}

func (c *Client) KeyFromURL(url string) (string, bool) {
	return c.config.KeyFromURL(url)
}

func (c *Client) manualSteps(reason string) string {
	return fmt.Sprintf("Storage bucket %q is not usable: %s. Create it manually in the storage console "+
		"(name %q, public read access, 50MB object limit) or set S3_ALLOW_PROVISION=true for credentials "+
		"that may create buckets.", c.config.BucketName, reason, c.config.BucketName)
}

func isMissingBucket(err error) bool {
	var nf *types.NotFound
	var nsb *types.NoSuchBucket
	if errors.As(err, &nf) || errors.As(err, &nsb) {
		return true
	}
	return apiCode(err) == "NotFound" || apiCode(err) == "NoSuchBucket"
}

func isAlreadyOwned(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	return errors.As(err, &owned) || errors.As(err, &exists)
}

func isAccessDenied(err error) bool {
	switch apiCode(err) {
	case "AccessDenied", "Forbidden", "403":
		return true
	}
	return false
}

func apiCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
