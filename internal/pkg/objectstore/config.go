package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

const DefaultBucket = "beats"

// Config holds the S3-compatible storage settings.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional CDN or public bucket origin
	// AllowProvision marks credentials that may create buckets and attach policies.
	AllowProvision bool
}

// LoadConfig loads storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", DefaultBucket),
		EndpointURL:     strings.TrimRight(env.GetEnv("S3_ENDPOINT_URL", ""), "/"),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		AllowProvision:  env.GetBool("S3_ALLOW_PROVISION", false),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME must not be empty")
	}

	return config, nil
}

// PublicURL is the URL a browser uses to fetch the object.
func (c *Config) PublicURL(key string) string {
	return c.publicBase() + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL reverses PublicURL. It reports false for URLs outside this bucket.
func (c *Config) KeyFromURL(url string) (string, bool) {
	prefix := c.publicBase() + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func (c *Config) publicBase() string {
	switch {
	case c.PublicBaseURL != "":
		return c.PublicBaseURL
	case c.EndpointURL != "":
		// Path-style addressing, as used for S3-compatible services.
		return fmt.Sprintf("%s/%s", c.EndpointURL, c.BucketName)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.BucketName, c.Region)
	}
}

// publicReadPolicy grants anonymous GetObject on every key in the bucket.
func (c *Config) publicReadPolicy() string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Sid":"PublicRead","Effect":"Allow","Principal":"*","Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.BucketName)
}
