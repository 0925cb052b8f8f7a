// Package publisher validates media and writes it to object storage under
// collision-free keys of the form {prefix}/{ownerId}/{epochMillis}.{ext}.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/upload"
)

// Purpose selects the validation rules and the key prefix.
type Purpose string

const (
	PurposeAudio   Purpose = "audio"
	PurposeImage   Purpose = "image"
	PurposeLicense Purpose = "license"
)

func (p Purpose) prefix() string {
	switch p {
	case PurposeAudio:
		return "audio"
	case PurposeImage:
		return "previews"
	case PurposeLicense:
		return "licenses"
	}
	return ""
}

// ObjectStore is the storage backend the publisher writes to.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key, contentType string, data []byte) (string, error)
	DeleteObject(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Input is one file to publish.
type Input struct {
	Data     []byte
	MimeType string
	FileName string
	Purpose  Purpose
	OwnerID  string
}

type Publisher struct {
	store ObjectStore
	now   func() time.Time

	mu     sync.Mutex
	lastMs int64
}

func New(store ObjectStore) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// Publish validates the input, then uploads it. Validation failures never reach the store.
func (p *Publisher) Publish(ctx context.Context, in Input) (string, error) {
	if err := validate(in); err != nil {
		return "", err
	}

	if err := p.store.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := p.Key(in)
	url, err := p.store.PutObject(ctx, key, contentType(in), in.Data)
	if err != nil {
		log.Errorf("[Publisher] upload %s failed: %v", key, err)
		return "", err
	}
	return url, nil
}

// PublishAt stores a document under a caller-chosen name inside the purpose prefix.
// License documents use it so their URL is derivable from the license id.
func (p *Publisher) PublishAt(ctx context.Context, in Input, name string) (string, error) {
	if err := validate(in); err != nil {
		return "", err
	}
	if err := p.store.EnsureBucket(ctx); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s/%s", in.Purpose.prefix(), sanitizeSegment(in.OwnerID), sanitizeSegment(name))
	return p.store.PutObject(ctx, key, contentType(in), in.Data)
}

// Key builds the next object key for in. Successive keys within a process never repeat.
func (p *Publisher) Key(in Input) string {
	return fmt.Sprintf("%s/%s/%d.%s",
		in.Purpose.prefix(),
		sanitizeSegment(in.OwnerID),
		p.nextMillis(),
		upload.Extension(in.FileName, in.MimeType),
	)
}

// Remove deletes a previously published object by its public URL.
func (p *Publisher) Remove(ctx context.Context, url string) error {
	key, ok := p.store.KeyFromURL(url)
	if !ok {
		return apperror.NotFound("object %s is not in this bucket", url)
	}
	return p.store.DeleteObject(ctx, key)
}

func (p *Publisher) nextMillis() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ms := p.now().UnixMilli()
	if ms <= p.lastMs {
		ms = p.lastMs + 1
	}
	p.lastMs = ms
	return ms
}

func validate(in Input) error {
	if strings.TrimSpace(in.OwnerID) == "" {
		return apperror.Validation("owner_id", "owner id is required for uploads")
	}
	size := int64(len(in.Data))
	switch in.Purpose {
	case PurposeAudio:
		if err := upload.ValidateAudio(in.MimeType, in.FileName, size); err != nil {
			return err
		}
	case PurposeImage:
		if err := upload.ValidateImage(in.MimeType, size); err != nil {
			return err
		}
	case PurposeLicense:
		if size == 0 {
			return apperror.InvalidFile("license document is empty")
		}
		return nil
	default:
		return apperror.InvalidFile(fmt.Sprintf("unknown upload purpose %q", in.Purpose))
	}
	return upload.RejectMarkup(head(in.Data))
}

func contentType(in Input) string {
	if in.MimeType != "" {
		return in.MimeType
	}
	return "application/octet-stream"
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

// sanitizeSegment keeps a path segment free of separators and traversal.
func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
