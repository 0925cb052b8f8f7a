package publisher

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

type fakeStore struct {
	ensureErr error
	putErr    error

	ensures int
	keys    []string
	deleted []string
}

func (f *fakeStore) EnsureBucket(ctx context.Context) error {
	f.ensures++
	return f.ensureErr
}

func (f *fakeStore) PutObject(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/beats/" + key, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) KeyFromURL(url string) (string, bool) {
	const prefix = "https://cdn.example.com/beats/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (f *fakeStore) calls() int {
	return f.ensures + len(f.keys)
}

func TestPublish_RejectsBeforeAnyStorageCall(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		wantKind *apperror.Error
	}{
		{
			name:     "executable",
			input:    Input{Data: make([]byte, 4<<10), MimeType: "application/octet-stream", FileName: "track.exe", Purpose: PurposeAudio, OwnerID: "beat-123"},
			wantKind: apperror.ErrInvalidFile,
		},
		{
			name:     "oversized wav",
			input:    Input{Data: make([]byte, 60<<20), MimeType: "audio/wav", FileName: "long.wav", Purpose: PurposeAudio, OwnerID: "beat-123"},
			wantKind: apperror.ErrFileTooLarge,
		},
		{
			name:     "oversized preview",
			input:    Input{Data: make([]byte, 6<<20), MimeType: "image/png", FileName: "cover.png", Purpose: PurposeImage, OwnerID: "beat-123"},
			wantKind: apperror.ErrFileTooLarge,
		},
		{
			name:     "html disguised as audio",
			input:    Input{Data: []byte("<html><body>hi</body></html>"), MimeType: "audio/mpeg", FileName: "x.mp3", Purpose: PurposeAudio, OwnerID: "beat-123"},
			wantKind: apperror.ErrInvalidFile,
		},
		{
			name:     "missing owner",
			input:    Input{Data: make([]byte, 10), MimeType: "audio/mpeg", FileName: "x.mp3", Purpose: PurposeAudio},
			wantKind: apperror.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p := New(store)

			url, err := p.Publish(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantKind)
			assert.Empty(t, url)
			assert.Zero(t, store.calls())
		})
	}
}

func TestPublish_KeysNeverCollide(t *testing.T) {
	store := &fakeStore{}
	p := New(store)
	// A frozen clock forces both calls into the same millisecond.
	frozen := time.UnixMilli(1700000000000)
	p.now = func() time.Time { return frozen }

	in := Input{Data: make([]byte, 2<<20), MimeType: "audio/mpeg", FileName: "beat.mp3", Purpose: PurposeAudio, OwnerID: "beat-123"}

	first, err := p.Publish(context.Background(), in)
	require.NoError(t, err)
	second, err := p.Publish(context.Background(), in)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`audio/beat-123/\d+\.mp3$`)
	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{"audio/beat-123/1700000000000.mp3", "audio/beat-123/1700000000001.mp3"}, store.keys)
}

func TestPublish_PreviewPrefixAndExtensionFallback(t *testing.T) {
	store := &fakeStore{}
	p := New(store)
	p.now = func() time.Time { return time.UnixMilli(42) }

	url, err := p.Publish(context.Background(), Input{
		Data:     make([]byte, 1024),
		MimeType: "image/webp",
		FileName: "cover",
		Purpose:  PurposeImage,
		OwnerID:  "beat-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/beats/previews/beat-9/42.webp", url)
}

func TestPublish_OwnerCannotEscapePrefix(t *testing.T) {
	store := &fakeStore{}
	p := New(store)
	p.now = func() time.Time { return time.UnixMilli(7) }

	_, err := p.Publish(context.Background(), Input{
		Data: make([]byte, 16), MimeType: "audio/mpeg", FileName: "a.mp3", Purpose: PurposeAudio, OwnerID: "../../etc",
	})
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	assert.True(t, strings.HasPrefix(store.keys[0], "audio/"))
	assert.NotContains(t, store.keys[0], "..")
}

func TestPublish_StorageErrorsPropagate(t *testing.T) {
	unavailable := apperror.StorageUnavailable("bucket beats missing", errors.New("404"))
	p := New(&fakeStore{ensureErr: unavailable})

	_, err := p.Publish(context.Background(), Input{
		Data: make([]byte, 16), MimeType: "audio/mpeg", FileName: "a.mp3", Purpose: PurposeAudio, OwnerID: "b",
	})
	assert.Same(t, unavailable, err)
}

func TestPublishAt_LicenseDocument(t *testing.T) {
	store := &fakeStore{}
	p := New(store)

	url, err := p.PublishAt(context.Background(), Input{
		Data: []byte("LICENSE"), MimeType: "text/plain; charset=utf-8", Purpose: PurposeLicense, OwnerID: "order-1",
	}, "license-1.txt")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/beats/licenses/order-1/license-1.txt", url)
}

func TestRemove(t *testing.T) {
	store := &fakeStore{}
	p := New(store)

	require.NoError(t, p.Remove(context.Background(), "https://cdn.example.com/beats/audio/b/1.mp3"))
	assert.Equal(t, []string{"audio/b/1.mp3"}, store.deleted)

	err := p.Remove(context.Background(), "https://other.example.com/audio/b/1.mp3")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
