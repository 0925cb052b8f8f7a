package upload

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

const (
	MaxAudioBytes int64 = 50 << 20
	MaxImageBytes int64 = 5 << 20
)

var allowedAudioMime = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/wave":  true,
	"audio/x-wav": true,
	"audio/x-m4a": true,
	"audio/mp4":   true,
	"audio/aac":   true,
	"audio/ogg":   true,
	"audio/webm":  true,
	"audio/flac":  true,
}

// Browsers report audio types inconsistently, so a known extension is enough.
var allowedAudioExt = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".webm": true,
	".flac": true,
}

var allowedImageMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// mimeExt is used when the file name carries no extension.
var mimeExt = map[string]string{
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/wave":  "wav",
	"audio/x-wav": "wav",
	"audio/x-m4a": "m4a",
	"audio/mp4":   "m4a",
	"audio/aac":   "aac",
	"audio/ogg":   "ogg",
	"audio/webm":  "webm",
	"audio/flac":  "flac",
	"image/jpeg":  "jpg",
	"image/png":   "png",
	"image/webp":  "webp",
	"image/gif":   "gif",
	"text/plain":  "txt",
}

// ValidateAudio checks type first, then size.
func ValidateAudio(mimeType, fileName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedAudioMime[normalizeMime(mimeType)] && !allowedAudioExt[ext] {
		return apperror.InvalidFile("Invalid file type. Please upload MP3, WAV, M4A, AAC, OGG, WebM, or FLAC files.")
	}
	if size > MaxAudioBytes {
		return apperror.FileTooLarge("File size exceeds 50MB limit.")
	}
	return nil
}

// ValidateImage checks type first, then size.
func ValidateImage(mimeType string, size int64) error {
	if !allowedImageMime[normalizeMime(mimeType)] {
		return apperror.InvalidFile("Invalid file type. Please upload JPEG, PNG, WebP, or GIF images.")
	}
	if size > MaxImageBytes {
		return apperror.FileTooLarge("Image size exceeds 5MB limit.")
	}
	return nil
}

// RejectMarkup blocks scriptable payloads regardless of the declared type.
func RejectMarkup(head []byte) error {
	detected := http.DetectContentType(head)
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "text/xml") {
		return apperror.InvalidFile("HTML or XML content is not allowed.")
	}
	return nil
}

// Extension returns the lowercase extension (without dot) for the stored object.
// The file name wins; the MIME type is the fallback; "bin" is the last resort.
func Extension(fileName, mimeType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext != "" && isSafeExt(ext) {
		return ext
	}
	if e, ok := mimeExt[normalizeMime(mimeType)]; ok {
		return e
	}
	return "bin"
}

func normalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func isSafeExt(ext string) bool {
	if len(ext) > 8 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
