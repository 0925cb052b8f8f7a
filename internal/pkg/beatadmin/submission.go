package beatadmin

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

// State is a step of a single submission.
type State string

const (
	StateDraft            State = "draft"
	StateValidating       State = "validating"
	StateUploadingAudio   State = "uploading_audio"
	StateUploadingPreview State = "uploading_preview"
	StatePersisting       State = "persisting"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Fields are the scalar inputs of the beat form. Declaration order is the order
// in which failures are reported. On edit a nil optional keeps the stored value,
// while an empty string or a zero BPM clears it.
type Fields struct {
	Title             string  `json:"title" validate:"required,max=255"`
	PriceCents        int64   `json:"price_cents" validate:"gt=0"`
	LicenseType       string  `json:"license_type" validate:"omitempty,oneof=basic premium unlimited exclusive"`
	BPM               *int    `json:"bpm" validate:"omitempty,gte=0,lte=400"`
	Key               *string `json:"key" validate:"omitempty,max=32"`
	Genre             *string `json:"genre" validate:"omitempty,max=100"`
	ProducerName      *string `json:"producer_name" validate:"omitempty,max=255"`
	LicensorLegalName *string `json:"licensor_legal_name" validate:"omitempty,max=255"`
	// IsActive nil keeps the stored value on edit and means active on create.
	IsActive *bool `json:"is_active"`
}

// File is an attachment held in memory.
type File struct {
	Data     []byte
	MimeType string
	FileName string
}

// Submission is one create (BeatID empty) or edit of a beat.
type Submission struct {
	BeatID  string
	Fields  Fields
	Audio   *File
	Preview *File
}

func (s Submission) IsEdit() bool {
	return s.BeatID != ""
}

// Result records how far a submission got.
type Result struct {
	Beat  *models.Beat
	Trace []State
	// Orphans lists objects uploaded by a submission that then failed.
	Orphans []string
}

func (r *Result) enter(s State) {
	r.Trace = append(r.Trace, s)
}

// Final is the last state reached.
func (r *Result) Final() State {
	if len(r.Trace) == 0 {
		return StateDraft
	}
	return r.Trace[len(r.Trace)-1]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"title":               "Title is required",
	"price_cents":         "Price must be greater than 0",
	"license_type":        "License type must be one of basic, premium, unlimited, exclusive",
	"bpm":                 "BPM must be between 1 and 400, or 0 to clear it",
	"key":                 "Key must be at most 32 characters",
	"genre":               "Genre must be at most 100 characters",
	"producer_name":       "Producer name must be at most 255 characters",
	"licensor_legal_name": "Licensor legal name must be at most 255 characters",
}

// validateSubmission reports the first failing field: title, price, license
// type, the audio attachment for new beats, then the optional scalars.
func validateSubmission(sub *Submission) error {
	sub.Fields.Title = strings.TrimSpace(sub.Fields.Title)
	sub.Fields.LicenseType = strings.ToLower(strings.TrimSpace(sub.Fields.LicenseType))

	failed := map[string]bool{}
	if err := validate.Struct(sub.Fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperror.Validation("", err.Error())
		}
		for _, fe := range verrs {
			failed[fe.Field()] = true
		}
	}

	for _, field := range []string{"title", "price_cents", "license_type"} {
		if failed[field] {
			return fieldError(field)
		}
	}
	if !sub.IsEdit() && (sub.Audio == nil || len(sub.Audio.Data) == 0) {
		return apperror.Validation("audio", "Audio file is required for new beats")
	}
	for _, field := range []string{"bpm", "key", "genre", "producer_name", "licensor_legal_name"} {
		if failed[field] {
			return fieldError(field)
		}
	}

	if sub.Fields.LicenseType == "" {
		sub.Fields.LicenseType = string(models.LicenseBasic)
	}
	return nil
}

func fieldError(field string) error {
	msg, ok := fieldMessages[field]
	if !ok {
		msg = field + " is invalid"
	}
	return apperror.Validation(field, msg)
}
