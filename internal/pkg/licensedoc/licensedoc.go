// Package licensedoc renders the plain-text license agreement issued per purchase.
package licensedoc

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/fivedlabs/beatstore/app/models"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var tierNames = map[models.LicenseType]string{
	models.LicenseBasic:     "BASIC",
	models.LicensePremium:   "PREMIUM",
	models.LicenseUnlimited: "UNLIMITED",
	models.LicenseExclusive: "EXCLUSIVE",
}

// Defaults fill in the parties when the beat does not name them.
type Defaults struct {
	ProducerName      string
	LicensorLegalName string
}

func LoadDefaults() Defaults {
	return Defaults{
		ProducerName:      env.GetEnv("PRODUCER_NAME", "5D Labs"),
		LicensorLegalName: env.GetEnv("LICENSOR_LEGAL_NAME", "5D Labs LLC"),
	}
}

// Input describes one issued license.
type Input struct {
	LicenseType   models.LicenseType
	LicenseNumber string
	LicenseeName  string
	LicenseeEmail string
	Beat          *models.Beat
	PurchasedAt   time.Time
}

type data struct {
	TierName          string
	Exclusive         bool
	EffectiveDate     string
	LicensorLegalName string
	ProducerName      string
	LicenseeName      string
	LicenseeEmail     string
	LicenseNumber     string
	CompositionTitle  string
}

// Render produces the agreement text. Beat-level names override the defaults.
func Render(defaults Defaults, in Input) ([]byte, error) {
	tier, ok := tierNames[in.LicenseType]
	if !ok {
		return nil, fmt.Errorf("unknown license type %q", in.LicenseType)
	}

	d := data{
		TierName:          tier,
		Exclusive:         in.LicenseType == models.LicenseExclusive,
		EffectiveDate:     in.PurchasedAt.Format("January 02, 2006"),
		LicensorLegalName: defaults.LicensorLegalName,
		ProducerName:      defaults.ProducerName,
		LicenseeName:      orUnknown(in.LicenseeName),
		LicenseeEmail:     orUnknown(in.LicenseeEmail),
		LicenseNumber:     in.LicenseNumber,
		CompositionTitle:  "Unknown Beat",
	}
	if b := in.Beat; b != nil {
		if b.Title != "" {
			d.CompositionTitle = b.Title
		}
		if b.ProducerName != nil && *b.ProducerName != "" {
			d.ProducerName = *b.ProducerName
		}
		if b.LicensorLegalName != nil && *b.LicensorLegalName != "" {
			d.LicensorLegalName = *b.LicensorLegalName
		}
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(in.LicenseType)+".tmpl", d); err != nil {
		return nil, fmt.Errorf("render %s license: %w", in.LicenseType, err)
	}
	return buf.Bytes(), nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
