package stripehook

import "github.com/stripe/stripe-go/v79"

func customerEmail(s *stripe.CheckoutSession) string {
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

func customerName(s *stripe.CheckoutSession) string {
	if s.CustomerDetails != nil {
		return s.CustomerDetails.Name
	}
	return ""
}

// Outcome summarises what a delivery did.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)
