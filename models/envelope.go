package models

import (
	"net/url"
	"strings"
	"time"
)

// Envelope is the uniform result shape returned by every connector operation.
// Response holds a string, a flattened record, or a structured error value
// depending on the outcome.
type Envelope struct {
	Status   int         `json:"status"`
	Response interface{} `json:"response"`
}

// Credentials identifies the connector to the backend. It is provided at
// construction and never changes for the life of the client. The private
// signing key never leaves KMS; only its id is held here.
type Credentials struct {
	ClientID           string
	TokenEndpoint      string
	FHIREndpoint       string
	SchedulingEndpoint string
	KMSKeyID           string
}

// PatientQuery carries the caller-supplied identifying attributes for a
// Patient search. Telecom is expected in NNN-NNN-NNNN form; see
// NormalizeTelecom.
type PatientQuery struct {
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Telecom   string `json:"telecom"`
}

// Values renders the query as Patient search parameters. Empty attributes are
// left out so the backend does not match on empty strings.
func (q PatientQuery) Values() url.Values {
	v := url.Values{}
	if q.BirthDate != "" {
		v.Set("birthdate", q.BirthDate)
	}
	if q.Gender != "" {
		v.Set("gender", q.Gender)
	}
	if q.Telecom != "" {
		v.Set("telecom", q.Telecom)
	}
	return v
}

// NormalizeTelecom formats a caller-supplied phone number into the
// NNN-NNN-NNNN form the Patient search expects, using the last ten digits so
// that country codes and punctuation are ignored. Inputs with fewer than ten
// digits are returned unchanged.
func NormalizeTelecom(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return raw
	}
	digits = digits[len(digits)-10:]
	return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:10]
}

// ParseAppointmentTime accepts either a full appointment timestamp or a bare
// date from the caller. Bare dates start the search window at the clinic's
// 8 AM opening.
func ParseAppointmentTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(8 * time.Hour), nil
}
