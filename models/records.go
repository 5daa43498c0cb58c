package models

import "encoding/json"

// Flattened, call-scoped records produced by the resource mappers. Field names
// and tags follow the payload contract consumed by the dialog engine.

// DosageRecord is one dosage entry on a medication. All fields are optional;
// an absent source field is omitted rather than reported as an error.
type DosageRecord struct {
	PatientInstruction string          `json:"patientInstruction,omitempty"`
	Route              string          `json:"route,omitempty"`
	Timing             json.RawMessage `json:"timing,omitempty"`
}

// MedicationRecord is a flattened MedicationStatement. Every field is
// optional by contract.
type MedicationRecord struct {
	Status              string         `json:"status,omitempty"`
	Category            string         `json:"category,omitempty"`
	DateAsserted        string         `json:"dateAsserted,omitempty"`
	Subject             string         `json:"subject,omitempty"`
	Dosage              []DosageRecord `json:"dosage,omitempty"`
	MedicationReference string         `json:"medicationReference,omitempty"`
}

// ParticipantRecord is one appointment participant, in bundle order.
type ParticipantRecord struct {
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

// AppointmentRecord is a flattened Appointment from a $find search or a $book
// confirmation. Booking confirmations carry no slot or schedule, so those two
// fields are omitted when empty.
type AppointmentRecord struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Start           string              `json:"start"`
	End             string              `json:"end"`
	MinutesDuration int                 `json:"minutesDuration"`
	ServiceType     string              `json:"serviceType"`
	Slot            string              `json:"slot,omitempty"`
	Schedule        string              `json:"schedule,omitempty"`
	Participants    []ParticipantRecord `json:"participants"`
}

// FutureAppointmentDetail is one entry from the scheduling extension,
// flattened from the first provider-department of the appointment. The tags
// preserve the extension's own field naming.
type FutureAppointmentDetail struct {
	Date          string   `json:"Date"`
	Time          string   `json:"Time"`
	TimeZone      string   `json:"TimeZone"`
	Provider      string   `json:"Provider"`
	Department    string   `json:"Department"`
	Specialty     string   `json:"Specialty"`
	StreetAddress []string `json:"StreetAddress"`
	City          string   `json:"City"`
	State         string   `json:"State"`
	Country       string   `json:"Country"`
	PostalCode    string   `json:"PostalCode"`
}

// FutureAppointmentSummary totals the scheduling-extension response.
// Surgeries counts the entries flagged surgical.
type FutureAppointmentSummary struct {
	Count        int                       `json:"Number of appointments"`
	Surgeries    int                       `json:"Number of surgeries"`
	Appointments []FutureAppointmentDetail `json:"Appointment details"`
}
