package models

import "encoding/json"

// Transient payload shapes for the backend's JSON bodies. Optional fields use
// pointers or slices so the mappers can distinguish absent from zero.

// Bundle is a collection-style FHIR response. Entry resources stay raw until
// a per-family mapper decodes them.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        *int          `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Resource json.RawMessage `json:"resource"`
}

// OperationOutcome is the backend's structured error payload on non-success
// responses.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"`
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Location    []string         `json:"location,omitempty"`
	Expression  []string         `json:"expression,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Coding struct {
	System       string `json:"system,omitempty"`
	Version      string `json:"version,omitempty"`
	Code         string `json:"code,omitempty"`
	Display      string `json:"display,omitempty"`
	UserSelected bool   `json:"userSelected,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type PatientResource struct {
	ID string `json:"id"`
}

type MedicationStatementResource struct {
	Status              string           `json:"status"`
	Category            *CodeableConcept `json:"category"`
	DateAsserted        string           `json:"dateAsserted"`
	Subject             *Reference       `json:"subject"`
	Dosage              []DosageResource `json:"dosage"`
	MedicationReference *Reference       `json:"medicationReference"`
}

type DosageResource struct {
	Text               string           `json:"text"`
	PatientInstruction string           `json:"patientInstruction"`
	Route              *CodeableConcept `json:"route"`
	Timing             json.RawMessage  `json:"timing"`
}

type AppointmentResource struct {
	ID              string                   `json:"id"`
	Status          string                   `json:"status"`
	Start           string                   `json:"start"`
	End             string                   `json:"end"`
	MinutesDuration *int                     `json:"minutesDuration"`
	ServiceType     []CodeableConcept        `json:"serviceType"`
	Slot            []Reference              `json:"slot"`
	Contained       []ContainedResource      `json:"contained"`
	Participant     []AppointmentParticipant `json:"participant"`
}

// ContainedResource carries the inline Schedule reference that Appointment
// search results embed.
type ContainedResource struct {
	Schedule *Reference `json:"schedule"`
}

type AppointmentParticipant struct {
	Actor  *Reference `json:"actor"`
	Status string     `json:"status"`
}

// Parameters is the FHIR Parameters resource used as the request body for the
// $find and $book operations.
type Parameters struct {
	ResourceType string      `json:"resourceType"`
	Parameter    []Parameter `json:"parameter"`
}

type Parameter struct {
	Name            string      `json:"name"`
	ValueDateTime   string      `json:"valueDateTime,omitempty"`
	ValueString     string      `json:"valueString,omitempty"`
	ValueIdentifier *Identifier `json:"valueIdentifier,omitempty"`
}

type Identifier struct {
	Value string `json:"value"`
}

// Scheduling-extension shapes. Field names follow the extension's payload,
// including IsSurgery arriving as the string "true"/"false".

type FutureAppointmentsRequest struct {
	PatientID     string `json:"PatientID"`
	PatientIDType string `json:"PatientIDType"`
}

type FutureAppointmentsResponse struct {
	Appointments []EpicAppointment `json:"Appointments"`
}

type EpicAppointment struct {
	Date                string                   `json:"Date"`
	Time                string                   `json:"Time"`
	IsSurgery           string                   `json:"IsSurgery"`
	ProviderDepartments []EpicProviderDepartment `json:"ProviderDepartments"`
}

type EpicProviderDepartment struct {
	Provider   *EpicProvider   `json:"Provider"`
	Department *EpicDepartment `json:"Department"`
}

type EpicProvider struct {
	Name string `json:"Name"`
}

type EpicDepartment struct {
	Name             string       `json:"Name"`
	Specialty        *EpicTitled  `json:"Specialty"`
	OfficialTimeZone *EpicTitled  `json:"OfficialTimeZone"`
	Address          *EpicAddress `json:"Address"`
}

// EpicTitled wraps the extension's common {"Title": ...} objects.
type EpicTitled struct {
	Title string `json:"Title"`
}

type EpicAddress struct {
	StreetAddress []string    `json:"StreetAddress"`
	City          string      `json:"City"`
	State         *EpicTitled `json:"State"`
	Country       *EpicTitled `json:"Country"`
	PostalCode    string      `json:"PostalCode"`
}
