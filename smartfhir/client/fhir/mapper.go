package fhir

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

// MalformedResourceError reports a 200 response whose body is missing a field
// the contract requires. It is surfaced as the envelope response so the
// caller can tell upstream shape drift apart from outright failures.
type MalformedResourceError struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
}

func (e *MalformedResourceError) Error() string {
	return fmt.Sprintf("malformed %s resource: missing %s", e.Resource, e.Field)
}

func malformed(resource, field string) models.Envelope {
	return models.Envelope{
		Status:   http.StatusBadGateway,
		Response: &MalformedResourceError{Resource: resource, Field: field},
	}
}

// firstIssue pulls the leading operation-outcome issue out of an error body.
// Bodies that don't parse as an outcome pass through as raw text.
func firstIssue(body []byte) interface{} {
	var outcome models.OperationOutcome
	if err := json.Unmarshal(body, &outcome); err == nil && len(outcome.Issue) > 0 {
		return outcome.Issue[0]
	}
	return string(body)
}

// Patient maps a Patient search response to the resolved patient id. Non-200
// surfaces the first operation-outcome issue with the original status.
func Patient(status int, body []byte) models.Envelope {
	if status != http.StatusOK {
		return models.Envelope{Status: status, Response: firstIssue(body)}
	}

	var bundle models.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return malformed("Patient", "bundle")
	}
	if len(bundle.Entry) == 0 {
		return malformed("Patient", "entry")
	}

	var patient models.PatientResource
	if err := json.Unmarshal(bundle.Entry[0].Resource, &patient); err != nil || patient.ID == "" {
		return malformed("Patient", "entry[0].resource.id")
	}

	return models.Envelope{Status: status, Response: patient.ID}
}

// Medications maps a MedicationStatement search bundle. An explicit total of
// zero, or a bundle with no entries, yields the no-medications sentinel
// string. Every record field is optional; absent source fields are omitted
// rather than treated as errors.
func Medications(status int, body []byte) models.Envelope {
	if status != http.StatusOK {
		return models.Envelope{Status: status, Response: string(body)}
	}

	var bundle models.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return malformed("MedicationStatement", "bundle")
	}
	if (bundle.Total != nil && *bundle.Total == 0) || len(bundle.Entry) == 0 {
		return models.Envelope{Status: status, Response: constants.NoMedicationsMsg}
	}

	records := make([]models.MedicationRecord, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var ms models.MedicationStatementResource
		if err := json.Unmarshal(entry.Resource, &ms); err != nil {
			return malformed("MedicationStatement", "entry.resource")
		}
		records = append(records, flattenMedication(ms))
	}

	return models.Envelope{Status: status, Response: records}
}

func flattenMedication(ms models.MedicationStatementResource) models.MedicationRecord {
	rec := models.MedicationRecord{
		Status:       ms.Status,
		DateAsserted: ms.DateAsserted,
	}
	if ms.Category != nil {
		rec.Category = ms.Category.Text
	}
	if ms.Subject != nil {
		rec.Subject = ms.Subject.Display
	}
	if ms.MedicationReference != nil {
		rec.MedicationReference = ms.MedicationReference.Display
	}
	for _, d := range ms.Dosage {
		dr := models.DosageRecord{Timing: d.Timing}
		// The dosage text doubles as the patient instruction when no explicit
		// instruction is present.
		if d.Text != "" {
			dr.PatientInstruction = d.Text
		}
		if d.PatientInstruction != "" {
			dr.PatientInstruction = d.PatientInstruction
		}
		if d.Route != nil {
			dr.Route = d.Route.Text
		}
		rec.Dosage = append(rec.Dosage, dr)
	}
	return rec
}

// Appointments maps an Appointment/$find response into flattened appointment
// records. Fields named by the contract are expected on every entry; a
// missing one fails the mapping rather than producing a partial record.
func Appointments(status int, body []byte) models.Envelope {
	if status != http.StatusOK {
		return models.Envelope{Status: status, Response: firstIssue(body)}
	}

	var bundle models.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return malformed("Appointment", "bundle")
	}

	records := make([]models.AppointmentRecord, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		rec, merr := flattenAppointment(entry.Resource, true)
		if merr != nil {
			return models.Envelope{Status: http.StatusBadGateway, Response: merr}
		}
		records = append(records, rec)
	}

	return models.Envelope{Status: status, Response: records}
}

// Booking maps an Appointment/$book confirmation: a single entry with the
// search-result shape minus slot and schedule.
func Booking(status int, body []byte) models.Envelope {
	if status != http.StatusOK {
		return models.Envelope{Status: status, Response: firstIssue(body)}
	}

	var bundle models.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return malformed("Appointment", "bundle")
	}
	if len(bundle.Entry) == 0 {
		return malformed("Appointment", "entry")
	}

	rec, merr := flattenAppointment(bundle.Entry[0].Resource, false)
	if merr != nil {
		return models.Envelope{Status: http.StatusBadGateway, Response: merr}
	}

	return models.Envelope{Status: status, Response: rec}
}

func flattenAppointment(raw json.RawMessage, withSlot bool) (models.AppointmentRecord, *MalformedResourceError) {
	var rec models.AppointmentRecord

	var r models.AppointmentResource
	if err := json.Unmarshal(raw, &r); err != nil {
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "resource"}
	}

	switch {
	case r.ID == "":
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "id"}
	case r.Status == "":
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "status"}
	case r.Start == "":
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "start"}
	case r.End == "":
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "end"}
	case r.MinutesDuration == nil:
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "minutesDuration"}
	}

	if len(r.ServiceType) == 0 || len(r.ServiceType[0].Coding) == 0 || r.ServiceType[0].Coding[0].Display == "" {
		return rec, &MalformedResourceError{Resource: "Appointment", Field: "serviceType"}
	}

	rec = models.AppointmentRecord{
		ID:              r.ID,
		Status:          r.Status,
		Start:           r.Start,
		End:             r.End,
		MinutesDuration: *r.MinutesDuration,
		ServiceType:     r.ServiceType[0].Coding[0].Display,
	}

	if withSlot {
		if len(r.Slot) == 0 || r.Slot[0].Display == "" {
			return rec, &MalformedResourceError{Resource: "Appointment", Field: "slot"}
		}
		if len(r.Contained) == 0 || r.Contained[0].Schedule == nil || r.Contained[0].Schedule.Reference == "" {
			return rec, &MalformedResourceError{Resource: "Appointment", Field: "contained[0].schedule"}
		}
		rec.Slot = r.Slot[0].Display
		rec.Schedule = r.Contained[0].Schedule.Reference
	}

	rec.Participants = make([]models.ParticipantRecord, 0, len(r.Participant))
	for _, p := range r.Participant {
		if p.Actor == nil {
			return rec, &MalformedResourceError{Resource: "Appointment", Field: "participant.actor"}
		}
		rec.Participants = append(rec.Participants, models.ParticipantRecord{
			Reference: p.Actor.Reference,
			Name:      p.Actor.Display,
			Status:    p.Status,
		})
	}

	return rec, nil
}

// FutureAppointments maps the scheduling extension's response into a summary
// with a surgery count. The first provider-department of each appointment is
// expected to be fully populated.
func FutureAppointments(status int, body []byte) models.Envelope {
	if status != http.StatusOK {
		return models.Envelope{Status: status, Response: string(body)}
	}

	var payload models.FutureAppointmentsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return malformed("FutureAppointments", "Appointments")
	}

	summary := models.FutureAppointmentSummary{
		Appointments: make([]models.FutureAppointmentDetail, 0, len(payload.Appointments)),
	}
	for _, appt := range payload.Appointments {
		if appt.IsSurgery == "true" {
			summary.Surgeries++
		}

		if len(appt.ProviderDepartments) == 0 {
			return malformed("FutureAppointments", "ProviderDepartments")
		}
		pd := appt.ProviderDepartments[0]
		if pd.Provider == nil {
			return malformed("FutureAppointments", "ProviderDepartments[0].Provider")
		}
		dept := pd.Department
		switch {
		case dept == nil:
			return malformed("FutureAppointments", "ProviderDepartments[0].Department")
		case dept.OfficialTimeZone == nil:
			return malformed("FutureAppointments", "Department.OfficialTimeZone")
		case dept.Specialty == nil:
			return malformed("FutureAppointments", "Department.Specialty")
		case dept.Address == nil:
			return malformed("FutureAppointments", "Department.Address")
		case dept.Address.State == nil:
			return malformed("FutureAppointments", "Department.Address.State")
		case dept.Address.Country == nil:
			return malformed("FutureAppointments", "Department.Address.Country")
		}

		summary.Appointments = append(summary.Appointments, models.FutureAppointmentDetail{
			Date:          appt.Date,
			Time:          appt.Time,
			TimeZone:      dept.OfficialTimeZone.Title,
			Provider:      pd.Provider.Name,
			Department:    dept.Name,
			Specialty:     dept.Specialty.Title,
			StreetAddress: dept.Address.StreetAddress,
			City:          dept.Address.City,
			State:         dept.Address.State.Title,
			Country:       dept.Address.Country.Title,
			PostalCode:    dept.Address.PostalCode,
		})
	}
	summary.Count = len(summary.Appointments)

	return models.Envelope{Status: status, Response: summary}
}
