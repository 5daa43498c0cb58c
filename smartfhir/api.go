package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/log"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/client"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/monitoring"
)

// api serves the connector operations over HTTP for the dialog engine and for
// local development. The EpicClient is injected at construction; there are no
// package-level singletons.
type api struct {
	fhir *client.EpicClient
}

func (a *api) resolvePatient(w http.ResponseWriter, r *http.Request) {
	txn, w := monitoring.GetMonitor().Start("resolvePatient", w, r)
	defer monitoring.GetMonitor().End(txn)

	var payload struct {
		BirthDate string `json:"birthDate"`
		Gender    string `json:"gender"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	writeEnvelope(w, r, a.fhir.ResolvePatient(models.PatientQuery{
		BirthDate: payload.BirthDate,
		Gender:    payload.Gender,
		Telecom:   models.NormalizeTelecom(payload.Phone),
	}))
}

func (a *api) listMedications(w http.ResponseWriter, r *http.Request) {
	txn, w := monitoring.GetMonitor().Start("listMedications", w, r)
	defer monitoring.GetMonitor().End(txn)

	writeEnvelope(w, r, a.fhir.GetMedications(chi.URLParam(r, "patientID")))
}

func (a *api) listFutureAppointments(w http.ResponseWriter, r *http.Request) {
	txn, w := monitoring.GetMonitor().Start("listFutureAppointments", w, r)
	defer monitoring.GetMonitor().End(txn)

	writeEnvelope(w, r, a.fhir.GetFutureAppointments(chi.URLParam(r, "patientID")))
}

func (a *api) findAppointments(w http.ResponseWriter, r *http.Request) {
	txn, w := monitoring.GetMonitor().Start("findAppointments", w, r)
	defer monitoring.GetMonitor().End(txn)

	var payload struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	start, err := models.ParseAppointmentTime(payload.StartTime)
	if err != nil {
		badRequest(w, r, "invalid startTime")
		return
	}
	var end time.Time
	if payload.EndTime != "" {
		if end, err = models.ParseAppointmentTime(payload.EndTime); err != nil {
			badRequest(w, r, "invalid endTime")
			return
		}
	}

	writeEnvelope(w, r, a.fhir.FindAppointments(start, end))
}

func (a *api) bookAppointment(w http.ResponseWriter, r *http.Request) {
	txn, w := monitoring.GetMonitor().Start("bookAppointment", w, r)
	defer monitoring.GetMonitor().End(txn)

	var payload struct {
		PatientID     string `json:"patientId"`
		AppointmentID string `json:"appointmentId"`
		Note          string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	if payload.PatientID == "" || payload.AppointmentID == "" {
		badRequest(w, r, "patientId and appointmentId are required")
		return
	}

	writeEnvelope(w, r, a.fhir.BookAppointment(payload.PatientID, payload.AppointmentID, payload.Note))
}

// writeEnvelope mirrors the envelope status onto the HTTP response so plain
// HTTP callers don't have to parse the body to branch.
func writeEnvelope(w http.ResponseWriter, r *http.Request, env models.Envelope) {
	render.Status(r, env.Status)
	render.JSON(w, r, env)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	log.Request.WithField("reason", msg).Warn("rejected request")
	writeEnvelope(w, r, models.Envelope{Status: http.StatusBadRequest, Response: msg})
}
