package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/middleware"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

// NewRouter provides a router with all the required... routes
func NewRouter(a *api) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewTransactionID)
	r.Get("/_version", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"version": constants.Version})
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/patient", a.resolvePatient)
		r.Get("/patient/{patientID}/medications", a.listMedications)
		r.Get("/patient/{patientID}/appointments", a.listFutureAppointments)
		r.Post("/appointment/$find", a.findAppointments)
		r.Post("/appointment/$book", a.bookAppointment)
	})
	return r
}
