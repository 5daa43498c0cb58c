package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/conf"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/client"

	smartaws "github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/aws"
)

// fulfillmentEvent is the payload the contact-flow dialog engine sends. The
// operation selects a connector call; attributes carry its inputs as the
// dialog engine collected them from the caller.
type fulfillmentEvent struct {
	Operation  string            `json:"operation"`
	Attributes map[string]string `json:"attributes"`
}

func main() {
	log.SetFormatter(&log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	log.SetReportCaller(true)
	log.SetOutput(os.Stdout)

	lambda.Start(fulfillmentHandler)
}

func fulfillmentHandler(event fulfillmentEvent) (models.Envelope, error) {
	log.WithField("operation", event.Operation).Info("fulfillment request received")

	epic, err := buildClient()
	if err != nil {
		log.Error(err)
		return models.Envelope{}, err
	}

	env, err := dispatch(epic, event)
	if err != nil {
		log.Error(err)
		return models.Envelope{}, err
	}

	log.WithFields(log.Fields{
		"operation": event.Operation,
		"status":    env.Status,
	}).Info("fulfillment request completed")
	return env, nil
}

func dispatch(epic *client.EpicClient, event fulfillmentEvent) (models.Envelope, error) {
	attr := func(key string) string { return event.Attributes[key] }

	switch event.Operation {
	case "resolvePatient":
		return epic.ResolvePatient(models.PatientQuery{
			BirthDate: attr("birthDate"),
			Gender:    attr("gender"),
			Telecom:   models.NormalizeTelecom(attr("phone")),
		}), nil
	case "getMedications":
		return epic.GetMedications(attr("patientId")), nil
	case "getFutureAppointments":
		return epic.GetFutureAppointments(attr("patientId")), nil
	case "findAppointments":
		start, err := models.ParseAppointmentTime(attr("startTime"))
		if err != nil {
			return models.Envelope{Status: http.StatusBadRequest, Response: "invalid startTime"}, nil
		}
		var end time.Time
		if attr("endTime") != "" {
			if end, err = models.ParseAppointmentTime(attr("endTime")); err != nil {
				return models.Envelope{Status: http.StatusBadRequest, Response: "invalid endTime"}, nil
			}
		}
		return epic.FindAppointments(start, end), nil
	case "bookAppointment":
		if attr("patientId") == "" || attr("appointmentId") == "" {
			return models.Envelope{Status: http.StatusBadRequest, Response: "patientId and appointmentId are required"}, nil
		}
		return epic.BookAppointment(attr("patientId"), attr("appointmentId"), attr("note")), nil
	}
	return models.Envelope{}, fmt.Errorf("unknown operation %q", event.Operation)
}

func buildClient() (*client.EpicClient, error) {
	sess, err := smartaws.NewSession(conf.GetEnv("AWS_ASSUME_ROLE_ARN"), conf.GetEnv("AWS_ENDPOINT"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}

	clientID := conf.GetEnv("FHIR_CLIENT_ID")
	if clientID == "" {
		if clientID, err = smartaws.GetParameter(sess, conf.GetEnv("FHIR_CLIENT_ID_PARAMETER")); err != nil {
			return nil, err
		}
	}
	kmsKeyID := conf.GetEnv("KMS_KEY_ID")
	if kmsKeyID == "" {
		if kmsKeyID, err = smartaws.GetParameter(sess, conf.GetEnv("KMS_KEY_ID_PARAMETER")); err != nil {
			return nil, err
		}
	}

	creds := models.Credentials{
		ClientID:           clientID,
		TokenEndpoint:      conf.GetEnv("FHIR_TOKEN_ENDPOINT"),
		FHIREndpoint:       conf.GetEnv("FHIR_STU3_ENDPOINT"),
		SchedulingEndpoint: conf.GetEnv("FHIR_SCHEDULING_ENDPOINT"),
		KMSKeyID:           kmsKeyID,
	}

	return client.NewEpicClient(creds, smartaws.NewKMSSigner(sess, creds.KMSKeyID), nil), nil
}
