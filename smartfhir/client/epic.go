package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/conf"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/log"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/auth"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/client/fhir"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

// dateTimeFormat is the valueDateTime layout the $find operation expects.
const dateTimeFormat = "2006-01-02T15:04:05Z"

// EpicClient is the connector facade. Every operation runs the full
// authenticate-then-call sequence: build an assertion, sign it with KMS,
// exchange it for a bearer token, make the resource call, map the body.
// Tokens are never cached across operations; per-call freshness is part of
// the flow's security contract, so do not add reuse here.
type EpicClient struct {
	creds      models.Credentials
	signer     auth.Signer
	tokens     *auth.TokenClient
	httpClient *http.Client
}

// NewEpicClient wires the facade with its collaborators. A nil httpClient
// builds one from FHIR_TIMEOUT_MS (default 5000).
func NewEpicClient(creds models.Credentials, signer auth.Signer, httpClient *http.Client) *EpicClient {
	if httpClient == nil {
		timeout := 5000
		if t, err := strconv.Atoi(conf.GetEnv("FHIR_TIMEOUT_MS")); err == nil {
			timeout = t
		}
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Millisecond}
	}

	return &EpicClient{
		creds:      creds,
		signer:     signer,
		tokens:     auth.NewTokenClient(creds.TokenEndpoint, httpClient),
		httpClient: httpClient,
	}
}

// ResolvePatient searches Patient with the caller-supplied identifying
// attributes and returns the resolved patient id.
func (c *EpicClient) ResolvePatient(query models.PatientQuery) models.Envelope {
	token, err := c.authenticate()
	if err != nil {
		return authFailure(err)
	}

	status, body, err := c.get(token, constants.PatientPath, query.Values())
	if err != nil {
		return transportFailure(err)
	}
	return fhir.Patient(status, body)
}

// GetMedications lists the patient's MedicationStatements as flattened
// records, or the no-medications sentinel.
func (c *EpicClient) GetMedications(patientID string) models.Envelope {
	token, err := c.authenticate()
	if err != nil {
		return authFailure(err)
	}

	params := url.Values{}
	params.Set("patient", patientID)
	status, body, err := c.get(token, constants.MedicationStatementPath, params)
	if err != nil {
		return transportFailure(err)
	}
	return fhir.Medications(status, body)
}

// GetFutureAppointments calls the scheduling extension and summarizes the
// patient's upcoming appointments, counting surgical ones.
func (c *EpicClient) GetFutureAppointments(patientID string) models.Envelope {
	token, err := c.authenticate()
	if err != nil {
		return authFailure(err)
	}

	payload := models.FutureAppointmentsRequest{
		PatientID:     patientID,
		PatientIDType: constants.PatientIDTypeSTU3,
	}
	target := joinURL(c.creds.SchedulingEndpoint, constants.FutureAppointmentsPath)
	status, body, err := c.post(token, target, payload, log.Scheduling)
	if err != nil {
		return transportFailure(err)
	}
	return fhir.FutureAppointments(status, body)
}

// FindAppointments searches open appointments starting at start. A zero end
// leaves the window open-ended.
func (c *EpicClient) FindAppointments(start, end time.Time) models.Envelope {
	token, err := c.authenticate()
	if err != nil {
		return authFailure(err)
	}

	params := models.Parameters{
		ResourceType: "Parameters",
		Parameter: []models.Parameter{
			{Name: "startTime", ValueDateTime: start.UTC().Format(dateTimeFormat)},
		},
	}
	if !end.IsZero() {
		params.Parameter = append(params.Parameter,
			models.Parameter{Name: "endTime", ValueDateTime: end.UTC().Format(dateTimeFormat)})
	}

	target := joinURL(c.creds.FHIREndpoint, constants.AppointmentFindPath)
	status, body, err := c.post(token, target, params, log.FHIR)
	if err != nil {
		return transportFailure(err)
	}
	return fhir.Appointments(status, body)
}

// BookAppointment books a found appointment for the patient and returns the
// confirmation record.
func (c *EpicClient) BookAppointment(patientID, appointmentID, note string) models.Envelope {
	token, err := c.authenticate()
	if err != nil {
		return authFailure(err)
	}

	params := models.Parameters{
		ResourceType: "Parameters",
		Parameter: []models.Parameter{
			{Name: "patient", ValueIdentifier: &models.Identifier{Value: patientID}},
			{Name: "appointment", ValueIdentifier: &models.Identifier{Value: appointmentID}},
			{Name: "appointmentNote", ValueString: note},
		},
	}

	target := joinURL(c.creds.FHIREndpoint, constants.AppointmentBookPath)
	status, body, err := c.post(token, target, params, log.FHIR)
	if err != nil {
		return transportFailure(err)
	}
	return fhir.Booking(status, body)
}

// authenticate runs the assertion/sign/exchange sequence and returns a fresh
// bearer token. Any fault here fails the whole operation; the resource
// endpoint is never contacted without a token.
func (c *EpicClient) authenticate() (string, error) {
	assertion, err := auth.NewAssertion(c.creds.ClientID, c.creds.TokenEndpoint, 0)
	if err != nil {
		return "", err
	}

	signature, err := c.signer.Sign([]byte(assertion.SigningInput()))
	if err != nil {
		return "", errors.Wrap(err, "assertion signing failed")
	}

	result, err := c.tokens.Exchange(assertion.Encode(signature))
	if err != nil {
		return "", err
	}
	if result.StatusCode != http.StatusOK {
		return "", errors.Errorf("token endpoint returned %d", result.StatusCode)
	}
	if result.Token.AccessToken == "" {
		return "", errors.New("token endpoint returned no access_token")
	}

	return result.Token.AccessToken, nil
}

func (c *EpicClient) get(token, path string, params url.Values) (int, []byte, error) {
	req, err := http.NewRequest("GET", joinURL(c.creds.FHIREndpoint, path), nil)
	if err != nil {
		return 0, nil, err
	}
	req.URL.RawQuery = params.Encode()

	return c.do(req, token, log.FHIR)
}

func (c *EpicClient) post(token, target string, payload interface{}, logger logrus.FieldLogger) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest("POST", target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}

	return c.do(req, token, logger)
}

func (c *EpicClient) do(req *http.Request, token string, logger logrus.FieldLogger) (int, []byte, error) {
	reqID := uuid.NewRandom()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID.String())

	logger.WithFields(logrus.Fields{
		"request_id": reqID.String(),
		"method":     req.Method,
		"uri":        req.URL.String(),
	}).Info("backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "backend request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read backend response")
	}

	logger.WithFields(logrus.Fields{
		"request_id":     reqID.String(),
		"resp_code":      resp.StatusCode,
		"content_length": resp.ContentLength,
	}).Info("backend response")

	return resp.StatusCode, data, nil
}

func authFailure(err error) models.Envelope {
	log.Auth.WithError(err).Error("authentication failed")
	return models.Envelope{Status: http.StatusBadRequest, Response: constants.TokenNotFoundMsg}
}

// transportFailure keeps raw transport errors from crossing the facade
// boundary.
func transportFailure(err error) models.Envelope {
	return models.Envelope{Status: http.StatusBadGateway, Response: err.Error()}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + path
}
