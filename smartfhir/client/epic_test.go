package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

// stubSigner stands in for the KMS-backed signer. The signature bytes are
// arbitrary; the fake token endpoint does not verify them.
type stubSigner struct {
	err   error
	calls int
}

func (s *stubSigner) Sign(message []byte) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("signed:" + string(message[:12])), nil
}

type EpicClientTestSuite struct {
	suite.Suite

	signer      *stubSigner
	tokenServer *httptest.Server
	fhirServer  *httptest.Server

	tokenHits    int
	tokenStatus  int
	tokenBody    string
	resourceHits int
	handler      func(w http.ResponseWriter, r *http.Request)
}

func (s *EpicClientTestSuite) SetupTest() {
	s.signer = &stubSigner{}
	s.tokenHits = 0
	s.tokenStatus = http.StatusOK
	s.tokenBody = `{"access_token":"tok123","token_type":"bearer","expires_in":300}`
	s.resourceHits = 0
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	s.tokenServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.tokenHits++
		w.WriteHeader(s.tokenStatus)
		fmt.Fprint(w, s.tokenBody)
	}))
	s.fhirServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.resourceHits++
		s.Equal("Bearer tok123", r.Header.Get("Authorization"))
		s.NotEmpty(r.Header.Get("X-Request-Id"))
		s.handler(w, r)
	}))
}

func (s *EpicClientTestSuite) TearDownTest() {
	s.tokenServer.Close()
	s.fhirServer.Close()
}

func (s *EpicClientTestSuite) client() *EpicClient {
	return NewEpicClient(models.Credentials{
		ClientID:           "test-client",
		TokenEndpoint:      s.tokenServer.URL,
		FHIREndpoint:       s.fhirServer.URL,
		SchedulingEndpoint: s.fhirServer.URL,
		KMSKeyID:           "alias/test",
	}, s.signer, &http.Client{Timeout: 5 * time.Second})
}

func (s *EpicClientTestSuite) TestResolvePatient() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/Patient", r.URL.Path)
		s.Equal("1987-02-20", r.URL.Query().Get("birthdate"))
		s.Equal("female", r.URL.Query().Get("gender"))
		s.Equal("608-555-0100", r.URL.Query().Get("telecom"))
		fmt.Fprint(w, `{"entry":[{"resource":{"resourceType":"Patient","id":"abc123"}}]}`)
	}

	env := s.client().ResolvePatient(models.PatientQuery{
		BirthDate: "1987-02-20",
		Gender:    "female",
		Telecom:   models.NormalizeTelecom("+1 (608) 555-0100"),
	})

	s.Equal(http.StatusOK, env.Status)
	s.Equal("abc123", env.Response)
}

func (s *EpicClientTestSuite) TestResolvePatientNotFound() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"resourceType":"OperationOutcome","issue":[{"severity":"error","code":"not-found","diagnostics":"no matching patient"}]}`)
	}

	env := s.client().ResolvePatient(models.PatientQuery{BirthDate: "1987-02-20"})

	s.Equal(http.StatusNotFound, env.Status)
	issue, ok := env.Response.(models.OperationOutcomeIssue)
	s.Require().True(ok)
	s.Equal("not-found", issue.Code)
}

func (s *EpicClientTestSuite) TestAuthFailureSkipsResourceCall() {
	s.tokenStatus = http.StatusUnauthorized
	s.tokenBody = `{"error":"invalid_client"}`

	env := s.client().ResolvePatient(models.PatientQuery{BirthDate: "1987-02-20"})

	s.Equal(http.StatusBadRequest, env.Status)
	s.Equal(constants.TokenNotFoundMsg, env.Response)
	s.Zero(s.resourceHits, "resource endpoint must not be contacted without a token")
}

func (s *EpicClientTestSuite) TestSignerFailure() {
	s.signer.err = errors.New("kms unavailable")

	env := s.client().GetMedications("abc123")

	s.Equal(http.StatusBadRequest, env.Status)
	s.Equal(constants.TokenNotFoundMsg, env.Response)
	s.Zero(s.tokenHits, "token endpoint must not see an unsigned assertion")
	s.Zero(s.resourceHits)
}

func (s *EpicClientTestSuite) TestEmptyAccessToken() {
	s.tokenBody = `{"access_token":""}`

	env := s.client().GetMedications("abc123")

	s.Equal(http.StatusBadRequest, env.Status)
	s.Equal(constants.TokenNotFoundMsg, env.Response)
	s.Zero(s.resourceHits)
}

func (s *EpicClientTestSuite) TestFreshTokenPerOperation() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"entry":[{"resource":{"resourceType":"Patient","id":"abc123"}}]}`)
	}

	c := s.client()
	c.ResolvePatient(models.PatientQuery{BirthDate: "1987-02-20"})
	c.ResolvePatient(models.PatientQuery{BirthDate: "1987-02-20"})
	c.ResolvePatient(models.PatientQuery{BirthDate: "1987-02-20"})

	s.Equal(3, s.tokenHits, "every operation authenticates from scratch")
	s.Equal(3, s.signer.calls)
}

func (s *EpicClientTestSuite) TestGetMedicationsNoneFound() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/MedicationStatement", r.URL.Path)
		s.Equal("abc123", r.URL.Query().Get("patient"))
		fmt.Fprint(w, `{"resourceType":"Bundle","total":0}`)
	}

	env := s.client().GetMedications("abc123")

	s.Equal(http.StatusOK, env.Status)
	s.Equal(constants.NoMedicationsMsg, env.Response)
}

func (s *EpicClientTestSuite) TestGetFutureAppointments() {
	patientID := fmt.Sprintf("pat-%d", randomdata.Number(1000, 9999))

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("POST", r.Method)
		s.True(strings.HasSuffix(r.URL.Path, constants.FutureAppointmentsPath))

		var req models.FutureAppointmentsRequest
		body, err := io.ReadAll(r.Body)
		s.NoError(err)
		s.NoError(json.Unmarshal(body, &req))
		s.Equal(patientID, req.PatientID)
		s.Equal(constants.PatientIDTypeSTU3, req.PatientIDType)

		fmt.Fprint(w, `{"Appointments":[]}`)
	}

	env := s.client().GetFutureAppointments(patientID)

	s.Equal(http.StatusOK, env.Status)
	summary, ok := env.Response.(models.FutureAppointmentSummary)
	s.Require().True(ok)
	s.Zero(summary.Count)
}

func (s *EpicClientTestSuite) TestFindAppointments() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasSuffix(r.URL.Path, "/Appointment/$find"))

		var params models.Parameters
		body, err := io.ReadAll(r.Body)
		s.NoError(err)
		s.NoError(json.Unmarshal(body, &params))

		s.Equal("Parameters", params.ResourceType)
		s.Require().Len(params.Parameter, 2)
		s.Equal("startTime", params.Parameter[0].Name)
		s.Equal("2019-06-10T08:00:00Z", params.Parameter[0].ValueDateTime)
		s.Equal("endTime", params.Parameter[1].Name)
		s.Equal("2019-06-17T08:00:00Z", params.Parameter[1].ValueDateTime)

		fmt.Fprint(w, `{"resourceType":"Bundle","entry":[]}`)
	}

	start := time.Date(2019, 6, 10, 8, 0, 0, 0, time.UTC)
	env := s.client().FindAppointments(start, start.AddDate(0, 0, 7))

	s.Equal(http.StatusOK, env.Status)
}

func (s *EpicClientTestSuite) TestFindAppointmentsOpenEnded() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		var params models.Parameters
		body, err := io.ReadAll(r.Body)
		s.NoError(err)
		s.NoError(json.Unmarshal(body, &params))

		s.Require().Len(params.Parameter, 1)
		s.Equal("startTime", params.Parameter[0].Name)

		fmt.Fprint(w, `{"resourceType":"Bundle","entry":[]}`)
	}

	env := s.client().FindAppointments(time.Date(2019, 6, 10, 8, 0, 0, 0, time.UTC), time.Time{})

	s.Equal(http.StatusOK, env.Status)
}

func (s *EpicClientTestSuite) TestBookAppointment() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasSuffix(r.URL.Path, "/Appointment/$book"))

		var params models.Parameters
		body, err := io.ReadAll(r.Body)
		s.NoError(err)
		s.NoError(json.Unmarshal(body, &params))

		s.Require().Len(params.Parameter, 3)
		s.Equal("patient", params.Parameter[0].Name)
		s.Equal("abc123", params.Parameter[0].ValueIdentifier.Value)
		s.Equal("appointment", params.Parameter[1].Name)
		s.Equal("appt-1", params.Parameter[1].ValueIdentifier.Value)
		s.Equal("appointmentNote", params.Parameter[2].Name)
		s.Equal("follow-up", params.Parameter[2].ValueString)

		fmt.Fprint(w, `{"entry":[{"resource":{
			"id":"appt-1","status":"booked",
			"start":"2019-06-10T15:00:00Z","end":"2019-06-10T15:30:00Z",
			"minutesDuration":30,
			"serviceType":[{"coding":[{"display":"Office Visit"}]}],
			"participant":[]
		}}]}`)
	}

	env := s.client().BookAppointment("abc123", "appt-1", "follow-up")

	s.Equal(http.StatusOK, env.Status)
	rec, ok := env.Response.(models.AppointmentRecord)
	s.Require().True(ok)
	s.Equal("booked", rec.Status)
	s.Empty(rec.Slot)
}

func (s *EpicClientTestSuite) TestResourceServerUnreachable() {
	s.fhirServer.Close()

	env := s.client().GetMedications("abc123")

	s.Equal(http.StatusBadGateway, env.Status)
	msg, ok := env.Response.(string)
	s.Require().True(ok)
	s.Contains(msg, "backend request failed")
}

func TestEpicClientTestSuite(t *testing.T) {
	suite.Run(t, new(EpicClientTestSuite))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://fhir.example.com/api/Patient",
		joinURL("https://fhir.example.com/api/", "Patient"))
	assert.Equal(t, "https://fhir.example.com/api/Patient",
		joinURL("https://fhir.example.com/api", "Patient"))
}
