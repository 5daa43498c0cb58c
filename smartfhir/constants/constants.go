package constants

// OAuth2 / JWT assertion constants for the backend-services flow.
const (
	GrantTypeClientCredentials = "client_credentials"
	ClientAssertionType        = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// JWTSigningAlg is the fixed assertion header algorithm. The matching KMS
	// signing algorithm identifier lives in the smartfhir/aws package.
	JWTSigningAlg = "RS384"

	// JTILength is the number of random ASCII letters in each assertion's jti claim.
	JTILength = 150

	// DefaultExpiryWindowMinutes is the assertion lifetime used when the caller
	// does not specify one.
	DefaultExpiryWindowMinutes = 4
)

// FHIR STU3 resource paths, relative to the configured FHIR endpoint.
const (
	PatientPath             = "Patient"
	MedicationStatementPath = "MedicationStatement"
	AppointmentFindPath     = "Appointment/$find"
	AppointmentBookPath     = "Appointment/$book"
)

// FutureAppointmentsPath is the Epic scheduling-extension path, relative to the
// configured scheduling endpoint.
const FutureAppointmentsPath = "GetFutureAppointments/Epic/Patient/Scheduling2019/GetFutureAppointments"

// PatientIDTypeSTU3 identifies the patient-id flavor expected by the
// scheduling extension.
const PatientIDTypeSTU3 = "FHIR STU3"

// TokenNotFoundMsg is the uniform response body for any failed authentication
// attempt. Callers check the envelope status, not this string.
const TokenNotFoundMsg = "token not found"

// NoMedicationsMsg is the sentinel returned for an empty MedicationStatement
// bundle. It is a successful result, not an error.
const NoMedicationsMsg = "no medications found"

// Version is stamped at build time via -ldflags.
var Version = "latest"
