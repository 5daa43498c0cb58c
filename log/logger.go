package log

import (
	"os"
	"path/filepath"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/conf"
	"github.com/sirupsen/logrus"
)

var (
	// Auth covers assertion building, KMS signing, and the token exchange.
	Auth logrus.FieldLogger
	// FHIR covers calls against the FHIR STU3 endpoint.
	FHIR logrus.FieldLogger
	// Scheduling covers calls against the Epic scheduling extension.
	Scheduling logrus.FieldLogger
	// Request covers the inbound HTTP/Lambda surfaces.
	Request logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)builds the package loggers from the current configuration.
// Tests call this after changing log destinations.
func SetupLoggers() {
	Auth = Logger(logrus.New(), conf.GetEnv("SMARTFHIR_AUTH_LOG"),
		"connector", conf.GetEnv("DEPLOYMENT_TARGET"))
	FHIR = Logger(logrus.New(), conf.GetEnv("SMARTFHIR_FHIR_LOG"),
		"connector", conf.GetEnv("DEPLOYMENT_TARGET"))
	Scheduling = Logger(logrus.New(), conf.GetEnv("SMARTFHIR_FHIR_LOG"),
		"connector", conf.GetEnv("DEPLOYMENT_TARGET"))
	Request = Logger(logrus.New(), conf.GetEnv("SMARTFHIR_REQUEST_LOG"),
		"connector", conf.GetEnv("DEPLOYMENT_TARGET"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	logger.SetFormatter(&logrus.JSONFormatter{})

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}
