package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/conf"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/models"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/client"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"

	smartaws "github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/aws"
)

func main() {
	if err := setUpApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = "smartfhir"
	app.Usage = "SMART on FHIR backend-services connector"
	app.Version = constants.Version

	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "Serve the connector operations over HTTP",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "port", Value: "8080", Usage: "Port to listen on"},
			},
			Action: func(c *cli.Context) error {
				epic, err := newEpicClientFromConfig()
				if err != nil {
					return err
				}
				srv := &http.Server{
					Addr:              ":" + c.String("port"),
					Handler:           NewRouter(&api{fhir: epic}),
					ReadHeaderTimeout: 10 * time.Second,
				}
				log.Infof("Listening on %s", srv.Addr)
				return srv.ListenAndServe()
			},
		},
		{
			Name:  "resolve-patient",
			Usage: "Resolve a patient id from identifying attributes",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "birthdate", Usage: "Birth date (YYYY-MM-DD)"},
				cli.StringFlag{Name: "gender", Usage: "Gender"},
				cli.StringFlag{Name: "phone", Usage: "Phone number"},
			},
			Action: func(c *cli.Context) error {
				return withEpicClient(func(epic *client.EpicClient) models.Envelope {
					return epic.ResolvePatient(models.PatientQuery{
						BirthDate: c.String("birthdate"),
						Gender:    c.String("gender"),
						Telecom:   models.NormalizeTelecom(c.String("phone")),
					})
				})
			},
		},
		{
			Name:  "list-medications",
			Usage: "List a patient's medication statements",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "patient", Usage: "Resolved patient id"},
			},
			Action: func(c *cli.Context) error {
				return withEpicClient(func(epic *client.EpicClient) models.Envelope {
					return epic.GetMedications(c.String("patient"))
				})
			},
		},
		{
			Name:  "list-future-appointments",
			Usage: "Summarize a patient's upcoming appointments",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "patient", Usage: "Resolved patient id"},
			},
			Action: func(c *cli.Context) error {
				return withEpicClient(func(epic *client.EpicClient) models.Envelope {
					return epic.GetFutureAppointments(c.String("patient"))
				})
			},
		},
		{
			Name:  "find-appointments",
			Usage: "Find open appointments from a start time",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "start", Usage: "Start date or timestamp"},
				cli.StringFlag{Name: "end", Usage: "Optional end date or timestamp"},
			},
			Action: func(c *cli.Context) error {
				start, err := models.ParseAppointmentTime(c.String("start"))
				if err != nil {
					return errors.Wrap(err, "invalid --start")
				}
				var end time.Time
				if c.String("end") != "" {
					if end, err = models.ParseAppointmentTime(c.String("end")); err != nil {
						return errors.Wrap(err, "invalid --end")
					}
				}
				return withEpicClient(func(epic *client.EpicClient) models.Envelope {
					return epic.FindAppointments(start, end)
				})
			},
		},
		{
			Name:  "book-appointment",
			Usage: "Book a found appointment for a patient",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "patient", Usage: "Resolved patient id"},
				cli.StringFlag{Name: "appointment", Usage: "Appointment id from find-appointments"},
				cli.StringFlag{Name: "note", Usage: "Booking note"},
			},
			Action: func(c *cli.Context) error {
				return withEpicClient(func(epic *client.EpicClient) models.Envelope {
					return epic.BookAppointment(c.String("patient"), c.String("appointment"), c.String("note"))
				})
			},
		},
	}
	return app
}

func withEpicClient(op func(*client.EpicClient) models.Envelope) error {
	epic, err := newEpicClientFromConfig()
	if err != nil {
		return err
	}
	return printEnvelope(op(epic))
}

func newEpicClientFromConfig() (*client.EpicClient, error) {
	sess, err := smartaws.NewSession(conf.GetEnv("AWS_ASSUME_ROLE_ARN"), conf.GetEnv("AWS_ENDPOINT"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}

	creds, err := resolveCredentials(sess)
	if err != nil {
		return nil, err
	}

	return client.NewEpicClient(creds, smartaws.NewKMSSigner(sess, creds.KMSKeyID), nil), nil
}

// resolveCredentials reads the client identity from configuration, falling
// back to the SSM Parameter Store for values provisioned there.
func resolveCredentials(sess *session.Session) (models.Credentials, error) {
	clientID, err := configOrParameter(sess, "FHIR_CLIENT_ID")
	if err != nil {
		return models.Credentials{}, err
	}
	kmsKeyID, err := configOrParameter(sess, "KMS_KEY_ID")
	if err != nil {
		return models.Credentials{}, err
	}

	creds := models.Credentials{
		ClientID:           clientID,
		TokenEndpoint:      conf.GetEnv("FHIR_TOKEN_ENDPOINT"),
		FHIREndpoint:       conf.GetEnv("FHIR_STU3_ENDPOINT"),
		SchedulingEndpoint: conf.GetEnv("FHIR_SCHEDULING_ENDPOINT"),
		KMSKeyID:           kmsKeyID,
	}

	switch {
	case creds.ClientID == "":
		return creds, errors.New("FHIR_CLIENT_ID must be set")
	case creds.TokenEndpoint == "":
		return creds, errors.New("FHIR_TOKEN_ENDPOINT must be set")
	case creds.FHIREndpoint == "":
		return creds, errors.New("FHIR_STU3_ENDPOINT must be set")
	case creds.KMSKeyID == "":
		return creds, errors.New("KMS_KEY_ID must be set")
	}
	return creds, nil
}

func configOrParameter(sess *session.Session, key string) (string, error) {
	if v := conf.GetEnv(key); v != "" {
		return v, nil
	}
	if param := conf.GetEnv(key + "_PARAMETER"); param != "" {
		return smartaws.GetParameter(sess, param)
	}
	return "", nil
}

func printEnvelope(env models.Envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
