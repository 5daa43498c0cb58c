package monitoring

import (
	"fmt"
	"net/http"

	"github.com/newrelic/go-agent/v3/integrations/nrlogrus"
	"github.com/newrelic/go-agent/v3/newrelic"
	log "github.com/sirupsen/logrus"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/conf"
)

var a *apm

type apm struct {
	App *newrelic.Application
}

// Start opens a web transaction around an inbound request. Returns the
// transaction and a response writer that records status codes. Both are
// nil-safe when monitoring is disabled.
func (a apm) Start(msg string, w http.ResponseWriter, r *http.Request) (*newrelic.Transaction, http.ResponseWriter) {
	if a.App != nil {
		txn := a.App.StartTransaction(msg)
		txn.SetWebRequestHTTP(r)
		return txn, txn.SetWebResponse(w)
	}
	return nil, w
}

func (a apm) End(txn *newrelic.Transaction) {
	if txn != nil {
		txn.End()
	}
}

func GetMonitor() *apm {
	if a == nil {
		target := conf.GetEnv("DEPLOYMENT_TARGET")
		if target == "" {
			target = "local"
		}
		license := conf.GetEnv("NEW_RELIC_LICENSE_KEY")
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(fmt.Sprintf("SMARTFHIR-%s", target)),
			newrelic.ConfigLicense(license),
			newrelic.ConfigEnabled(license != ""),
			func(cfg *newrelic.Config) {
				cfg.HighSecurity = true
				cfg.Logger = nrlogrus.StandardLogger()
			},
		)
		if err != nil {
			log.Error(err)
		}
		a = &apm{
			App: app,
		}
	}
	return a
}
